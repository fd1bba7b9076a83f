package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Davincible/hdwallet/pkg/crypto/hdkey"
	"github.com/btcsuite/btcd/chaincfg"
)

var ErrUnknownNetwork = errors.New("unknown network")

// Network binds chain parameters to the coin type and the per-scheme
// extended key versions.
type Network struct {
	Name     string
	CoinType uint32
	Params   *chaincfg.Params

	versions [3]hdkey.KeyVersion
}

var (
	Mainnet = Network{
		Name:     "mainnet",
		CoinType: hdkey.CoinTypeBitcoin,
		Params:   &chaincfg.MainNetParams,
		versions: [3]hdkey.KeyVersion{
			hdkey.VersionMainnetLegacy,
			hdkey.VersionMainnetWrappedSegwit,
			hdkey.VersionMainnetNativeSegwit,
		},
	}

	Testnet = Network{
		Name:     "testnet",
		CoinType: hdkey.CoinTypeTestnet,
		Params:   &chaincfg.TestNet3Params,
		versions: [3]hdkey.KeyVersion{
			hdkey.VersionTestnetLegacy,
			hdkey.VersionTestnetWrappedSegwit,
			hdkey.VersionTestnetNativeSegwit,
		},
	}
)

var networks = []Network{Mainnet, Testnet}

// NetworkByName resolves "mainnet" or "testnet" and common aliases.
func NetworkByName(name string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mainnet", "main", "bitcoin", "btc":
		return Mainnet, nil
	case "testnet", "testnet3", "test", "tbtc":
		return Testnet, nil
	}
	return Network{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
}

// Scheme returns the descriptor for kind on this network.
func (n Network) Scheme(kind SchemeKind) (Scheme, error) {
	entry, ok := schemeTable[kind]
	if !ok {
		return Scheme{}, fmt.Errorf("%w: %v", ErrUnsupportedScheme, kind)
	}
	return Scheme{
		Kind:       kind,
		Name:       entry.name,
		Purpose:    entry.purpose,
		Format:     entry.format,
		KeyVersion: n.versions[kind-1],
	}, nil
}

// Schemes returns descriptors for all three standards in derivation order.
func (n Network) Schemes() []Scheme {
	out := make([]Scheme, 0, len(AllSchemes))
	for _, kind := range AllSchemes {
		s, _ := n.Scheme(kind)
		out = append(out, s)
	}
	return out
}

func (n Network) String() string {
	return n.Name
}

// schemeForVersion finds the network and scheme an extended key version
// belongs to.
func schemeForVersion(v hdkey.KeyVersion) (Network, Scheme, error) {
	for _, n := range networks {
		for _, s := range n.Schemes() {
			if s.KeyVersion == v {
				return n, s, nil
			}
		}
	}
	return Network{}, Scheme{}, fmt.Errorf("%w: key version %s", ErrUnsupportedScheme, v)
}
