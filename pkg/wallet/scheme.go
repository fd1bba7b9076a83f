package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Davincible/hdwallet/pkg/crypto/address"
	"github.com/Davincible/hdwallet/pkg/crypto/hdkey"
)

var ErrUnsupportedScheme = errors.New("unsupported derivation scheme")

// SchemeKind names one of the three sibling derivation standards.
type SchemeKind int

const (
	Legacy SchemeKind = iota + 1
	WrappedSegwit
	NativeSegwit
)

// AllSchemes is the default derivation order.
var AllSchemes = []SchemeKind{Legacy, WrappedSegwit, NativeSegwit}

func (k SchemeKind) String() string {
	switch k {
	case Legacy:
		return "legacy"
	case WrappedSegwit:
		return "wrapped-segwit"
	case NativeSegwit:
		return "native-segwit"
	default:
		return fmt.Sprintf("scheme(%d)", int(k))
	}
}

func (k SchemeKind) Valid() bool {
	return k >= Legacy && k <= NativeSegwit
}

func (k SchemeKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedScheme, int(k))
	}
	return []byte(k.String()), nil
}

func (k *SchemeKind) UnmarshalText(text []byte) error {
	parsed, err := ParseSchemeKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseSchemeKind accepts the canonical names and the BIP numbers
// ("bip44", "44").
func ParseSchemeKind(s string) (SchemeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "legacy", "bip44", "44", "p2pkh":
		return Legacy, nil
	case "wrapped-segwit", "segwit", "bip49", "49", "p2sh-p2wpkh":
		return WrappedSegwit, nil
	case "native-segwit", "bech32", "bip84", "84", "p2wpkh":
		return NativeSegwit, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedScheme, s)
}

// ParseSchemeKinds parses a list of names, dropping duplicates.
func ParseSchemeKinds(names []string) ([]SchemeKind, error) {
	kinds := make([]SchemeKind, 0, len(names))
	seen := make(map[SchemeKind]bool, len(names))
	for _, name := range names {
		kind, err := ParseSchemeKind(name)
		if err != nil {
			return nil, err
		}
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}

// Scheme describes everything that differs between the three standards on
// one network. Derivation itself is shared.
type Scheme struct {
	Kind       SchemeKind
	Name       string
	Purpose    uint32
	Format     address.Format
	KeyVersion hdkey.KeyVersion
}

func (s Scheme) String() string {
	return s.Name
}

// AccountPath is m/purpose'/coin'/account'.
func (s Scheme) AccountPath(coinType, account uint32) hdkey.Path {
	return hdkey.Path{
		{Index: s.Purpose, Hardened: true},
		{Index: coinType, Hardened: true},
		{Index: account, Hardened: true},
	}
}

var schemeTable = map[SchemeKind]struct {
	name    string
	purpose uint32
	format  address.Format
}{
	Legacy:        {"BIP44", hdkey.PurposeBIP44, address.P2PKH},
	WrappedSegwit: {"BIP49", hdkey.PurposeBIP49, address.P2SHP2WPKH},
	NativeSegwit:  {"BIP84", hdkey.PurposeBIP84, address.P2WPKH},
}
