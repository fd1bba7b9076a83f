// Package address turns compressed secp256k1 public keys into Bitcoin
// addresses and parses addresses back into their hash payloads.
package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported address format")
	ErrInvalidPublicKey  = errors.New("invalid public key")
	ErrChecksumMismatch  = errors.New("address checksum mismatch")
	ErrNetworkMismatch   = errors.New("address belongs to a different network")
	ErrInvalidAddress    = errors.New("malformed address")
)

// Format selects the output script an address commits to.
type Format int

const (
	P2PKH Format = iota + 1
	P2SHP2WPKH
	P2WPKH
)

func (f Format) String() string {
	switch f {
	case P2PKH:
		return "p2pkh"
	case P2SHP2WPKH:
		return "p2sh-p2wpkh"
	case P2WPKH:
		return "p2wpkh"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat is the inverse of Format.String.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "p2pkh":
		return P2PKH, nil
	case "p2sh-p2wpkh":
		return P2SHP2WPKH, nil
	case "p2wpkh":
		return P2WPKH, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Encode renders the address of pubKey, a 33-byte compressed point, for
// params.
func Encode(pubKey []byte, format Format, params *chaincfg.Params) (string, error) {
	if len(pubKey) != secp256k1.PubKeyBytesLenCompressed {
		return "", fmt.Errorf("%w: %d bytes", ErrInvalidPublicKey, len(pubKey))
	}
	if _, err := secp256k1.ParsePubKey(pubKey); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	keyHash := btcutil.Hash160(pubKey)
	switch format {
	case P2PKH:
		return base58.CheckEncode(keyHash, params.PubKeyHashAddrID), nil

	case P2SHP2WPKH:
		script, err := RedeemScript(keyHash)
		if err != nil {
			return "", err
		}
		return base58.CheckEncode(btcutil.Hash160(script), params.ScriptHashAddrID), nil

	case P2WPKH:
		return encodeSegwit(params.Bech32HRPSegwit, 0, keyHash)
	}
	return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
}

// RedeemScript is the version 0 witness program OP_0 <keyHash> that a
// P2SH-P2WPKH address wraps.
func RedeemScript(keyHash []byte) ([]byte, error) {
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(keyHash).
		Script()
	if err != nil {
		return nil, fmt.Errorf("failed to build redeem script: %w", err)
	}
	return script, nil
}

func encodeSegwit(hrp string, version byte, program []byte) (string, error) {
	converted, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert witness program: %w", err)
	}
	addr, err := bech32.Encode(hrp, append([]byte{version}, converted...))
	if err != nil {
		return "", fmt.Errorf("failed to encode bech32 address: %w", err)
	}
	return addr, nil
}

// Decode parses addr for params and returns its format with the 20-byte
// hash it commits to. A P2SH address is reported as P2SHP2WPKH since the
// script behind the hash cannot be recovered.
func Decode(addr string, params *chaincfg.Params) (Format, []byte, error) {
	lower := strings.ToLower(addr)
	if strings.HasPrefix(lower, params.Bech32HRPSegwit+"1") {
		return decodeSegwit(addr, params.Bech32HRPSegwit)
	}
	for _, other := range knownNetworks {
		if other.Bech32HRPSegwit != params.Bech32HRPSegwit && strings.HasPrefix(lower, other.Bech32HRPSegwit+"1") {
			return 0, nil, fmt.Errorf("%w: %s address", ErrNetworkMismatch, other.Name)
		}
	}

	payload, version, err := base58.CheckDecode(addr)
	switch {
	case errors.Is(err, base58.ErrChecksum):
		return 0, nil, ErrChecksumMismatch
	case err != nil:
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	case len(payload) != 20:
		return 0, nil, fmt.Errorf("%w: %d byte payload", ErrInvalidAddress, len(payload))
	}

	switch version {
	case params.PubKeyHashAddrID:
		return P2PKH, payload, nil
	case params.ScriptHashAddrID:
		return P2SHP2WPKH, payload, nil
	}
	for _, other := range knownNetworks {
		if version == other.PubKeyHashAddrID || version == other.ScriptHashAddrID {
			return 0, nil, fmt.Errorf("%w: %s address", ErrNetworkMismatch, other.Name)
		}
	}
	return 0, nil, fmt.Errorf("%w: version byte 0x%02x", ErrUnsupportedFormat, version)
}

func decodeSegwit(addr, hrp string) (Format, []byte, error) {
	gotHRP, data, err := bech32.Decode(addr)
	if err != nil {
		var checksumErr bech32.ErrInvalidChecksum
		if errors.As(err, &checksumErr) {
			return 0, nil, ErrChecksumMismatch
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if gotHRP != hrp {
		return 0, nil, fmt.Errorf("%w: hrp %q", ErrNetworkMismatch, gotHRP)
	}
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("%w: empty witness data", ErrInvalidAddress)
	}
	if data[0] != 0 {
		return 0, nil, fmt.Errorf("%w: witness version %d", ErrUnsupportedFormat, data[0])
	}

	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(program) != 20 {
		return 0, nil, fmt.Errorf("%w: %d byte witness program", ErrUnsupportedFormat, len(program))
	}
	return P2WPKH, program, nil
}

var knownNetworks = []*chaincfg.Params{
	&chaincfg.MainNetParams,
	&chaincfg.TestNet3Params,
	&chaincfg.RegressionNetParams,
	&chaincfg.SigNetParams,
}
