package hdkey

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// SerializedKeyLen is version(4) || depth(1) || fingerprint(4) || index(4) ||
// chain code(32) || key(33).
const SerializedKeyLen = 78

var (
	ErrChecksumMismatch = errors.New("extended key checksum mismatch")
	ErrInvalidKeyLength = errors.New("extended key has invalid length")
	ErrUnknownVersion   = errors.New("unknown extended key version")
	ErrInvalidKeyData   = errors.New("extended key holds invalid key data")
)

// Serialize returns the 78-byte BIP-32 encoding. Private keys are written
// under the private version with a leading zero byte.
func (k *ExtendedKey) Serialize() []byte {
	raw := base58.Decode(k.String())
	if len(raw) != SerializedKeyLen+4 {
		return nil
	}
	return raw[:SerializedKeyLen]
}

// String is the Base58Check form (xprv..., zpub..., etc).
func (k *ExtendedKey) String() string {
	return k.key.String()
}

// ParseExtendedKey decodes a Base58Check extended key under any known
// version.
func ParseExtendedKey(s string) (*ExtendedKey, error) {
	parsed, err := hdkeychain.NewKeyFromString(s)
	switch {
	case errors.Is(err, hdkeychain.ErrInvalidKeyLen):
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKeyLength, len(base58.Decode(s)))
	case errors.Is(err, hdkeychain.ErrBadChecksum):
		return nil, ErrChecksumMismatch
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyData, err)
	}

	var prefix [4]byte
	copy(prefix[:], parsed.Version())
	version, private, ok := LookupVersion(prefix)
	if !ok {
		return nil, fmt.Errorf("%w: %x", ErrUnknownVersion, prefix)
	}
	// hdkeychain tells the kinds apart by the key's padding byte alone.
	if private != parsed.IsPrivate() {
		return nil, fmt.Errorf("%w: key kind does not match version %x", ErrInvalidKeyData, prefix)
	}
	if parsed.Depth() == 0 && (parsed.ChildIndex() != 0 || parsed.ParentFingerprint() != 0) {
		return nil, fmt.Errorf("%w: root key with parent data", ErrInvalidKeyData)
	}

	return wrap(parsed, version)
}

// Deserialize decodes the raw 78-byte form.
func Deserialize(payload []byte) (*ExtendedKey, error) {
	if len(payload) != SerializedKeyLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKeyLength, len(payload))
	}
	checksum := chainhash.DoubleHashB(payload)[:4]
	return ParseExtendedKey(base58.Encode(append(append([]byte(nil), payload...), checksum...)))
}
