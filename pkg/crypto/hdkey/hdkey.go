package hdkey

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

const (
	HardenedKeyOffset = uint32(hdkeychain.HardenedKeyStart)

	PurposeBIP44 = uint32(44)
	PurposeBIP49 = uint32(49)
	PurposeBIP84 = uint32(84)

	CoinTypeBitcoin = uint32(0)
	CoinTypeTestnet = uint32(1)

	ExternalChain = uint32(0)
	InternalChain = uint32(1)

	MinSeedBytes = hdkeychain.MinSeedBytes
	MaxSeedBytes = hdkeychain.MaxSeedBytes

	// MaxDerivationAttempts bounds how many consecutive indices are tried when
	// a child scalar or point is invalid. Each skip has probability < 2^-127.
	MaxDerivationAttempts = 8
)

var (
	ErrInvalidSeedLength           = errors.New("seed length out of range")
	ErrInvalidMasterKey            = errors.New("seed produced an invalid master key")
	ErrInvalidIndex                = errors.New("child index out of range")
	ErrHardenedFromPublic          = errors.New("cannot derive a hardened child from a public key")
	ErrMaxDepth                    = errors.New("maximum derivation depth reached")
	ErrKeyDerivationRetryExhausted = errors.New("key derivation retries exhausted")
	ErrNotPrivate                  = errors.New("extended key holds no private key")
)

// ExtendedKey is a node of the BIP-32 tree. It wraps an hdkeychain key and
// carries the version pair it serialises under, so that one node can be
// rendered as xprv/xpub, yprv/ypub or zprv/zpub. Values are never modified
// after construction except by Zero.
type ExtendedKey struct {
	key     *hdkeychain.ExtendedKey
	version KeyVersion
	pubKey  []byte
}

// wrap takes ownership of k. Private keys are rebuilt with a full 32-byte
// scalar in freshly allocated buffers, since hdkeychain strips leading zero
// bytes from derived scalars and parsed keys alias the decode buffer.
func wrap(k *hdkeychain.ExtendedKey, version KeyVersion) (*ExtendedKey, error) {
	pub, err := k.ECPubKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyData, err)
	}

	if k.IsPrivate() {
		priv, err := k.ECPrivKey()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKeyData, err)
		}
		scalar := priv.Serialize()
		priv.Zero()

		parentFP := binary.BigEndian.AppendUint32(nil, k.ParentFingerprint())
		rebuilt := newInner(k.Version(), scalar, k.ChainCode(), parentFP, k.Depth(), k.ChildIndex(), true)
		k.Zero()
		k = rebuilt
	}

	return &ExtendedKey{key: k, version: version, pubKey: pub.SerializeCompressed()}, nil
}

// newInner builds an hdkeychain key over copies of its inputs. The public
// key is memoised before the key is shared, so concurrent Child calls on one
// parent only read it.
func newInner(version, key, chainCode, parentFP []byte, depth uint8, index uint32, private bool) *hdkeychain.ExtendedKey {
	inner := hdkeychain.NewExtendedKey(
		append([]byte(nil), version...),
		append([]byte(nil), key...),
		append([]byte(nil), chainCode...),
		append([]byte(nil), parentFP...),
		depth,
		index,
		private,
	)
	_, _ = inner.ECPubKey()
	return inner
}

// NewMasterKey derives the root of the tree from a 16 to 64 byte seed.
func NewMasterKey(seed []byte, version KeyVersion) (*ExtendedKey, error) {
	if len(seed) < MinSeedBytes || len(seed) > MaxSeedBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSeedLength, len(seed))
	}

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	switch {
	case errors.Is(err, hdkeychain.ErrUnusableSeed):
		return nil, ErrInvalidMasterKey
	case err != nil:
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	versioned, err := master.CloneWithVersion(version.Private[:])
	if err != nil {
		return nil, err
	}
	return wrap(versioned, version)
}

// Child derives the child at index, which must be below 2^31; the hardened
// flag selects the hardened range. If the index yields an invalid key the
// next index is used, so the returned key's ChildIndex can exceed the one
// requested.
func (k *ExtendedKey) Child(index uint32, hardened bool) (*ExtendedKey, error) {
	if index >= HardenedKeyOffset {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	if hardened && !k.IsPrivate() {
		return nil, ErrHardenedFromPublic
	}
	if k.Depth() == math.MaxUint8 {
		return nil, ErrMaxDepth
	}
	return k.childWithRetry(index, hardened, k.deriveChild)
}

func (k *ExtendedKey) childWithRetry(index uint32, hardened bool, step func(uint32) (*ExtendedKey, error)) (*ExtendedKey, error) {
	start := index
	for attempt := 0; attempt < MaxDerivationAttempts && index < HardenedKeyOffset; attempt++ {
		i := index
		if hardened {
			i += HardenedKeyOffset
		}

		child, err := step(i)
		if !errors.Is(err, hdkeychain.ErrInvalidChild) {
			return child, err
		}
		index++
	}
	return nil, fmt.Errorf("%w: from index %d", ErrKeyDerivationRetryExhausted, start)
}

// deriveChild performs one CKDpriv or CKDpub step for the raw index i.
func (k *ExtendedKey) deriveChild(i uint32) (*ExtendedKey, error) {
	child, err := k.key.Derive(i)
	switch {
	case errors.Is(err, hdkeychain.ErrInvalidChild):
		return nil, err
	case errors.Is(err, hdkeychain.ErrDeriveHardFromPublic):
		return nil, ErrHardenedFromPublic
	case errors.Is(err, hdkeychain.ErrDeriveBeyondMaxDepth):
		return nil, ErrMaxDepth
	case err != nil:
		return nil, fmt.Errorf("failed to derive child %d: %w", i, err)
	}
	return wrap(child, k.version)
}

// clone copies every field of k into a fresh hdkeychain key, so that zeroing
// one never wipes the other.
func (k *ExtendedKey) clone(version KeyVersion, private bool) *ExtendedKey {
	keyData, versionBytes := k.pubKey, version.Public
	if private {
		keyData, versionBytes = k.PrivateKey(), version.Private
	}

	inner := newInner(versionBytes[:], keyData, k.ChainCode(), k.ParentFingerprint(), k.Depth(), k.ChildIndex(), private)
	if private {
		clear(keyData)
	}
	return &ExtendedKey{key: inner, version: version, pubKey: append([]byte(nil), k.pubKey...)}
}

// Neuter returns the public-only projection of k.
func (k *ExtendedKey) Neuter() *ExtendedKey {
	return k.clone(k.version, false)
}

// WithVersion returns a copy of k that serialises under version v.
func (k *ExtendedKey) WithVersion(v KeyVersion) *ExtendedKey {
	return k.clone(v, k.IsPrivate())
}

// Zero wipes the private scalar and chain code. The key must not be used
// afterwards.
func (k *ExtendedKey) Zero() {
	k.key.Zero()
	clear(k.pubKey)
}

func (k *ExtendedKey) PublicKey() []byte {
	return append([]byte(nil), k.pubKey...)
}

func (k *ExtendedKey) PublicKeyHex() string {
	return hex.EncodeToString(k.pubKey)
}

// PrivateKey returns the 32-byte scalar, or nil for a public-only key.
func (k *ExtendedKey) PrivateKey() []byte {
	priv, err := k.key.ECPrivKey()
	if err != nil {
		return nil
	}
	defer priv.Zero()
	return priv.Serialize()
}

func (k *ExtendedKey) PrivateKeyHex() string {
	return hex.EncodeToString(k.PrivateKey())
}

// Fingerprint is the first four bytes of HASH160 of the public key.
func (k *ExtendedKey) Fingerprint() []byte {
	return btcutil.Hash160(k.pubKey)[:4]
}

func (k *ExtendedKey) ParentFingerprint() []byte {
	return binary.BigEndian.AppendUint32(nil, k.key.ParentFingerprint())
}

func (k *ExtendedKey) ChainCode() []byte {
	return k.key.ChainCode()
}

func (k *ExtendedKey) Depth() uint8 {
	return k.key.Depth()
}

// ChildIndex is the raw index including the hardened offset.
func (k *ExtendedKey) ChildIndex() uint32 {
	return k.key.ChildIndex()
}

func (k *ExtendedKey) IsHardened() bool {
	return k.ChildIndex() >= HardenedKeyOffset
}

func (k *ExtendedKey) Version() KeyVersion {
	return k.version
}

func (k *ExtendedKey) IsPrivate() bool {
	return k.key.IsPrivate()
}
