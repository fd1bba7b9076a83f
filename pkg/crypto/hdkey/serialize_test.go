package hdkey

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTrip(t *testing.T) {
	versions := []struct {
		name       string
		version    KeyVersion
		privPrefix string
		pubPrefix  string
	}{
		{"mainnet legacy", VersionMainnetLegacy, "xprv", "xpub"},
		{"mainnet wrapped segwit", VersionMainnetWrappedSegwit, "yprv", "ypub"},
		{"mainnet native segwit", VersionMainnetNativeSegwit, "zprv", "zpub"},
		{"testnet legacy", VersionTestnetLegacy, "tprv", "tpub"},
		{"testnet wrapped segwit", VersionTestnetWrappedSegwit, "uprv", "upub"},
		{"testnet native segwit", VersionTestnetNativeSegwit, "vprv", "vpub"},
	}

	master := mustMaster(t, testSeed)
	account, err := master.DerivePath("m/84'/0'/0'")
	require.NoError(t, err)

	for _, tt := range versions {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []*ExtendedKey{master, account} {
				priv := k.WithVersion(tt.version)
				pub := priv.Neuter()

				privStr := priv.String()
				pubStr := pub.String()
				assert.Equal(t, tt.privPrefix, privStr[:4])
				assert.Equal(t, tt.pubPrefix, pubStr[:4])
				assert.Len(t, priv.Serialize(), SerializedKeyLen)
				assert.Len(t, pub.Serialize(), SerializedKeyLen)

				parsedPriv, err := ParseExtendedKey(privStr)
				require.NoError(t, err)
				assert.Equal(t, priv, parsedPriv)
				assert.True(t, parsedPriv.IsPrivate())

				parsedPub, err := ParseExtendedKey(pubStr)
				require.NoError(t, err)
				assert.Equal(t, pub, parsedPub)
				assert.False(t, parsedPub.IsPrivate())
			}
		})
	}
}

func TestParseExtendedKeyErrors(t *testing.T) {
	valid := mustMaster(t, testSeed).String()
	raw := base58.Decode(valid)

	t.Run("checksum mismatch", func(t *testing.T) {
		corrupt := append([]byte(nil), raw...)
		corrupt[len(corrupt)-1] ^= 0x01
		_, err := ParseExtendedKey(base58.Encode(corrupt))
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("payload bit flip", func(t *testing.T) {
		corrupt := append([]byte(nil), raw...)
		corrupt[20] ^= 0x10
		_, err := ParseExtendedKey(base58.Encode(corrupt))
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := ParseExtendedKey(valid[:len(valid)-5])
		assert.ErrorIs(t, err, ErrInvalidKeyLength)

		_, err = ParseExtendedKey("")
		assert.ErrorIs(t, err, ErrInvalidKeyLength)
	})

	t.Run("unknown version", func(t *testing.T) {
		payload := append([]byte(nil), raw[:SerializedKeyLen]...)
		copy(payload[:4], []byte{0xde, 0xad, 0xbe, 0xef})
		_, err := ParseExtendedKey(withChecksum(payload))
		assert.ErrorIs(t, err, ErrUnknownVersion)
	})

	t.Run("bad private padding", func(t *testing.T) {
		payload := append([]byte(nil), raw[:SerializedKeyLen]...)
		payload[45] = 0x01
		_, err := ParseExtendedKey(withChecksum(payload))
		assert.ErrorIs(t, err, ErrInvalidKeyData)
	})

	t.Run("private scalar out of range", func(t *testing.T) {
		payload := append([]byte(nil), raw[:SerializedKeyLen]...)
		for i := 46; i < SerializedKeyLen; i++ {
			payload[i] = 0xff
		}
		_, err := ParseExtendedKey(withChecksum(payload))
		assert.ErrorIs(t, err, ErrInvalidKeyData)
	})

	t.Run("root with parent fingerprint", func(t *testing.T) {
		payload := append([]byte(nil), raw[:SerializedKeyLen]...)
		payload[5] = 0x01
		_, err := ParseExtendedKey(withChecksum(payload))
		assert.ErrorIs(t, err, ErrInvalidKeyData)
	})

	t.Run("public key under private version", func(t *testing.T) {
		payload := mustMaster(t, testSeed).Neuter().Serialize()
		copy(payload[:4], VersionMainnetLegacy.Private[:])
		_, err := ParseExtendedKey(withChecksum(payload))
		assert.ErrorIs(t, err, ErrInvalidKeyData)
	})

	t.Run("invalid public point", func(t *testing.T) {
		payload := mustMaster(t, testSeed).Neuter().Serialize()
		payload[45] = 0x05
		_, err := ParseExtendedKey(withChecksum(payload))
		assert.ErrorIs(t, err, ErrInvalidKeyData)
	})
}

func TestDeserialize(t *testing.T) {
	_, err := Deserialize(make([]byte, SerializedKeyLen-1))
	assert.ErrorIs(t, err, ErrInvalidKeyLength)

	master := mustMaster(t, testSeed)
	parsed, err := Deserialize(master.Serialize())
	require.NoError(t, err)
	assert.Equal(t, master, parsed)
}

func TestLookupVersion(t *testing.T) {
	v, private, ok := LookupVersion(VersionMainnetNativeSegwit.Private)
	assert.True(t, ok)
	assert.True(t, private)
	assert.Equal(t, VersionMainnetNativeSegwit, v)

	v, private, ok = LookupVersion(VersionTestnetLegacy.Public)
	assert.True(t, ok)
	assert.False(t, private)
	assert.Equal(t, VersionTestnetLegacy, v)

	_, _, ok = LookupVersion([4]byte{1, 2, 3, 4})
	assert.False(t, ok)

	assert.Equal(t, "0488ade4/0488b21e", VersionMainnetLegacy.String())
}

func TestParsedPublicKeyDerives(t *testing.T) {
	master := mustMaster(t, testSeed)
	account, err := master.DerivePath("m/44'/0'/0'")
	require.NoError(t, err)

	parsed, err := ParseExtendedKey(account.Neuter().String())
	require.NoError(t, err)

	fromParsed, err := parsed.DeriveAddress(ExternalChain, 3)
	require.NoError(t, err)
	fromPrivate, err := account.DeriveAddress(ExternalChain, 3)
	require.NoError(t, err)
	assert.Equal(t, fromPrivate.PublicKey(), fromParsed.PublicKey())
}

func withChecksum(payload []byte) string {
	return base58.Encode(append(payload, chainhash.DoubleHashB(payload)[:4]...))
}
