package hdkey

import (
	"encoding/hex"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip32"
)

const (
	vector1Seed = "000102030405060708090a0b0c0d0e0f"
	testSeed    = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

func mustMaster(t testing.TB, seedHex string) *ExtendedKey {
	seed, err := hex.DecodeString(seedHex)
	require.NoError(t, err)

	master, err := NewMasterKey(seed, VersionMainnetLegacy)
	require.NoError(t, err)
	return master
}

func TestNewMasterKey(t *testing.T) {
	master := mustMaster(t, vector1Seed)
	assert.True(t, master.IsPrivate())
	assert.Equal(t, uint8(0), master.Depth())
	assert.Equal(t, uint32(0), master.ChildIndex())
	assert.Equal(t, []byte{0, 0, 0, 0}, master.ParentFingerprint())

	assert.Equal(t, "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi", master.String())
	assert.Equal(t, "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8", master.Neuter().String())

	_, err := NewMasterKey([]byte("too short"), VersionMainnetLegacy)
	assert.ErrorIs(t, err, ErrInvalidSeedLength)

	_, err = NewMasterKey(make([]byte, 65), VersionMainnetLegacy)
	assert.ErrorIs(t, err, ErrInvalidSeedLength)
}

func TestVector1Chain(t *testing.T) {
	master := mustMaster(t, vector1Seed)

	child, err := master.DerivePath("m/0'")
	require.NoError(t, err)
	assert.Equal(t, "xprv9uHRZZhk6KAJC1avXpDAp4MDc3sQKNxDiPvvkX8Br5ngLNv1TxvUxt4cV1rGL5hj6KCesnDYUhd7oWgT11eZG7XnxHrnYeSvkzY7d2bhkJ7", child.String())
	assert.Equal(t, "xpub68Gmy5EdvgibQVfPdqkBBCHxA5htiqg55crXYuXoQRKfDBFA1WEjWgP6LHhwBZeNK1VTsfTFUHCdrfp1bgwQ9xv5ski8PX9rL2dZXvgGDnw", child.Neuter().String())

	grandchild, err := child.Child(1, false)
	require.NoError(t, err)
	assert.Equal(t, "xprv9wTYmMFdV23N2TdNG573QoEsfRrWKQgWeibmLntzniatZvR9BmLnvSxqu53Kw1UmYPxLgboyZQaXwTCg8MSY3H2EU4pWcQDnRnrVA1xe8fs", grandchild.String())
	assert.Equal(t, "xpub6ASuArnXKPbfEwhqN6e3mwBcDTgzisQN1wXN9BJcM47sSikHjJf3UFHKkNAWbWMiGj7Wf5uMash7SyYq527Hqck2AxYysAA7xmALppuCkwQ", grandchild.Neuter().String())

	fromPublic, err := child.Neuter().Child(1, false)
	require.NoError(t, err)
	assert.Equal(t, grandchild.Neuter().String(), fromPublic.String())
}

func TestMatchesReferenceImplementation(t *testing.T) {
	seed, err := hex.DecodeString(testSeed)
	require.NoError(t, err)

	ours, err := NewMasterKey(seed, VersionMainnetLegacy)
	require.NoError(t, err)
	ref, err := bip32.NewMasterKey(seed)
	require.NoError(t, err)

	indices := []uint32{
		bip32.FirstHardenedChild + 84,
		bip32.FirstHardenedChild,
		bip32.FirstHardenedChild + 3,
		1,
		42,
	}
	for _, idx := range indices {
		ref, err = ref.NewChildKey(idx)
		require.NoError(t, err)

		hardened := idx >= HardenedKeyOffset
		ours, err = ours.Child(idx&^HardenedKeyOffset, hardened)
		require.NoError(t, err)

		assert.Equal(t, ref.String(), ours.String())
		assert.Equal(t, ref.PublicKey().String(), ours.Neuter().String())
	}

	refPub, err := ref.PublicKey().NewChildKey(7)
	require.NoError(t, err)
	oursPub, err := ours.Neuter().Child(7, false)
	require.NoError(t, err)
	assert.Equal(t, refPub.String(), oursPub.String())
}

func TestChildIndexValidation(t *testing.T) {
	master := mustMaster(t, testSeed)

	_, err := master.Child(HardenedKeyOffset, false)
	assert.ErrorIs(t, err, ErrInvalidIndex)

	_, err = master.Child(HardenedKeyOffset+5, true)
	assert.ErrorIs(t, err, ErrInvalidIndex)

	hardened, err := master.Child(5, true)
	require.NoError(t, err)
	assert.Equal(t, HardenedKeyOffset+5, hardened.ChildIndex())
	assert.True(t, hardened.IsHardened())

	normal, err := master.Child(5, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), normal.ChildIndex())
	assert.False(t, normal.IsHardened())
	assert.NotEqual(t, hardened.PublicKey(), normal.PublicKey())
}

func TestHardenedFromPublicFails(t *testing.T) {
	pub := mustMaster(t, testSeed).Neuter()
	assert.False(t, pub.IsPrivate())
	assert.Nil(t, pub.PrivateKey())

	child, err := pub.Child(0, true)
	assert.ErrorIs(t, err, ErrHardenedFromPublic)
	assert.Nil(t, child)

	_, err = pub.DerivePath("m/44'/0'")
	assert.ErrorIs(t, err, ErrHardenedFromPublic)
}

func TestPublicDerivationCommutes(t *testing.T) {
	master := mustMaster(t, testSeed)
	account, err := master.DeriveAccount(PurposeBIP84, CoinTypeBitcoin, 0)
	require.NoError(t, err)

	accountPub := account.Neuter()
	for change := uint32(0); change <= 1; change++ {
		for i := uint32(0); i < 10; i++ {
			priv, err := account.DeriveAddress(change, i)
			require.NoError(t, err)
			pub, err := accountPub.DeriveAddress(change, i)
			require.NoError(t, err)

			assert.Equal(t, priv.PublicKey(), pub.PublicKey())
			assert.Equal(t, priv.ChainCode(), pub.ChainCode())
			assert.Equal(t, priv.Neuter(), pub)
		}
	}
}

func TestRetrySkipsInvalidIndex(t *testing.T) {
	master := mustMaster(t, testSeed)

	var tried []uint32
	step := func(i uint32) (*ExtendedKey, error) {
		tried = append(tried, i)
		if len(tried) < 3 {
			return nil, hdkeychain.ErrInvalidChild
		}
		return master.deriveChild(i)
	}

	child, err := master.childWithRetry(10, true, step)
	require.NoError(t, err)
	assert.Equal(t, []uint32{HardenedKeyOffset + 10, HardenedKeyOffset + 11, HardenedKeyOffset + 12}, tried)
	assert.Equal(t, HardenedKeyOffset+12, child.ChildIndex())

	expected, err := master.Child(12, true)
	require.NoError(t, err)
	assert.Equal(t, expected, child)
}

func TestRetryExhausted(t *testing.T) {
	master := mustMaster(t, testSeed)

	calls := 0
	alwaysInvalid := func(uint32) (*ExtendedKey, error) {
		calls++
		return nil, hdkeychain.ErrInvalidChild
	}

	_, err := master.childWithRetry(0, false, alwaysInvalid)
	assert.ErrorIs(t, err, ErrKeyDerivationRetryExhausted)
	assert.Equal(t, MaxDerivationAttempts, calls)

	calls = 0
	_, err = master.childWithRetry(HardenedKeyOffset-2, false, alwaysInvalid)
	assert.ErrorIs(t, err, ErrKeyDerivationRetryExhausted)
	assert.Equal(t, 2, calls, "retries must not spill into the hardened range")
}

func TestKeyProperties(t *testing.T) {
	master := mustMaster(t, testSeed)

	derivedKey, err := master.DerivePath("m/44'/0'/0'/0/0")
	require.NoError(t, err)

	assert.Len(t, derivedKey.PublicKey(), 33)
	assert.Len(t, derivedKey.PublicKeyHex(), 66)
	assert.Len(t, derivedKey.PrivateKey(), 32)
	assert.Len(t, derivedKey.PrivateKeyHex(), 64)
	assert.Len(t, derivedKey.Fingerprint(), 4)
	assert.Len(t, derivedKey.ChainCode(), 32)
	assert.Equal(t, uint8(5), derivedKey.Depth())

	decodedPubKey, err := hex.DecodeString(derivedKey.PublicKeyHex())
	require.NoError(t, err)
	assert.Equal(t, derivedKey.PublicKey(), decodedPubKey)

	parent, err := master.DerivePath("m/44'/0'/0'/0")
	require.NoError(t, err)
	assert.Equal(t, parent.Fingerprint(), derivedKey.ParentFingerprint())
}

func TestAccessorsReturnCopies(t *testing.T) {
	master := mustMaster(t, testSeed)

	pub := master.PublicKey()
	pub[0] ^= 0xff
	assert.NotEqual(t, pub, master.PublicKey())

	priv := master.PrivateKey()
	priv[0] ^= 0xff
	assert.NotEqual(t, priv, master.PrivateKey())

	cc := master.ChainCode()
	cc[0] ^= 0xff
	assert.NotEqual(t, cc, master.ChainCode())
}

func TestZero(t *testing.T) {
	master := mustMaster(t, testSeed)

	master.Zero()
	assert.False(t, master.IsPrivate())
	assert.Nil(t, master.PrivateKey())
	assert.Equal(t, make([]byte, 32), master.ChainCode())
	assert.Equal(t, make([]byte, 33), master.PublicKey())
	assert.Equal(t, "zeroed extended key", master.String())
}

func TestCopiesSurviveZero(t *testing.T) {
	master := mustMaster(t, testSeed)
	want := master.String()

	z := master.WithVersion(VersionMainnetNativeSegwit)
	pub := master.Neuter()
	z.Zero()
	pub.Zero()
	assert.Equal(t, want, master.String())

	copied := master.WithVersion(VersionMainnetLegacy)
	master.Zero()
	assert.Equal(t, want, copied.String())

	_, err := copied.Child(0, true)
	assert.NoError(t, err)
}

func TestConcurrentChildSharedParent(t *testing.T) {
	account, err := mustMaster(t, testSeed).DeriveAccount(PurposeBIP84, CoinTypeBitcoin, 0)
	require.NoError(t, err)
	chain, err := account.Child(ExternalChain, false)
	require.NoError(t, err)

	const n = 32
	got := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			child, err := chain.Child(uint32(i), false)
			if err == nil {
				got[i] = child.PublicKeyHex()
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		child, err := chain.Child(uint32(i), false)
		require.NoError(t, err)
		assert.Equal(t, child.PublicKeyHex(), got[i], "index %d", i)
	}
}

func TestAgreesWithHdkeychain(t *testing.T) {
	seed, err := hex.DecodeString(testSeed)
	require.NoError(t, err)

	ours := mustMaster(t, testSeed)
	ref, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	require.NoError(t, err)

	for _, idx := range []uint32{HardenedKeyOffset + 44, HardenedKeyOffset, HardenedKeyOffset, 0, 9} {
		ref, err = ref.Derive(idx)
		require.NoError(t, err)
		ours, err = ours.Child(idx&^HardenedKeyOffset, idx >= HardenedKeyOffset)
		require.NoError(t, err)

		assert.Equal(t, ref.String(), ours.String())
		refPub, err := ref.Neuter()
		require.NoError(t, err)
		assert.Equal(t, refPub.String(), ours.Neuter().String())
	}
}

func TestWithVersion(t *testing.T) {
	master := mustMaster(t, testSeed)
	z := master.WithVersion(VersionMainnetNativeSegwit)

	assert.Equal(t, VersionMainnetNativeSegwit, z.Version())
	assert.Equal(t, VersionMainnetLegacy, master.Version())
	assert.Equal(t, "zprv", z.String()[:4])
	assert.Equal(t, "zpub", z.Neuter().String()[:4])
	assert.Equal(t, master.PublicKey(), z.PublicKey())
}

func TestKeyConsistency(t *testing.T) {
	masterKey1 := mustMaster(t, testSeed)
	masterKey2 := mustMaster(t, testSeed)
	assert.Equal(t, masterKey1, masterKey2)

	path := "m/44'/0'/0'/0/0"
	derived1, err := masterKey1.DerivePath(path)
	require.NoError(t, err)
	derived2, err := masterKey2.DerivePath(path)
	require.NoError(t, err)

	assert.Equal(t, derived1.PublicKeyHex(), derived2.PublicKeyHex())
	assert.Equal(t, derived1.PrivateKeyHex(), derived2.PrivateKeyHex())
}

func BenchmarkDerivePath(b *testing.B) {
	masterKey := mustMaster(b, testSeed)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = masterKey.DerivePath("m/44'/0'/0'/0/0")
	}
}

func BenchmarkPublicChild(b *testing.B) {
	pub := mustMaster(b, testSeed).Neuter()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pub.Child(uint32(i)%1000, false)
	}
}
