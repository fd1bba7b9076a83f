package hdkey

import "encoding/hex"

// KeyVersion is the pair of 4-byte prefixes used when serialising private and
// public extended keys of one scheme on one network.
type KeyVersion struct {
	Private [4]byte
	Public  [4]byte
}

var (
	// Mainnet: xprv/xpub (P2PKH), yprv/ypub (P2SH-P2WPKH), zprv/zpub (P2WPKH).
	VersionMainnetLegacy        = KeyVersion{Private: [4]byte{0x04, 0x88, 0xad, 0xe4}, Public: [4]byte{0x04, 0x88, 0xb2, 0x1e}}
	VersionMainnetWrappedSegwit = KeyVersion{Private: [4]byte{0x04, 0x9d, 0x78, 0x78}, Public: [4]byte{0x04, 0x9d, 0x7c, 0xb2}}
	VersionMainnetNativeSegwit  = KeyVersion{Private: [4]byte{0x04, 0xb2, 0x43, 0x0c}, Public: [4]byte{0x04, 0xb2, 0x47, 0x46}}

	// Testnet: tprv/tpub, uprv/upub, vprv/vpub.
	VersionTestnetLegacy        = KeyVersion{Private: [4]byte{0x04, 0x35, 0x83, 0x94}, Public: [4]byte{0x04, 0x35, 0x87, 0xcf}}
	VersionTestnetWrappedSegwit = KeyVersion{Private: [4]byte{0x04, 0x4a, 0x4e, 0x28}, Public: [4]byte{0x04, 0x4a, 0x52, 0x62}}
	VersionTestnetNativeSegwit  = KeyVersion{Private: [4]byte{0x04, 0x5f, 0x18, 0xbc}, Public: [4]byte{0x04, 0x5f, 0x1c, 0xf6}}
)

var knownVersions = [...]KeyVersion{
	VersionMainnetLegacy,
	VersionMainnetWrappedSegwit,
	VersionMainnetNativeSegwit,
	VersionTestnetLegacy,
	VersionTestnetWrappedSegwit,
	VersionTestnetNativeSegwit,
}

// LookupVersion finds the version pair a serialised prefix belongs to and
// whether it marks a private key.
func LookupVersion(prefix [4]byte) (KeyVersion, bool, bool) {
	for _, v := range knownVersions {
		switch prefix {
		case v.Private:
			return v, true, true
		case v.Public:
			return v, false, true
		}
	}
	return KeyVersion{}, false, false
}

func (v KeyVersion) String() string {
	return hex.EncodeToString(v.Private[:]) + "/" + hex.EncodeToString(v.Public[:])
}
