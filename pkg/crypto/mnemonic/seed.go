package mnemonic

import (
	"crypto/sha512"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"
)

const (
	SeedSize       = 64
	SeedIterations = 2048

	saltPrefix = "mnemonic"
)

// NewSeed stretches a phrase and optional passphrase into the 64-byte BIP-39
// seed. The phrase checksum is not checked here; callers that need a valid
// phrase call Validate or Decode first.
func NewSeed(phrase, passphrase string) []byte {
	return DeriveKey(phrase, passphrase, SeedIterations)
}

// DeriveKey runs the seed KDF with a custom iteration count. Non-positive
// counts fall back to SeedIterations.
func DeriveKey(phrase, passphrase string, iterations int) []byte {
	if iterations <= 0 {
		iterations = SeedIterations
	}
	password := []byte(norm.NFKD.String(phrase))
	salt := []byte(saltPrefix + norm.NFKD.String(passphrase))
	return pbkdf2.Key(password, salt, iterations, SeedSize, sha512.New)
}
