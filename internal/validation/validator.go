package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Davincible/hdwallet/pkg/crypto/hdkey"
	"github.com/Davincible/hdwallet/pkg/crypto/mnemonic"
	"github.com/Davincible/hdwallet/pkg/wallet"
)

var (
	hexPattern  = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	pathPattern = regexp.MustCompile(`^[mM](/\d+['hH]?)*$`)
)

// Extended key prefixes accepted by watch-only derivation.
var extendedKeyPrefixes = []string{
	"xpub", "ypub", "zpub", "tpub", "upub", "vpub",
	"xprv", "yprv", "zprv", "tprv", "uprv", "vprv",
}

func ValidateHex(input string) error {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return fmt.Errorf("hex string cannot be empty")
	}

	if len(input)%2 != 0 {
		return fmt.Errorf("hex string must have even length")
	}

	if !hexPattern.MatchString(input) {
		return fmt.Errorf("invalid hex characters")
	}

	return nil
}

// ValidateSeedHex checks a hex encoded seed of 16 to 64 bytes.
func ValidateSeedHex(input string) error {
	if err := ValidateHex(input); err != nil {
		return fmt.Errorf("invalid seed: %w", err)
	}

	n := len(strings.TrimSpace(input)) / 2
	if n < hdkey.MinSeedBytes || n > hdkey.MaxSeedBytes {
		return fmt.Errorf("seed must be %d to %d bytes (got %d)", hdkey.MinSeedBytes, hdkey.MaxSeedBytes, n)
	}

	return nil
}

// ValidateMnemonic checks the shape of a phrase. Word membership and the
// checksum are left to the mnemonic package.
func ValidateMnemonic(words string) error {
	words = strings.TrimSpace(words)
	if words == "" {
		return fmt.Errorf("mnemonic cannot be empty")
	}

	wordList := strings.Fields(words)
	wordCount := len(wordList)

	if !mnemonic.ValidateWordCount(wordCount) {
		return fmt.Errorf("mnemonic must have 12, 15, 18, 21, or 24 words (got %d)", wordCount)
	}

	for i, word := range wordList {
		if len(word) < 3 || len(word) > 8 {
			return fmt.Errorf("word %d has invalid length: %s", i+1, word)
		}

		for _, ch := range word {
			if ch < 'a' || ch > 'z' {
				return fmt.Errorf("word %d contains invalid characters: %s", i+1, word)
			}
		}
	}

	return nil
}

func ValidateDerivationPath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("derivation path cannot be empty")
	}

	if !pathPattern.MatchString(path) {
		return fmt.Errorf("invalid derivation path format")
	}

	if _, err := hdkey.ParsePath(path); err != nil {
		return err
	}

	return nil
}

func ValidatePassphrase(passphrase string) error {
	if len(passphrase) > 256 {
		return fmt.Errorf("passphrase too long (max 256 characters)")
	}

	if !utf8.ValidString(passphrase) {
		return fmt.Errorf("passphrase contains invalid UTF-8")
	}

	for i, ch := range passphrase {
		if ch == 0 {
			return fmt.Errorf("passphrase contains null character at position %d", i)
		}
	}

	return nil
}

func ValidateAddressCount(count int) error {
	if count < 1 || count > wallet.MaxAddressCount {
		return fmt.Errorf("address count must be between 1 and %d (got %d)", wallet.MaxAddressCount, count)
	}
	return nil
}

func ValidateIndex(name string, index int) error {
	if index < 0 || uint64(index) >= uint64(hdkey.HardenedKeyOffset) {
		return fmt.Errorf("%s must be between 0 and %d (got %d)", name, hdkey.HardenedKeyOffset-1, index)
	}
	return nil
}

// ValidateExtendedKey checks the prefix and rough length of a serialised
// extended key before it is decoded.
func ValidateExtendedKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("extended key cannot be empty")
	}

	known := false
	for _, prefix := range extendedKeyPrefixes {
		if strings.HasPrefix(key, prefix) {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unrecognised extended key prefix %q", truncate(key, 4))
	}

	if len(key) < 100 || len(key) > 115 {
		return fmt.Errorf("extended key has invalid length %d", len(key))
	}

	return nil
}

// NormalizeMnemonic lowercases a phrase and collapses whitespace.
func NormalizeMnemonic(input string) string {
	return strings.Join(strings.Fields(strings.ToLower(input)), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
