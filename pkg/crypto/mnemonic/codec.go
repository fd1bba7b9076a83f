package mnemonic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// bitsPerWord is the number of bits each BIP-39 word encodes.
const bitsPerWord = 11

var (
	ErrInvalidEntropyLength = errors.New("invalid entropy length")
	ErrInvalidWordCount     = errors.New("invalid word count")
	ErrUnknownWord          = errors.New("word not in wordlist")
	ErrChecksumMismatch     = errors.New("mnemonic checksum mismatch")
)

// Encode turns entropy into its checksummed word sequence. Entropy must be
// 16, 20, 24, 28 or 32 bytes.
func Encode(entropy []byte) ([]string, error) {
	if !validEntropyLength(len(entropy)) {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidEntropyLength, len(entropy))
	}

	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entropy: %w", err)
	}
	return strings.Fields(phrase), nil
}

// Decode maps words back to entropy and verifies the trailing checksum.
// Words must already be lowercase NFKD, one per element.
func Decode(words []string) ([]byte, error) {
	if !ValidateWordCount(len(words)) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWordCount, len(words))
	}
	for i, w := range words {
		if _, ok := bip39.GetWordIndex(w); !ok {
			return nil, fmt.Errorf("%w: %q at position %d", ErrUnknownWord, w, i+1)
		}
	}

	entropy, err := bip39.EntropyFromMnemonic(strings.Join(words, " "))
	switch {
	case errors.Is(err, bip39.ErrChecksumIncorrect):
		return nil, ErrChecksumMismatch
	case err != nil:
		return nil, fmt.Errorf("failed to decode mnemonic: %w", err)
	}
	return entropy, nil
}

func validEntropyLength(n int) bool {
	return n >= 16 && n <= 32 && n%4 == 0
}
