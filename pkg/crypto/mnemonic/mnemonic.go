package mnemonic

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/Davincible/hdwallet/pkg/secure"
)

const (
	MinEntropyBits = 128
	MaxEntropyBits = 256
)

// Mnemonic is a checksum-verified word sequence.
type Mnemonic struct {
	words []string
}

func NewMnemonic(entropyBits int) (*Mnemonic, error) {
	return NewMnemonicFrom(rand.Reader, entropyBits)
}

// NewMnemonicFrom generates a phrase from entropy drawn from r. The entropy is
// wiped once encoded.
func NewMnemonicFrom(r io.Reader, entropyBits int) (*Mnemonic, error) {
	if entropyBits < MinEntropyBits || entropyBits > MaxEntropyBits {
		return nil, fmt.Errorf("entropy bits must be between %d and %d", MinEntropyBits, MaxEntropyBits)
	}

	if entropyBits%32 != 0 {
		return nil, fmt.Errorf("entropy bits must be a multiple of 32")
	}

	entropy, err := NewEntropyFrom(r, entropyBits)
	if err != nil {
		return nil, err
	}
	defer secure.Zero(entropy)

	return FromEntropy(entropy)
}

// FromWords parses and validates a space separated phrase.
func FromWords(phrase string) (*Mnemonic, error) {
	words := strings.Fields(phrase)

	entropy, err := Decode(words)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic phrase: %w", err)
	}
	secure.Zero(entropy)

	return &Mnemonic{
		words: words,
	}, nil
}

func FromEntropy(entropy []byte) (*Mnemonic, error) {
	words, err := Encode(entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mnemonic from entropy: %w", err)
	}

	return &Mnemonic{
		words: words,
	}, nil
}

func (m *Mnemonic) Words() string {
	return strings.Join(m.words, " ")
}

func (m *Mnemonic) WordList() []string {
	result := make([]string, len(m.words))
	copy(result, m.words)
	return result
}

func (m *Mnemonic) WordCount() int {
	return len(m.words)
}

// Seed derives the 64-byte seed for the given passphrase.
func (m *Mnemonic) Seed(passphrase string) []byte {
	return NewSeed(m.Words(), passphrase)
}

func (m *Mnemonic) Entropy() ([]byte, error) {
	entropy, err := Decode(m.words)
	if err != nil {
		return nil, fmt.Errorf("failed to get entropy from mnemonic: %w", err)
	}
	return entropy, nil
}

// Validate reports whether words form a phrase with a correct checksum.
func Validate(words []string) bool {
	entropy, err := Decode(words)
	if err != nil {
		return false
	}
	secure.Zero(entropy)
	return true
}

func ValidateWordCount(count int) bool {
	switch count {
	case 12, 15, 18, 21, 24:
		return true
	}
	return false
}

func EntropyBitsFromWordCount(wordCount int) (int, error) {
	if !ValidateWordCount(wordCount) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWordCount, wordCount)
	}
	return wordCount * bitsPerWord * 32 / 33, nil
}

func SecureCompareWords(a, b string) bool {
	aWords := strings.Fields(a)
	bWords := strings.Fields(b)

	if len(aWords) != len(bWords) {
		return false
	}

	match := true
	for i := range aWords {
		if !secure.ConstantTimeCompare([]byte(aWords[i]), []byte(bWords[i])) {
			match = false
		}
	}

	return match
}
