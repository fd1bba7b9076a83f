package mnemonic

import (
	"fmt"
	"io"

	"github.com/Davincible/hdwallet/pkg/secure"
)

// Strength is the entropy size of a generated phrase in bits.
type Strength int

const (
	Strength128 Strength = 128
	Strength256 Strength = 256
)

func (s Strength) WordCount() int {
	bits := int(s)
	return (bits + bits/32) / bitsPerWord
}

// ParseStrength maps a word count of 12 or 24 to its strength.
func ParseStrength(wordCount int) (Strength, error) {
	switch wordCount {
	case 12:
		return Strength128, nil
	case 24:
		return Strength256, nil
	default:
		return 0, fmt.Errorf("%w: %d (want 12 or 24)", ErrInvalidWordCount, wordCount)
	}
}

// NewEntropy draws bits/8 bytes from the system CSPRNG.
func NewEntropy(bits int) ([]byte, error) {
	if err := checkEntropyBits(bits); err != nil {
		return nil, err
	}
	entropy, err := secure.SecureRandom(bits / 8)
	if err != nil {
		return nil, fmt.Errorf("failed to generate entropy: %w", err)
	}
	return entropy, nil
}

// NewEntropyFrom draws entropy from r. r must be safe for concurrent use if
// shared between goroutines; crypto/rand.Reader is.
func NewEntropyFrom(r io.Reader, bits int) ([]byte, error) {
	if err := checkEntropyBits(bits); err != nil {
		return nil, err
	}
	entropy, err := secure.ReadRandom(r, bits/8)
	if err != nil {
		return nil, fmt.Errorf("failed to generate entropy: %w", err)
	}
	return entropy, nil
}

func checkEntropyBits(bits int) error {
	if bits%8 != 0 || !validEntropyLength(bits/8) {
		return fmt.Errorf("%w: %d bits", ErrInvalidEntropyLength, bits)
	}
	return nil
}
