package hdkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidPath = errors.New("invalid derivation path")

// Segment is one step of a derivation path. Index excludes the hardened
// offset.
type Segment struct {
	Index    uint32
	Hardened bool
}

func (s Segment) String() string {
	if s.Hardened {
		return strconv.FormatUint(uint64(s.Index), 10) + "'"
	}
	return strconv.FormatUint(uint64(s.Index), 10)
}

type Path []Segment

func (p Path) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, s := range p {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

// ParsePath accepts "m", "m/44'/0'/0'/0/1" and the "h"/"H" hardened suffixes.
func ParsePath(path string) (Path, error) {
	path = strings.TrimSpace(path)
	if path == "m" || path == "M" {
		return Path{}, nil
	}
	if !strings.HasPrefix(path, "m/") && !strings.HasPrefix(path, "M/") {
		return nil, fmt.Errorf("%w: path must start with 'm/' or 'M/'", ErrInvalidPath)
	}

	parts := strings.Split(path, "/")[1:]
	segments := make(Path, 0, len(parts))
	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func parseSegment(s string) (Segment, error) {
	if s == "" {
		return Segment{}, fmt.Errorf("%w: empty segment", ErrInvalidPath)
	}

	hardened := strings.HasSuffix(s, "'") || strings.HasSuffix(s, "h") || strings.HasSuffix(s, "H")
	if hardened {
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return Segment{}, fmt.Errorf("%w: invalid segment '%s'", ErrInvalidPath, s)
	}
	if uint32(value) >= HardenedKeyOffset {
		return Segment{}, fmt.Errorf("%w: %d", ErrInvalidIndex, value)
	}
	return Segment{Index: uint32(value), Hardened: hardened}, nil
}

// DerivePath walks path from k. k is normally the master key.
func (k *ExtendedKey) DerivePath(path string) (*ExtendedKey, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return k.DeriveSegments(segments)
}

func (k *ExtendedKey) DeriveSegments(segments Path) (*ExtendedKey, error) {
	current := k
	for _, seg := range segments {
		child, err := current.Child(seg.Index, seg.Hardened)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child key at %s: %w", seg, err)
		}
		current = child
	}
	return current, nil
}

// DerivePublicPath walks a relative, non-hardened path such as "0/5" from k
// without touching private material. It works on public-only keys.
func (k *ExtendedKey) DerivePublicPath(path string) (*ExtendedKey, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return k.Neuter(), nil
	}

	current := k.Neuter()
	for _, part := range strings.Split(path, "/") {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, err
		}
		if seg.Hardened {
			return nil, fmt.Errorf("%w: segment %s", ErrHardenedFromPublic, seg)
		}
		current, err = current.Child(seg.Index, false)
		if err != nil {
			return nil, fmt.Errorf("failed to derive public child %d: %w", seg.Index, err)
		}
	}
	return current, nil
}

func (k *ExtendedKey) DeriveAccount(purpose, coinType, account uint32) (*ExtendedKey, error) {
	return k.DeriveSegments(Path{
		{Index: purpose, Hardened: true},
		{Index: coinType, Hardened: true},
		{Index: account, Hardened: true},
	})
}

// DeriveAddress derives change/index below an account key. Both steps are
// non-hardened, so k may be public-only.
func (k *ExtendedKey) DeriveAddress(change, index uint32) (*ExtendedKey, error) {
	changeKey, err := k.Child(change, false)
	if err != nil {
		return nil, fmt.Errorf("failed to derive change key: %w", err)
	}

	addressKey, err := changeKey.Child(index, false)
	if err != nil {
		return nil, fmt.Errorf("failed to derive address key: %w", err)
	}
	return addressKey, nil
}

// DerivationPath is the five-level purpose'/coin'/account'/change/index layout.
type DerivationPath struct {
	Purpose  uint32
	CoinType uint32
	Account  uint32
	Change   uint32
	Index    uint32
}

func ParseDerivationPath(path string) (*DerivationPath, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	if len(segments) != 5 {
		return nil, fmt.Errorf("%w: expected 5 segments, got %d", ErrInvalidPath, len(segments))
	}
	for i, seg := range segments {
		if wantHardened := i < 3; seg.Hardened != wantHardened {
			return nil, fmt.Errorf("%w: segment %d must be %s", ErrInvalidPath, i+1, hardenedWord(wantHardened))
		}
	}

	return &DerivationPath{
		Purpose:  segments[0].Index,
		CoinType: segments[1].Index,
		Account:  segments[2].Index,
		Change:   segments[3].Index,
		Index:    segments[4].Index,
	}, nil
}

func hardenedWord(h bool) string {
	if h {
		return "hardened"
	}
	return "non-hardened"
}

func (dp *DerivationPath) Segments() Path {
	return Path{
		{Index: dp.Purpose, Hardened: true},
		{Index: dp.CoinType, Hardened: true},
		{Index: dp.Account, Hardened: true},
		{Index: dp.Change},
		{Index: dp.Index},
	}
}

// AccountPath is the hardened purpose'/coin'/account' prefix.
func (dp *DerivationPath) AccountPath() Path {
	return dp.Segments()[:3]
}

func (dp *DerivationPath) String() string {
	return fmt.Sprintf("m/%d'/%d'/%d'/%d/%d",
		dp.Purpose, dp.CoinType, dp.Account, dp.Change, dp.Index)
}

func ValidatePath(path string) error {
	_, err := ParseDerivationPath(path)
	return err
}
