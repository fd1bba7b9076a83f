package secure

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"runtime"
	"sync"
)

// SecureBytes holds secret material (seeds, chain codes) for the span of a
// single derivation request and wipes it on Destroy.
type SecureBytes struct {
	data []byte
	mu   sync.RWMutex
}

// FromBytes copies data into a new SecureBytes. The caller still owns data
// and should zero it.
func FromBytes(data []byte) *SecureBytes {
	sb := &SecureBytes{
		data: make([]byte, len(data)),
	}
	copy(sb.data, data)
	return sb
}

// With calls fn with the held bytes without copying them. fn must not retain
// the slice.
func (sb *SecureBytes) With(fn func(b []byte) error) error {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return fn(sb.data)
}

func (sb *SecureBytes) Clear() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	Zero(sb.data)
}

func (sb *SecureBytes) Destroy() {
	sb.Clear()
	sb.mu.Lock()
	sb.data = nil
	sb.mu.Unlock()
}

func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

func ConstantTimeCompare(x, y []byte) bool {
	if len(x) != len(y) {
		return false
	}
	return subtle.ConstantTimeCompare(x, y) == 1
}

func ClearBytes(b *[]byte) {
	if b == nil || *b == nil {
		return
	}
	Zero(*b)
	*b = nil
}

// SecureRandom draws size bytes from the system CSPRNG.
func SecureRandom(size int) ([]byte, error) {
	return ReadRandom(rand.Reader, size)
}

// ReadRandom draws exactly size bytes from r. On a short read the partial
// buffer is wiped before returning.
func ReadRandom(r io.Reader, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("random size must be positive, got %d", size)
	}
	b := make([]byte, size)
	if _, err := io.ReadFull(r, b); err != nil {
		Zero(b)
		return nil, fmt.Errorf("failed to generate secure random bytes: %w", err)
	}
	return b, nil
}
