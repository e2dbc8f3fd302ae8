package obfuscate

import (
	"errors"
	"fmt"
)

// ErrEmptyKey is returned when a Transform is constructed with no key bytes.
var ErrEmptyKey = errors.New("obfuscate: key must not be empty")

// Transform XORs a byte stream with a repeating key. It is stateful: the
// cursor into the key advances by one for every byte processed, so repeated
// calls continue the key stream where the previous call left off. A Transform
// must not be shared across goroutines or across logical streams.
type Transform struct {
	key      []byte
	position int64
}

// New creates a Transform from the given key. The key is copied, so the
// caller may reuse its slice. A zero-length key is rejected.
func New(key []byte) (*Transform, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	t := &Transform{key: make([]byte, len(key))}
	copy(t.key, key)
	return t, nil
}

// Apply XORs data in place with the key stream and advances the cursor by
// len(data). Applying the same key stream to the output restores the input.
func (t *Transform) Apply(data []byte) {
	keyLen := int64(len(t.key))
	for i := range data {
		data[i] ^= t.key[t.position%keyLen]
		t.position++
	}
}

// SetPosition sets the key-stream cursor for resuming a stream at an offset.
func (t *Transform) SetPosition(position int64) error {
	if position < 0 {
		return fmt.Errorf("obfuscate: position cannot be negative")
	}
	t.position = position
	return nil
}

// Position returns the number of bytes processed so far.
func (t *Transform) Position() int64 {
	return t.position
}

// Algorithm returns the transform algorithm name.
func (t *Transform) Algorithm() string {
	return "xor"
}

// KeyLen returns the key length in bytes.
func (t *Transform) KeyLen() int {
	return len(t.key)
}

// Clone returns an independent Transform with the same key and cursor.
func (t *Transform) Clone() *Transform {
	c, _ := New(t.key)
	c.position = t.position
	return c
}

// Munge is the stateless one-shot form: it XORs data with the cycling key
// starting from cursor zero and returns a new slice.
func Munge(key, data []byte) ([]byte, error) {
	t, err := New(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	t.Apply(out)
	return out, nil
}
