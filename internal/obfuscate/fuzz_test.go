package obfuscate

import (
	"bytes"
	"testing"
)

// FuzzRoundTrip fuzzes the involution property: encode twice restores input
func FuzzRoundTrip(f *testing.F) {
	// Seed corpus
	f.Add([]byte("Hello, World!"), []byte("key"))
	f.Add([]byte{}, []byte{0x00})
	f.Add([]byte{0, 1, 2, 3, 4, 5}, []byte{0xff})
	f.Add(make([]byte, 1024), []byte("a longer key than usual, longer than data even"))

	f.Fuzz(func(t *testing.T, data []byte, key []byte) {
		if len(key) == 0 {
			if _, err := New(key); err != ErrEmptyKey {
				t.Errorf("New(empty key) error = %v, want ErrEmptyKey", err)
			}
			return
		}

		original := make([]byte, len(data))
		copy(original, data)

		encoded, err := Munge(key, data)
		if err != nil {
			t.Fatalf("Munge() error = %v", err)
		}
		decoded, err := Munge(key, encoded)
		if err != nil {
			t.Fatalf("Munge() error = %v", err)
		}

		if !bytes.Equal(decoded, original) {
			t.Errorf("round-trip failed for data len %d, key len %d", len(data), len(key))
		}
	})
}

// FuzzChunkInvariance fuzzes the split point of a two-call transform against
// the single-call output
func FuzzChunkInvariance(f *testing.F) {
	f.Add([]byte("split me anywhere"), []byte("key"), 5)
	f.Add(make([]byte, 300), []byte{0x01, 0x02, 0x03}, 299)
	f.Add([]byte{7}, []byte("k"), 0)

	f.Fuzz(func(t *testing.T, data []byte, key []byte, split int) {
		if len(key) == 0 {
			return
		}
		if split < 0 || split > len(data) {
			split = len(data) / 2
		}

		whole, err := Munge(key, data)
		if err != nil {
			t.Fatalf("Munge() error = %v", err)
		}

		tr, err := New(key)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		chunked := make([]byte, len(data))
		copy(chunked, data)
		tr.Apply(chunked[:split])
		tr.Apply(chunked[split:])

		if !bytes.Equal(chunked, whole) {
			t.Errorf("chunked output differs at split %d", split)
		}
	})
}
