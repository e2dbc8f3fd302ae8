package obfuscate

import (
	"bytes"
	"testing"
)

// TestTransformRoundTrip tests encode/decode round-trip over assorted keys and inputs
func TestTransformRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		key  []byte
		data []byte
	}{
		{"single byte key", []byte{0x5a}, []byte("Hello, World!")},
		{"short key long data", []byte("abc"), make([]byte, 1024)},
		{"key longer than data", []byte("forsooth, let us never break our trust!"), []byte("hi")},
		{"key equals data length", []byte{1, 2, 3, 4}, []byte{9, 8, 7, 6}},
		{"binary key", []byte{0x00, 0xff, 0x80}, []byte("streaming bytes")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for i := range tc.data {
				tc.data[i] = byte(i % 256)
			}
			original := make([]byte, len(tc.data))
			copy(original, tc.data)

			enc, err := New(tc.key)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			encoded := make([]byte, len(tc.data))
			copy(encoded, tc.data)
			enc.Apply(encoded)

			dec, err := New(tc.key)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			dec.Apply(encoded)

			if !bytes.Equal(encoded, original) {
				t.Errorf("round-trip failed: got %v, want %v", encoded, original)
			}
		})
	}
}

// TestKnownVectors pins the key-cycling behavior to fixed outputs
func TestKnownVectors(t *testing.T) {
	testCases := []struct {
		name string
		key  []byte
		in   []byte
		want []byte
	}{
		{"space key uppercases ascii", []byte{0x20}, []byte("abc"), []byte("ABC")},
		{"two byte key repeats", []byte{0x01, 0x02}, []byte{0x00, 0x00, 0x00, 0x00}, []byte{0x01, 0x02, 0x01, 0x02}},
		{"zero key is identity", []byte{0x00}, []byte("unchanged"), []byte("unchanged")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Munge(tc.key, tc.in)
			if err != nil {
				t.Fatalf("Munge() error = %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("Munge() = %v, want %v", got, tc.want)
			}
			// Involution: applying again restores the input.
			back, err := Munge(tc.key, got)
			if err != nil {
				t.Fatalf("Munge() error = %v", err)
			}
			if !bytes.Equal(back, tc.in) {
				t.Errorf("double Munge() = %v, want %v", back, tc.in)
			}
		})
	}
}

// TestChunkInvariance verifies that splitting the input across calls does not
// change the output
func TestChunkInvariance(t *testing.T) {
	key := []byte("chunky")
	data := make([]byte, 257)
	for i := range data {
		data[i] = byte(i * 31 % 256)
	}

	whole, err := Munge(key, data)
	if err != nil {
		t.Fatalf("Munge() error = %v", err)
	}

	splits := [][]int{
		{1},       // byte at a time
		{2},       // two at a time
		{7},       // prime chunks, key length 6
		{256},     // one chunk plus remainder
		{3, 0, 5}, // zero-length call in the middle
	}

	for _, sizes := range splits {
		tr, err := New(key)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		got := make([]byte, len(data))
		copy(got, data)

		pos, round := 0, 0
		for pos < len(got) {
			n := sizes[round%len(sizes)]
			round++
			if pos+n > len(got) {
				n = len(got) - pos
			}
			tr.Apply(got[pos : pos+n])
			pos += n
		}

		if !bytes.Equal(got, whole) {
			t.Errorf("chunked output with sizes %v differs from whole-buffer output", sizes)
		}
	}
}

func TestEmptyKey(t *testing.T) {
	if _, err := New(nil); err != ErrEmptyKey {
		t.Errorf("New(nil) error = %v, want ErrEmptyKey", err)
	}
	if _, err := New([]byte{}); err != ErrEmptyKey {
		t.Errorf("New(empty) error = %v, want ErrEmptyKey", err)
	}
	if _, err := Munge(nil, []byte("data")); err != ErrEmptyKey {
		t.Errorf("Munge(nil key) error = %v, want ErrEmptyKey", err)
	}
}

func TestEmptyInput(t *testing.T) {
	tr, err := New([]byte("key"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tr.Apply(nil)
	tr.Apply([]byte{})
	if tr.Position() != 0 {
		t.Errorf("Position() = %d after empty input, want 0", tr.Position())
	}
}

func TestSetPosition(t *testing.T) {
	key := []byte("resume")
	data := []byte("a stream interrupted halfway through and resumed")

	whole, _ := Munge(key, data)

	// Encode the tail with a fresh transform seeked to the split point.
	split := int64(17)
	tr, err := New(key)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := tr.SetPosition(split); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	tail := make([]byte, len(data)-int(split))
	copy(tail, data[split:])
	tr.Apply(tail)

	if !bytes.Equal(tail, whole[split:]) {
		t.Errorf("resumed output differs from continuous output")
	}

	if err := tr.SetPosition(-1); err == nil {
		t.Error("SetPosition(-1) = nil, want error")
	}
}

func TestKeyIsCopied(t *testing.T) {
	key := []byte{0x01}
	tr, err := New(key)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	key[0] = 0xff

	got := []byte{0x00}
	tr.Apply(got)
	if got[0] != 0x01 {
		t.Errorf("Apply() used mutated key: got %#x, want 0x01", got[0])
	}
}

func TestClone(t *testing.T) {
	tr, err := New([]byte("clone-me"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	data := []byte("advance the cursor a bit")
	tr.Apply(data)

	dup := tr.Clone()
	if dup.Position() != tr.Position() {
		t.Fatalf("Clone position = %d, want %d", dup.Position(), tr.Position())
	}

	a, b := []byte("same"), []byte("same")
	tr.Apply(a)
	dup.Apply(b)
	if !bytes.Equal(a, b) {
		t.Error("clone diverged from original for identical input")
	}
}
