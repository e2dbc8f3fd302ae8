package obfuscate

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveKey(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key.bin")
	if err := os.WriteFile(keyFile, []byte{0xde, 0xad, 0xbe, 0xef}, 0600); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name    string
		spec    string
		want    []byte
		wantErr bool
	}{
		{"bare spec is raw utf-8", "secret", []byte("secret"), false},
		{"explicit raw", "raw:secret", []byte("secret"), false},
		{"raw with colon payload", "raw:hex:not-a-scheme-here", []byte("hex:not-a-scheme-here"), false},
		{"unregistered prefix stays raw", "foo:bar", []byte("foo:bar"), false},
		{"hex", "hex:20", []byte{0x20}, false},
		{"hex multi", "hex:0102", []byte{0x01, 0x02}, false},
		{"hex invalid", "hex:zz", nil, true},
		{"hex empty", "hex:", nil, true},
		{"base64", "base64:aGVsbG8=", []byte("hello"), false},
		{"base64 invalid", "base64:!!!", nil, true},
		{"file", "file:" + keyFile, []byte{0xde, 0xad, 0xbe, 0xef}, false},
		{"file missing", "file:" + filepath.Join(dir, "nope"), nil, true},
		{"empty spec", "", nil, true},
		{"passphrase empty", "passphrase:", nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveKey(tc.spec)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ResolveKey(%q) error = %v, wantErr %v", tc.spec, err, tc.wantErr)
			}
			if err == nil && !bytes.Equal(got, tc.want) {
				t.Errorf("ResolveKey(%q) = %v, want %v", tc.spec, got, tc.want)
			}
		})
	}
}

func TestDeriveKey(t *testing.T) {
	k1 := DeriveKey("correct horse battery staple")
	k2 := DeriveKey("correct horse battery staple")
	k3 := DeriveKey("different")

	if len(k1) != deriveKeyLen {
		t.Errorf("DeriveKey length = %d, want %d", len(k1), deriveKeyLen)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("DeriveKey is not deterministic")
	}
	if bytes.Equal(k1, k3) {
		t.Error("DeriveKey collision for different passphrases")
	}
}

func TestResolveKeyPassphrase(t *testing.T) {
	key, err := ResolveKey("passphrase:hunter2")
	if err != nil {
		t.Fatalf("ResolveKey() error = %v", err)
	}
	if !bytes.Equal(key, DeriveKey("hunter2")) {
		t.Error("passphrase spec does not match DeriveKey output")
	}
}

func TestNewFromSpec(t *testing.T) {
	tr, err := NewFromSpec("hex:20")
	if err != nil {
		t.Fatalf("NewFromSpec() error = %v", err)
	}
	data := []byte("abc")
	tr.Apply(data)
	if !bytes.Equal(data, []byte("ABC")) {
		t.Errorf("Apply() = %q, want %q", data, "ABC")
	}

	if _, err := NewFromSpec("hex:"); err == nil {
		t.Error("NewFromSpec(empty hex) = nil error, want error")
	}
}

func TestListSchemes(t *testing.T) {
	schemes := ListSchemes()
	want := map[string]bool{"raw": false, "hex": false, "base64": false, "file": false, "passphrase": false}
	for _, s := range schemes {
		if _, ok := want[s]; ok {
			want[s] = true
		}
	}
	for s, seen := range want {
		if !seen {
			t.Errorf("scheme %q not registered", s)
		}
	}
}
