package obfuscate

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

// Passphrase derivation parameters. Frozen: changing any of them changes the
// key stream produced for a given passphrase.
const (
	deriveIterations = 1000
	deriveKeyLen     = 32
	deriveSalt       = "xorcism"
)

// DeriveKey stretches a textual passphrase into a fixed-length key using
// PBKDF2-SHA256.
func DeriveKey(passphrase string) []byte {
	return pbkdf2.Key([]byte(passphrase), []byte(deriveSalt), deriveIterations, deriveKeyLen, sha256.New)
}

func decodeRawKey(value string) ([]byte, error) {
	return []byte(value), nil
}

func decodeHexKey(value string) ([]byte, error) {
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("obfuscate: invalid hex key: %w", err)
	}
	return key, nil
}

func decodeBase64Key(value string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("obfuscate: invalid base64 key: %w", err)
	}
	return key, nil
}

func decodeFileKey(value string) ([]byte, error) {
	key, err := os.ReadFile(value)
	if err != nil {
		return nil, fmt.Errorf("obfuscate: read key file: %w", err)
	}
	return key, nil
}

func decodePassphraseKey(value string) ([]byte, error) {
	if value == "" {
		return nil, ErrEmptyKey
	}
	return DeriveKey(value), nil
}
