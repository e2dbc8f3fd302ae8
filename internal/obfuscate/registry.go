package obfuscate

import (
	"fmt"
	"strings"
	"sync"
)

// KeyDecoder turns the value part of a key spec into raw key bytes.
type KeyDecoder func(value string) ([]byte, error)

// registry holds registered key-spec schemes
var (
	registryMu sync.RWMutex
	registry   = make(map[string]KeyDecoder)
)

func init() {
	// Register built-in key schemes
	RegisterScheme("raw", decodeRawKey)
	RegisterScheme("hex", decodeHexKey)
	RegisterScheme("base64", decodeBase64Key)
	RegisterScheme("file", decodeFileKey)
	RegisterScheme("passphrase", decodePassphraseKey)
}

// RegisterScheme adds a key-spec scheme to the registry.
func RegisterScheme(name string, decoder KeyDecoder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = decoder
}

// ResolveKey turns a textual key spec into key bytes. A spec is
// "scheme:value"; a spec without a registered scheme prefix is taken as the
// literal UTF-8 bytes of the whole argument (the "raw" convention). The
// resulting key must be non-empty.
func ResolveKey(spec string) ([]byte, error) {
	scheme, value := "raw", spec
	if idx := strings.Index(spec, ":"); idx >= 0 {
		if IsSchemeRegistered(spec[:idx]) {
			scheme, value = spec[:idx], spec[idx+1:]
		}
	}

	registryMu.RLock()
	decoder, ok := registry[scheme]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("obfuscate: unsupported key scheme: %s", scheme)
	}

	key, err := decoder(value)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return key, nil
}

// NewFromSpec resolves a key spec and constructs a Transform from it.
func NewFromSpec(spec string) (*Transform, error) {
	key, err := ResolveKey(spec)
	if err != nil {
		return nil, err
	}
	return New(key)
}

// ListSchemes returns all registered key-spec schemes.
func ListSchemes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	schemes := make([]string, 0, len(registry))
	for s := range registry {
		schemes = append(schemes, s)
	}
	return schemes
}

// IsSchemeRegistered checks if a key-spec scheme is registered.
func IsSchemeRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}
