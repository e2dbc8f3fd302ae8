package keyring

import (
	"errors"
	"sort"
	"time"

	"github.com/xorcism-go/internal/obfuscate"
	"github.com/xorcism-go/internal/storage"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrKeyExists   = errors.New("key already exists")
)

// Key is a named key spec stored in the keyring. The spec is kept in its
// textual form ("hex:...", "passphrase:...") so the stored record stays
// inspectable; it is resolved to key bytes when a stream is opened.
type Key struct {
	Name      string    `json:"name"`
	Spec      string    `json:"spec"`
	CreatedAt time.Time `json:"created_at"`
}

// KeyDAO handles named-key data access
type KeyDAO struct {
	store *storage.Store
}

// NewKeyDAO creates a new key DAO
func NewKeyDAO(store *storage.Store) *KeyDAO {
	return &KeyDAO{store: store}
}

// Create stores a new named key after validating that its spec resolves
func (d *KeyDAO) Create(name, spec string) (*Key, error) {
	if _, err := obfuscate.ResolveKey(spec); err != nil {
		return nil, err
	}

	var existing Key
	if err := d.store.GetJSON(storage.BucketKeys, name, &existing); err != nil {
		return nil, err
	}
	if existing.Name != "" {
		return nil, ErrKeyExists
	}

	key := Key{
		Name:      name,
		Spec:      spec,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.store.SetJSON(storage.BucketKeys, name, key); err != nil {
		return nil, err
	}
	return &key, nil
}

// Get retrieves a named key
func (d *KeyDAO) Get(name string) (*Key, error) {
	var key Key
	if err := d.store.GetJSON(storage.BucketKeys, name, &key); err != nil {
		return nil, err
	}
	if key.Name == "" {
		return nil, ErrKeyNotFound
	}
	return &key, nil
}

// List returns all named keys sorted by name
func (d *KeyDAO) List() ([]Key, error) {
	raw, err := d.store.GetAll(storage.BucketKeys)
	if err != nil {
		return nil, err
	}

	keys := make([]Key, 0, len(raw))
	for name := range raw {
		key, err := d.Get(name)
		if err != nil {
			continue
		}
		keys = append(keys, *key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })
	return keys, nil
}

// Delete removes a named key
func (d *KeyDAO) Delete(name string) error {
	if _, err := d.Get(name); err != nil {
		return err
	}
	return d.store.Delete(storage.BucketKeys, name)
}
