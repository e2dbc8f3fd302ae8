// Package cache provides a TTL cache for resolved key material. Resolving a
// passphrase spec runs PBKDF2, which is deliberately slow; the server path
// caches the derived bytes so repeated streams with the same spec pay the
// derivation cost once.
package cache

import (
	"math"
	"sync"
	"time"
)

type entry struct {
	key        []byte
	expiration int64
}

func (e entry) expired() bool {
	if e.expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > e.expiration
}

// KeyCache is an in-memory cache of resolved keys with TTL expiry and a
// size bound. Key specs arrive from unauthenticated stream requests, so the
// cache must not grow with attacker-chosen input.
type KeyCache struct {
	items        map[string]entry
	mu           sync.RWMutex
	ttl          time.Duration
	maxSize      int
	singleFlight *SingleFlight
}

// NewKeyCache creates a cache. A zero ttl means entries never expire; a
// maxSize of zero or less means unbounded.
func NewKeyCache(ttl time.Duration, maxSize int) *KeyCache {
	c := &KeyCache{
		items:        make(map[string]entry),
		ttl:          ttl,
		maxSize:      maxSize,
		singleFlight: NewSingleFlight(),
	}

	go c.cleanup()

	return c
}

// Get retrieves a resolved key from the cache
func (c *KeyCache) Get(spec string) ([]byte, bool) {
	c.mu.RLock()
	e, found := c.items[spec]
	c.mu.RUnlock()

	if !found {
		return nil, false
	}
	if e.expired() {
		c.Delete(spec)
		return nil, false
	}
	return e.key, true
}

// Set stores a resolved key
func (c *KeyCache) Set(spec string, key []byte) {
	var expiration int64
	if c.ttl > 0 {
		expiration = time.Now().Add(c.ttl).UnixNano()
	}

	c.mu.Lock()
	if c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.evictOne()
	}
	c.items[spec] = entry{key: key, expiration: expiration}
	c.mu.Unlock()
}

// evictOne removes one entry: an expired one if any exists, otherwise the
// one closest to expiry. Caller holds mu.
func (c *KeyCache) evictOne() {
	var oldestSpec string
	var oldestTime int64 = math.MaxInt64

	for spec, e := range c.items {
		if e.expired() {
			delete(c.items, spec)
			return
		}
		if e.expiration > 0 && e.expiration < oldestTime {
			oldestTime = e.expiration
			oldestSpec = spec
		}
	}

	// Non-expiring entries carry no expiration to compare; drop any one.
	if oldestSpec == "" {
		for spec := range c.items {
			oldestSpec = spec
			break
		}
	}
	delete(c.items, oldestSpec)
}

// Delete removes a key from the cache
func (c *KeyCache) Delete(spec string) {
	c.mu.Lock()
	delete(c.items, spec)
	c.mu.Unlock()
	c.singleFlight.Forget(spec)
}

// GetOrResolve gets from cache or resolves using the provided function.
// Concurrent resolutions of the same spec are deduplicated.
func (c *KeyCache) GetOrResolve(spec string, resolve func() ([]byte, error)) ([]byte, error) {
	if key, found := c.Get(spec); found {
		return key, nil
	}

	val, err, _ := c.singleFlight.Do(spec, func() (interface{}, error) {
		if key, found := c.Get(spec); found {
			return key, nil
		}

		key, err := resolve()
		if err != nil {
			return nil, err
		}
		c.Set(spec, key)
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]byte), nil
}

// cleanup periodically removes expired entries
func (c *KeyCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	for range ticker.C {
		c.mu.Lock()
		for spec, e := range c.items {
			if e.expired() {
				delete(c.items, spec)
			}
		}
		c.mu.Unlock()
	}
}

// Size returns the number of cached keys
func (c *KeyCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
