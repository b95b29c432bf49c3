// Package cache implements the prompt cache: a TTL-bounded mapping from
// "provider:prompt" keys to prior canonical provider responses.
//
// Grounded in the teacher's in-process MemoryCache (lazy expiry on access,
// single RWMutex), adapted to a tri-state lookup result and an explicit
// "now" parameter so TTL boundaries are exactly reproducible in tests
// instead of depending on the wall clock.
package cache

import (
	"sync"

	"github.com/wx-yz/ai-gateway/internal/providers"
)

// Result is the tri-state outcome of a lookup.
type Result int

const (
	Miss Result = iota
	ExpiredMiss
	Hit
)

type entry struct {
	response         providers.CanonicalResponse
	timestampSeconds int64
}

// PromptCache is a single in-process map guarded by one lock. There is no
// single-flight guarantee: two concurrent misses on the same key will both
// reach the provider, and the second Store wins. This is an accepted design
// choice (simplicity and idempotent writes), not a bug.
type PromptCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	ttlSeconds int64
}

// New creates an empty PromptCache with the given TTL in seconds.
func New(ttlSeconds int64) *PromptCache {
	return &PromptCache{
		entries:    make(map[string]entry),
		ttlSeconds: ttlSeconds,
	}
}

// Key builds the cache key for a (provider, prompt) pair.
func Key(provider, prompt string) string {
	return provider + ":" + prompt
}

// Lookup returns Hit with the cached response, ExpiredMiss if an entry
// existed but aged out (it is removed before returning), or Miss.
func (c *PromptCache) Lookup(key string, now int64) (providers.CanonicalResponse, Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return providers.CanonicalResponse{}, Miss
	}

	if now-e.timestampSeconds >= c.ttlSeconds {
		delete(c.entries, key)
		return providers.CanonicalResponse{}, ExpiredMiss
	}

	return e.response, Hit
}

// Store unconditionally overwrites the entry for key.
func (c *PromptCache) Store(key string, response providers.CanonicalResponse, now int64) {
	c.mu.Lock()
	c.entries[key] = entry{response: response, timestampSeconds: now}
	c.mu.Unlock()
}

// Clear drops all entries.
func (c *PromptCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Snapshot returns a shallow copy of the cached responses keyed by cache key,
// for admin inspection.
func (c *PromptCache) Snapshot() map[string]providers.CanonicalResponse {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]providers.CanonicalResponse, len(c.entries))
	for k, e := range c.entries {
		out[k] = e.response
	}
	return out
}

// Len returns the number of entries currently held, including any that have
// aged out but have not yet been evicted by a Lookup.
func (c *PromptCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
