package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// cacheEntry holds a completed response with its expiry.
type cacheEntry struct {
	resp      Response
	expiresAt time.Time
}

// responseCache is an in-process TTL cache keyed by a stable hash of the
// normalized request payload.
type responseCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// get returns a non-expired entry. Stale entries are never returned.
func (c *responseCache) get(key string, now time.Time) (Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || now.After(e.expiresAt) {
		return Response{}, false
	}
	return e.resp, true
}

func (c *responseCache) put(key string, resp Response, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{resp: resp, expiresAt: now.Add(c.ttl)}
}

// sweep evicts expired entries and returns the number removed.
func (c *responseCache) sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *responseCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cacheKey hashes the request fields that determine the response. Provider
// preference and retry budget are delivery concerns and excluded.
func cacheKey(req Request) string {
	payload := struct {
		Messages    []Message `json:"messages"`
		Temperature *float64  `json:"temperature"`
		MaxTokens   int64     `json:"max_tokens"`
	}{req.Messages, req.Temperature, req.MaxTokens}

	b, _ := json.Marshal(payload)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
