// Package cache provides the TTL response cache fronting all upstream
// calls. Keys carry a route prefix; the TTL for a key is resolved by
// longest-prefix match against a static policy table.
package cache

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Policy binds a key prefix to a TTL.
type Policy struct {
	Prefix string
	TTL    time.Duration
}

// DefaultPolicies returns the policy table used in production. Slow-moving
// catalog data gets long TTLs, personalized and status data short ones.
func DefaultPolicies() []Policy {
	return []Policy{
		{Prefix: "trailers", TTL: time.Hour},
		{Prefix: "collection", TTL: time.Hour},
		{Prefix: "genres", TTL: time.Hour},
		{Prefix: "library", TTL: 10 * time.Minute},
		{Prefix: "detail", TTL: 5 * time.Minute},
		{Prefix: "seasons", TTL: 5 * time.Minute},
		{Prefix: "episodes", TTL: 5 * time.Minute},
		{Prefix: "recommendations", TTL: 5 * time.Minute},
		{Prefix: "preferences", TTL: 5 * time.Minute},
		{Prefix: "resume", TTL: 2 * time.Minute},
		{Prefix: "search", TTL: 2 * time.Minute},
		{Prefix: "discover", TTL: 2 * time.Minute},
		{Prefix: "wizard", TTL: 2 * time.Minute},
		{Prefix: "auth", TTL: time.Minute},
		{Prefix: "status", TTL: time.Minute},
	}
}

// DefaultTTL applies to keys that match no policy prefix.
const DefaultTTL = time.Minute

// Config holds cache configuration.
type Config struct {
	Policies   []Policy
	DefaultTTL time.Duration
	Now        func() time.Time // injected clock; defaults to time.Now
}

type entry struct {
	payload   interface{}
	writtenAt time.Time
}

type inflightCall struct {
	done    chan struct{}
	payload interface{}
	err     error
}

// Cache is a concurrency-safe TTL store for upstream response payloads.
// Expired entries are evicted lazily on access; Sweep bounds memory.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	policies   []Policy
	defaultTTL time.Duration
	now        func() time.Time

	inflightMu sync.Mutex
	inflight   map[string]*inflightCall
}

// New creates a cache with the given configuration.
func New(cfg Config) *Cache {
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	// Longest prefix first so resolution is a linear first-match scan.
	policies := make([]Policy, len(cfg.Policies))
	copy(policies, cfg.Policies)
	sort.SliceStable(policies, func(i, j int) bool {
		return len(policies[i].Prefix) > len(policies[j].Prefix)
	})

	return &Cache{
		entries:    make(map[string]entry),
		policies:   policies,
		defaultTTL: cfg.DefaultTTL,
		now:        cfg.Now,
		inflight:   make(map[string]*inflightCall),
	}
}

// Key builds a cache key from a route prefix and its query parameters.
// Encode sorts parameters, so two requests with the same route and the
// same parameters always map to the same key.
func Key(prefix string, params url.Values) string {
	if len(params) == 0 {
		return prefix
	}
	return prefix + ":" + params.Encode()
}

// TTLFor resolves the TTL for a key by longest-prefix match.
func (c *Cache) TTLFor(key string) time.Duration {
	for _, p := range c.policies {
		if strings.HasPrefix(key, p.Prefix) {
			return p.TTL
		}
	}
	return c.defaultTTL
}

// Get retrieves a payload. An entry whose age has reached its TTL is a
// miss and is evicted.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.expired(key, e) {
		c.mu.Lock()
		// Re-check under the write lock; a fresher entry may have landed.
		if cur, ok := c.entries[key]; ok && cur.writtenAt.Equal(e.writtenAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.payload, true
}

// Set stores a payload under key, superseding any previous entry.
// Only idempotent read results belong here; callers must never cache
// the result of a mutating call.
func (c *Cache) Set(key string, payload interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{payload: payload, writtenAt: c.now()}
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns the number removed.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes all expired entries and returns the number removed.
// Run periodically by the scheduler; lazy eviction alone keeps reads
// correct but does not bound memory.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if c.expired(key, e) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// GetOrFetch returns the cached payload for key, or runs fetch to obtain
// it. Concurrent callers for the same key share a single fetch; only the
// winning call hits the upstream, and a successful result is cached for
// everyone.
func (c *Cache) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if payload, ok := c.Get(key); ok {
		return payload, nil
	}

	c.inflightMu.Lock()
	if call, ok := c.inflight[key]; ok {
		c.inflightMu.Unlock()
		select {
		case <-call.done:
			return call.payload, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &inflightCall{done: make(chan struct{})}
	c.inflight[key] = call
	c.inflightMu.Unlock()

	call.payload, call.err = fetch(ctx)
	if call.err == nil {
		c.Set(key, call.payload)
	}

	c.inflightMu.Lock()
	delete(c.inflight, key)
	c.inflightMu.Unlock()
	close(call.done)

	return call.payload, call.err
}

func (c *Cache) expired(key string, e entry) bool {
	age := c.now().Sub(e.writtenAt)
	return age >= c.TTLFor(key)
}
