package search

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/JoneySinx/V2/pkg/core"
)

// CursorCache remembers the query behind a result page so the next page can
// be requested with an opaque key. Entries expire after a TTL and the least
// recently used entry is evicted once the cache is full. Safe for concurrent
// use.
type CursorCache struct {
	entries *expirable.LRU[string, Query]
}

// NewCursorCache returns a cache holding at most size cursors, each for ttl.
func NewCursorCache(size int, ttl time.Duration) *CursorCache {
	return &CursorCache{entries: expirable.NewLRU[string, Query](size, nil, ttl)}
}

// NewCursorKey returns a key unique to one requesting context.
func NewCursorKey(session string) string {
	if session == "" {
		session = "anon"
	}
	return session + ":" + uuid.NewString()
}

// Put stores q under key, replacing any previous entry.
func (c *CursorCache) Put(key string, q Query) {
	c.entries.Add(key, q)
}

// Get returns the query stored under key, or core.ErrCursorExpired when it
// was never stored or has been evicted.
func (c *CursorCache) Get(key string) (Query, error) {
	q, ok := c.entries.Get(key)
	if !ok {
		return Query{}, fmt.Errorf("cursor %q: %w", key, core.ErrCursorExpired)
	}
	return q, nil
}

func (c *CursorCache) Len() int {
	return c.entries.Len()
}
