package search

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JoneySinx/V2/pkg/core"
)

func TestCursorCache(t *testing.T) {
	cache := NewCursorCache(10, time.Minute)
	q := NewQuery("dune", core.Scope{All: true}, 0, 12, 12, "")

	key := NewCursorKey("session")
	if !strings.HasPrefix(key, "session:") {
		t.Errorf("key = %q", key)
	}
	cache.Put(key, q)

	got, err := cache.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != q {
		t.Errorf("Get() = %+v, want %+v", got, q)
	}

	if _, err := cache.Get("unknown"); !errors.Is(err, core.ErrCursorExpired) {
		t.Errorf("expected ErrCursorExpired, got %v", err)
	}
}

func TestCursorCacheEvictsOldest(t *testing.T) {
	cache := NewCursorCache(2, time.Minute)
	cache.Put("a", Query{Raw: "a"})
	cache.Put("b", Query{Raw: "b"})
	cache.Put("c", Query{Raw: "c"})

	if cache.Len() != 2 {
		t.Errorf("len = %d, want 2", cache.Len())
	}
	if _, err := cache.Get("a"); !errors.Is(err, core.ErrCursorExpired) {
		t.Errorf("oldest entry should be evicted, got %v", err)
	}
}

func TestCursorCacheExpires(t *testing.T) {
	cache := NewCursorCache(10, 20*time.Millisecond)
	cache.Put("a", Query{Raw: "a"})
	time.Sleep(60 * time.Millisecond)

	if _, err := cache.Get("a"); !errors.Is(err, core.ErrCursorExpired) {
		t.Errorf("expected expired entry, got %v", err)
	}
}

func TestCursorCacheConcurrent(t *testing.T) {
	cache := NewCursorCache(100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := NewCursorKey("")
				cache.Put(key, Query{Offset: j})
				_, _ = cache.Get(key)
			}
		}()
	}
	wg.Wait()

	if cache.Len() > 100 {
		t.Errorf("len = %d exceeds the cache size", cache.Len())
	}
}
