package cache

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestStoreGetAfterPut(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := New(time.Minute, WithClock(clock.Now))

	store.Put("mirror:network/supply:", json.RawMessage(`{"total_supply":"1"}`))
	got, ok := store.Get("mirror:network/supply:")
	if !ok {
		t.Fatal("put 之后应命中缓存")
	}
	if string(got) != `{"total_supply":"1"}` {
		t.Fatalf("payload mismatch: %s", got)
	}

	if _, ok := store.Get("missing"); ok {
		t.Fatal("unknown key must miss")
	}
}

func TestStoreTTLBoundary(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	ttl := time.Minute
	store := New(ttl, WithClock(clock.Now))
	store.Put("k", json.RawMessage(`{}`))

	clock.Advance(ttl - time.Millisecond)
	if _, ok := store.Get("k"); !ok {
		t.Fatal("entry just before ttl should be fresh")
	}

	clock.Advance(2 * time.Millisecond)
	if _, ok := store.Get("k"); ok {
		t.Fatal("entry just after ttl should be stale")
	}

	stats := store.Stats()
	if stats.Size != 1 {
		t.Fatalf("stale entries are not evicted, size=%d", stats.Size)
	}

	store.Put("k", json.RawMessage(`{"v":2}`))
	if got, ok := store.Get("k"); !ok || string(got) != `{"v":2}` {
		t.Fatalf("overwrite should refresh the entry: %s %v", got, ok)
	}
}

func TestStoreExactlyAtTTLIsStale(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := New(time.Minute, WithClock(clock.Now))
	store.Put("k", json.RawMessage(`{}`))
	clock.Advance(time.Minute)
	if _, ok := store.Get("k"); ok {
		t.Fatal("now-fetchedAt == ttl is no longer fresh")
	}
}

func TestStoreClearAndStats(t *testing.T) {
	store := New(0)
	if store.TTL() != DefaultTTL {
		t.Fatalf("default ttl expected, got %s", store.TTL())
	}
	store.Put("b", json.RawMessage(`1`))
	store.Put("a", json.RawMessage(`2`))

	stats := store.Stats()
	if stats.Size != 2 || stats.Keys[0] != "a" || stats.Keys[1] != "b" {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	store.Clear()
	if store.Stats().Size != 0 {
		t.Fatal("clear should drop all entries")
	}
}

func TestStorePutCopiesPayload(t *testing.T) {
	store := New(time.Minute)
	body := json.RawMessage(`{"a":1}`)
	store.Put("k", body)
	body[2] = 'b'
	got, _ := store.Get("k")
	if string(got) != `{"a":1}` {
		t.Fatalf("cache must not alias caller buffers: %s", got)
	}
}
