package cache

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// DefaultTTL applies when a non-positive TTL is supplied.
const DefaultTTL = 60 * time.Second

// Entry is a cached upstream body with its fetch time.
type Entry struct {
	Payload   json.RawMessage
	FetchedAt time.Time
}

// Stats summarises cache contents.
type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store keeps upstream payloads in memory. Entries are fresh while
// now-FetchedAt < ttl; stale entries stay until overwritten or cleared.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// New builds an empty store.
func New(ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured freshness window.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns a fresh payload. Missing and stale keys are indistinguishable.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().Sub(entry.FetchedAt) >= s.ttl {
		return nil, false
	}
	return entry.Payload, true
}

// Put stores payload under key, replacing any previous entry.
func (s *Store) Put(key string, payload json.RawMessage) {
	stored := make(json.RawMessage, len(payload))
	copy(stored, payload)

	s.mu.Lock()
	s.entries[key] = Entry{Payload: stored, FetchedAt: s.now()}
	s.mu.Unlock()
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]Entry)
	s.mu.Unlock()
}

// Stats reports size and sorted keys, stale entries included.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return Stats{Size: len(keys), Keys: keys}
}
