package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is an in-process Store. It keeps the same JSON
// encode/decode round trip as the Redis backend so cached values
// behave identically, and expires entries lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// Published holds everything sent through Publish, per channel.
	// Exposed for tests; the Redis backend has real subscribers.
	published map[string][][]byte

	now func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]memoryEntry),
		published: make(map[string][][]byte),
		now:       time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string, dest any) error {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		return ErrMiss
	}
	return decode(e.data, dest)
}

func (s *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := marshal(value)
	if err != nil {
		return err
	}
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Publish(_ context.Context, channel string, payload any) error {
	data, err := marshal(payload)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.published[channel] = append(s.published[channel], data)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	return ok && !s.expired(e), nil
}

// PublishedOn returns the payloads published on a channel so far.
func (s *MemoryStore) PublishedOn(channel string) [][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]byte, len(s.published[channel]))
	copy(out, s.published[channel])
	return out
}

// SetRaw stores pre-encoded bytes verbatim, bypassing JSON encoding.
// Tests use it to simulate malformed cached entries.
func (s *MemoryStore) SetRaw(key string, data []byte, ttl time.Duration) {
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && s.now().After(e.expiresAt)
}
