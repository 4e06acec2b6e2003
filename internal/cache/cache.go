package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// NoExpiry stores an entry until it is evicted explicitly
const NoExpiry time.Duration = 0

// Store is a byte-oriented cache shared by the lookup services
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

type entry struct {
	value     []byte
	expiresAt time.Time // zero = never
}

// MemoryStore is an in-process Store with per-entry TTLs
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]entry
	now   Clock
}

// NewMemoryStore creates an in-memory store. A nil clock uses time.Now.
func NewMemoryStore(now Clock) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{items: make(map[string]entry), now: now}
}

// Get returns a live entry
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !s.expired(e) {
		return e.value, true, nil
	}

	// a Set may have refreshed the key since the read lock was dropped
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok = s.items[key]
	if !ok {
		return nil, false, nil
	}
	if s.expired(e) {
		delete(s.items, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

// Set stores a value; ttl <= 0 never expires
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = e
	s.mu.Unlock()
	return nil
}

// Delete removes a key
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// GetJSON decodes a cached JSON value into dst
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value as JSON and stores it
func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}
