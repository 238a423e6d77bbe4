package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	storedAt  time.Time
	expiresAt time.Time
}

// MemoryStore is a concurrency-safe in-memory cache with count and age limits.
type MemoryStore struct {
	mu sync.RWMutex

	// key: cache key, value: payload
	data map[string]memoryEntry

	// retention configuration
	maxEntries int           // max number of keys (0 = unlimited)
	maxAge     time.Duration // upper bound on any entry's lifetime (0 = ttl only)

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]memoryEntry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Get returns the payload stored under key, or ErrMiss.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, ErrMiss
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a copy of value and enforces retention.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	if s.maxAge > 0 && (ttl <= 0 || ttl > s.maxAge) {
		ttl = s.maxAge
	}
	if ttl <= 0 {
		return nil
	}

	v := make([]byte, len(value))
	copy(v, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = memoryEntry{value: v, storedAt: now, expiresAt: now.Add(ttl)}

	// Enforce retention by age.
	for k, e := range s.data {
		if !now.Before(e.expiresAt) {
			delete(s.data, k)
		}
	}

	// Enforce retention by count, dropping the oldest entries first.
	for s.maxEntries > 0 && len(s.data) > s.maxEntries {
		oldestKey := ""
		var oldest time.Time
		for k, e := range s.data {
			if oldestKey == "" || e.storedAt.Before(oldest) {
				oldestKey, oldest = k, e.storedAt
			}
		}
		delete(s.data, oldestKey)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
