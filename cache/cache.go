// cache/cache.go - Derived list-view cache
package cache

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired. Callers treat
// any other error the same way: fall through to the store.
var ErrMiss = errors.New("cache: miss")

// Store is the cache contract every backend satisfies. All operations are
// fail-soft; a broken backend must never fail the request that touched it.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	// DeletePattern removes every entry whose key starts with prefix and
	// returns how many were dropped.
	DeletePattern(prefix string) (int, error)
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store with per-entry TTL. A janitor goroutine
// drops expired entries so an idle server does not hold stale payloads.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, ErrMiss
	}
	return e.value, nil
}

func (s *MemoryStore) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeletePattern(prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			count++
		}
	}
	return count, nil
}

// Close stops the janitor. Safe to call more than once.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
