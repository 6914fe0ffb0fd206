// Package cache provides TTL key/value stores and a memoization wrapper
// built on top of them.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Store is a byte-level key/value store with per-entry TTL.
type Store interface {
	// Get returns ok=false on a miss or an expired entry.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// MemoryConfig configures the in-memory store.
type MemoryConfig struct {
	MaxEntries      int           // 0 = unbounded (entries only leave by expiry)
	CleanupInterval time.Duration // 0 disables the background sweep
}

// MemoryStore is a mutex-guarded map with per-entry expiry. When MaxEntries
// is set, the least recently used entry is evicted on overflow.
type MemoryStore struct {
	mu         sync.Mutex
	data       map[string]*list.Element
	order      *list.List // front = most recently used
	maxEntries int
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type memEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	s := &MemoryStore{
		data:       make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go s.cleanupLoop(cfg.CleanupInterval)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	entry := elem.Value.(*memEntry)
	if !s.now().Before(entry.expiresAt) {
		s.removeElement(elem)
		return nil, false, nil
	}
	s.order.MoveToFront(elem)
	return entry.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt := s.now().Add(ttl)
	if elem, ok := s.data[key]; ok {
		entry := elem.Value.(*memEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		s.order.MoveToFront(elem)
		return nil
	}

	if s.maxEntries > 0 && len(s.data) >= s.maxEntries {
		s.deleteExpired()
		for len(s.data) >= s.maxEntries {
			s.removeElement(s.order.Back())
		}
	}

	s.data[key] = s.order.PushFront(&memEntry{key: key, value: value, expiresAt: expiresAt})
	return nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Close stops the background sweep.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			s.deleteExpired()
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}

// deleteExpired must be called with the lock held.
func (s *MemoryStore) deleteExpired() {
	now := s.now()
	for _, elem := range s.data {
		if !now.Before(elem.Value.(*memEntry).expiresAt) {
			s.removeElement(elem)
		}
	}
}

func (s *MemoryStore) removeElement(elem *list.Element) {
	if elem == nil {
		return
	}
	s.order.Remove(elem)
	delete(s.data, elem.Value.(*memEntry).key)
}
