package session

import (
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

type entry struct {
	payload   Payload
	expiresAt time.Time
}

// MemoryStore is a thread-safe in-memory Store. Entries are lost on
// process restart, which is acceptable for interaction sessions.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory session store and starts its
// background sweep of expired entries.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		data:   make(map[string]entry),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Close stops the background sweep goroutine.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *MemoryStore) Put(key string, payload Payload, ttl time.Duration) {
	s.mu.Lock()
	s.data[key] = entry{payload: payload, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
}

func (s *MemoryStore) Get(key string) (Payload, bool) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().After(e.expiresAt) {
		s.Delete(key)
		return nil, false
	}
	return e.payload, true
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	now := s.now()
	for _, e := range s.data {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweepExpired()
		}
	}
}

func (s *MemoryStore) sweepExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, e := range s.data {
		if now.After(e.expiresAt) {
			delete(s.data, key)
		}
	}
}
