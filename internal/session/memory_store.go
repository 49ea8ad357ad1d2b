package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MemoryStore is an in-process Store implementation: a mutex-guarded map
// with lazily-purged expiry.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	log     *logrus.Entry

	stop chan struct{}
}

// NewMemoryStore builds a MemoryStore and starts its background cleanup
// loop (30s ticker).
func NewMemoryStore(log *logrus.Entry) *MemoryStore {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &MemoryStore{
		entries: make(map[string]*Entry),
		log:     log,
		stop:    make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for k, e := range s.entries {
		if !e.ExpireAt.IsZero() && now.After(e.ExpireAt) {
			delete(s.entries, k)
			removed++
		}
	}
	if removed > 0 {
		s.log.WithField("count", removed).Debug("expired sessions purged")
	}
}

// Stop halts the background cleanup loop.
func (s *MemoryStore) Stop() { close(s.stop) }

func (s *MemoryStore) Save(_ context.Context, key string, entry *Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := entry.Clone()
	cp.UpdatedAt = time.Now()
	if ttl > 0 {
		cp.ExpireAt = time.Now().Add(ttl)
	}
	s.entries[key] = cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if !e.ExpireAt.IsZero() && time.Now().After(e.ExpireAt) {
		return nil, nil
	}
	return e.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) Extend(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		e.ExpireAt = time.Now().Add(ttl)
	}
	return nil
}

func (s *MemoryStore) GetAll(_ context.Context) (map[string]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*Entry, len(s.entries))
	for k, e := range s.entries {
		out[k] = e.Clone()
	}
	return out, nil
}
