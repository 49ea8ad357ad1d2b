// Package ttlmap provides the mutex-guarded map-with-expiry idiom used
// throughout the codebase for dedup sets, pending state, and lockout
// counters.
package ttlmap

import (
	"sync"
	"time"
)

// Map is a generic key/value store where every entry carries an expiry.
// Expired entries are purged opportunistically on access; O(n) periodic
// purges are acceptable at the message rates involved.
type Map[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]entry[V]
}

type entry[V any] struct {
	value    V
	expireAt time.Time
}

// New builds an empty Map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{entries: make(map[K]entry[V])}
}

// Set stores value under key with the given TTL.
func (m *Map[K, V]) Set(key K, value V, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry[V]{value: value, expireAt: time.Now().Add(ttl)}
}

// Get returns the value for key and whether it is present and unexpired.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || time.Now().After(e.expireAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// SetIfAbsent stores value under key only if key is absent or expired,
// returning true if it was stored (i.e. key was "new"). This backs the
// dedup SET NX EX idiom for both inbound and outbound dedup.
func (m *Map[K, V]) SetIfAbsent(key K, value V, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok && time.Now().Before(e.expireAt) {
		return false
	}
	m.entries[key] = entry[V]{value: value, expireAt: time.Now().Add(ttl)}
	return true
}

// Delete removes key unconditionally (used to implement consume-once reads).
func (m *Map[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Take returns and removes the value for key if present and unexpired.
func (m *Map[K, V]) Take(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || time.Now().After(e.expireAt) {
		var zero V
		return zero, false
	}
	delete(m.entries, key)
	return e.value, true
}

// Purge removes all expired entries. Safe to call periodically or never;
// Get/SetIfAbsent/Take already treat expired entries as absent.
func (m *Map[K, V]) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	n := 0
	for k, e := range m.entries {
		if now.After(e.expireAt) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Len returns the current entry count, including any not-yet-purged expired
// entries.
func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
