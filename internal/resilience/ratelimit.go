package resilience

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a per-key token bucket, guarded by one mutex, with idle
// keys purged opportunistically on lookup. Capacity and window express an
// N-messages-per-window model.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucketEntry
	capacity int
	window   time.Duration
	idleTTL  time.Duration
}

type bucketEntry struct {
	limiter    *rate.Limiter
	lastSeenAt time.Time
}

// NewRateLimiter builds a limiter allowing capacity messages per window,
// per key.
func NewRateLimiter(capacity int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucketEntry),
		capacity: capacity,
		window:   window,
		idleTTL:  10 * time.Minute,
	}
}

// Allow reports whether a message for key is allowed right now, consuming a
// token if so.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.purgeLocked()

	e, ok := r.buckets[key]
	if !ok {
		refillPerSecond := float64(r.capacity) / r.window.Seconds()
		e = &bucketEntry{limiter: rate.NewLimiter(rate.Limit(refillPerSecond), r.capacity)}
		r.buckets[key] = e
	}
	e.lastSeenAt = time.Now()
	return e.limiter.Allow()
}

func (r *RateLimiter) purgeLocked() {
	cutoff := time.Now().Add(-r.idleTTL)
	for k, e := range r.buckets {
		if e.lastSeenAt.Before(cutoff) {
			delete(r.buckets, k)
		}
	}
}
