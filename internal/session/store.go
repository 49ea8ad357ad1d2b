package session

import (
	"context"
	"time"
)

// Store is the session persistence interface.
type Store interface {
	Save(ctx context.Context, key string, entry *Entry, ttl time.Duration) error
	Get(ctx context.Context, key string) (*Entry, error) // nil, nil if missing
	Delete(ctx context.Context, key string) error
	Extend(ctx context.Context, key string, ttl time.Duration) error
	GetAll(ctx context.Context) (map[string]*Entry, error)
}
