// Package cache stores raw upstream payloads keyed by request.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/airbuddy/airbuddy-api/internal/metrics"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is the contract shared by the redis and in-memory backends.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Instrumented records hit/miss/error counts for the wrapped backend.
type Instrumented struct {
	backend string
	next    Cache
}

// Instrument wraps c so every lookup is counted under the given backend label.
func Instrument(backend string, c Cache) *Instrumented {
	return &Instrumented{backend: backend, next: c}
}

func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := i.next.Get(ctx, key)
	switch {
	case err == nil:
		metrics.CacheResults.WithLabelValues(i.backend, "hit").Inc()
	case errors.Is(err, ErrMiss):
		metrics.CacheResults.WithLabelValues(i.backend, "miss").Inc()
	default:
		metrics.CacheResults.WithLabelValues(i.backend, "error").Inc()
	}
	return b, err
}

func (i *Instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return i.next.Set(ctx, key, value, ttl)
}
