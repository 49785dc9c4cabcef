// Package cache provides the byte-oriented key/value stores the admin query
// layer reads through, plus the selector that picks one at runtime.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// MinTTL is the shortest expiry any store accepts
const MinTTL = time.Second

// Store is a key/value cache backend. Implementations never surface backend
// failures: Get reports a miss, Set and Del become no-ops.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Del(ctx context.Context, key string)
	Name() string
	Close() error
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl < MinTTL {
		return MinTTL
	}
	return ttl
}

// GetJSON reads and decodes a JSON value. An entry that fails to decode is
// deleted and reported as a miss.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool) {
	var zero T
	data, ok := s.Get(ctx, key)
	if !ok {
		return zero, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		s.Del(ctx, key)
		return zero, false
	}
	return v, true
}

// SetJSON encodes v as JSON and stores it
func SetJSON[T any](ctx context.Context, s Store, key string, v T, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.Set(ctx, key, data, ttl)
	return nil
}

// Wrap returns the cached value for key, or computes and caches it.
// The bool result reports a cache hit. compute runs at most once and its
// error is returned without caching anything.
func Wrap[T any](ctx context.Context, s Store, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, bool, error) {
	if v, ok := GetJSON[T](ctx, s, key); ok {
		return v, true, nil
	}

	v, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}

	// unencodable values are served but left uncached
	_ = SetJSON(ctx, s, key, v, ttl)
	return v, false, nil
}
