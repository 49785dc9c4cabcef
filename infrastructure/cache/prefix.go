package cache

import (
	"context"
	"time"
)

type prefixedStore struct {
	inner  Store
	prefix string
}

// WithPrefix namespaces every key of s under prefix + ":"
func WithPrefix(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return &prefixedStore{inner: s, prefix: prefix + ":"}
}

func (p *prefixedStore) Get(ctx context.Context, key string) ([]byte, bool) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	p.inner.Set(ctx, p.prefix+key, value, ttl)
}

func (p *prefixedStore) Del(ctx context.Context, key string) {
	p.inner.Del(ctx, p.prefix+key)
}

func (p *prefixedStore) Name() string { return p.inner.Name() }

func (p *prefixedStore) Close() error { return p.inner.Close() }
