package services

import (
	"context"

	"go.uber.org/zap"

	"splaro/application/queries"
)

// InvalidateOrderCaches drops the order scalars after an out-of-band order
// write. List pages are left to expire on their own TTL.
func (s *AdminQueryService) InvalidateOrderCaches(ctx context.Context) {
	store := s.cache.Store(ctx)
	store.Del(ctx, queries.KeyOrdersCount)
	store.Del(ctx, queries.KeyOrdersLastUpdatedAt)

	s.logger.Debug("Order caches invalidated")
}

// ClearCaches deletes every well-known key, then resets the backend
// selection so the next read starts from a fresh store.
func (s *AdminQueryService) ClearCaches(ctx context.Context) {
	store := s.cache.Store(ctx)

	keys := append(queries.MetricsScalarKeys(), queries.DefaultListKeys()...)
	for _, key := range keys {
		store.Del(ctx, key)
	}
	s.cache.Reset()

	s.logger.Info("Admin caches cleared",
		zap.String("backend", store.Name()),
		zap.Int("keys", len(keys)))
}
