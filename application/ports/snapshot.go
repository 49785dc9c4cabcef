// Package ports declares the collaborators the admin query layer depends on
// but does not own.
package ports

import (
	"context"

	"splaro/domain/snapshot"
)

// SnapshotProducer serves the most recently materialized snapshot of
// operational data and refreshes it in the background.
type SnapshotProducer interface {
	// GetSnapshot returns the current snapshot. It fails only when no
	// snapshot has ever been materialized.
	GetSnapshot(ctx context.Context) (*snapshot.Snapshot, error)

	// SnapshotAgeSeconds reports how long ago s was synced.
	SnapshotAgeSeconds(s *snapshot.Snapshot) float64

	// TriggerRefreshIfStale starts a refresh when the snapshot is older than
	// the producer's maximum age. Concurrent triggers share one refresh.
	TriggerRefreshIfStale(ctx context.Context) error

	// StartScheduler starts periodic refreshes until ctx is done. Calling it
	// more than once has no further effect.
	StartScheduler(ctx context.Context)
}

// OrderStatusWriter persists order status changes in the system of record
type OrderStatusWriter interface {
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
}
