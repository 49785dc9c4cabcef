package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "splaro/domain/snapshot"
	apperrors "splaro/pkg/errors"
)

const fixture = `
orders:
  - id: ORD-1
    email: a@example.com
    status: PENDING
    total: "10.50"
    created_at: 2026-10-01T09:30:00Z
  - id: ORD-2
    email: b@example.com
    status: SHIPPED
    total: "20"
    created_at: 2026-10-02T09:30:00Z
users:
  - id: USR-1
    email: a@example.com
    phone: "+1 555 0100"
subscriptions:
  - id: SUB-1
    email: a@example.com
`

func newProducer(t *testing.T, body string, cfg ProducerConfig) (*FileProducer, *time.Time) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg.Path = path

	p := NewFileProducer(cfg, zap.NewNop())
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }
	return p, &now
}

func TestFileProducer_LoadsFixture(t *testing.T) {
	p, _ := newProducer(t, fixture, ProducerConfig{})

	s, err := p.GetSnapshot(context.Background())
	require.NoError(t, err)

	orders, users, subs := s.Counts()
	assert.Equal(t, 2, orders)
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, subs)
	row, ok := s.OrderByID("ord-2")
	require.True(t, ok)
	assert.Equal(t, "20", row.Record.Total.String())
	assert.Len(t, s.UsersByPhone("15550100"), 1)
}

func TestFileProducer_SnapshotIsReused(t *testing.T) {
	p, _ := newProducer(t, fixture, ProducerConfig{})

	a, err := p.GetSnapshot(context.Background())
	require.NoError(t, err)
	b, err := p.GetSnapshot(context.Background())
	require.NoError(t, err)

	assert.Same(t, a, b)
}

func TestFileProducer_MissingFileIsUnavailable(t *testing.T) {
	p := NewFileProducer(ProducerConfig{Path: filepath.Join(t.TempDir(), "nope.yaml")}, nil)

	_, err := p.GetSnapshot(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
	assert.Equal(t, apperrors.CodeSnapshotUnavailable, apperrors.GetAppError(err).Code)
}

func TestFileProducer_MalformedFixture(t *testing.T) {
	p, _ := newProducer(t, "orders: {not: [a list", ProducerConfig{})

	_, err := p.GetSnapshot(context.Background())

	assert.True(t, apperrors.IsUnavailable(err))
}

func TestFileProducer_Age(t *testing.T) {
	p, now := newProducer(t, fixture, ProducerConfig{})
	s, err := p.GetSnapshot(context.Background())
	require.NoError(t, err)

	*now = now.Add(90 * time.Second)

	assert.InDelta(t, 90, p.SnapshotAgeSeconds(s), 0.001)
	assert.Zero(t, p.SnapshotAgeSeconds(nil))
}

func TestFileProducer_TriggerRefreshIfStale(t *testing.T) {
	p, now := newProducer(t, fixture, ProducerConfig{MaxAge: time.Minute})
	first, err := p.GetSnapshot(context.Background())
	require.NoError(t, err)

	*now = now.Add(30 * time.Second)
	require.NoError(t, p.TriggerRefreshIfStale(context.Background()))
	same, _ := p.GetSnapshot(context.Background())
	assert.Same(t, first, same, "fresh snapshot is kept")

	*now = now.Add(time.Minute)
	require.NoError(t, p.TriggerRefreshIfStale(context.Background()))
	next, _ := p.GetSnapshot(context.Background())
	assert.NotEqual(t, first.Generation, next.Generation)
	assert.Equal(t, *now, next.LastSyncTime)
}

func TestFileProducer_ConcurrentRefreshesShareLoads(t *testing.T) {
	p, _ := newProducer(t, fixture, ProducerConfig{})

	var wg sync.WaitGroup
	results := make([]*domain.Snapshot, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := p.Refresh(context.Background())
			assert.NoError(t, err)
			results[i] = s
		}(i)
	}
	wg.Wait()

	current, err := p.GetSnapshot(context.Background())
	require.NoError(t, err)
	for _, s := range results {
		require.NotNil(t, s)
	}
	assert.NotNil(t, current)
}

func TestFileProducer_RefreshHonoursCancelledContext(t *testing.T) {
	p, _ := newProducer(t, fixture, ProducerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Refresh(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileProducer_UpdateOrderStatus(t *testing.T) {
	p, _ := newProducer(t, fixture, ProducerConfig{MaxAge: time.Hour})
	before, err := p.GetSnapshot(context.Background())
	require.NoError(t, err)

	require.NoError(t, p.UpdateOrderStatus(context.Background(), "ORD-1", domain.StatusShipped))

	unchanged, _ := p.GetSnapshot(context.Background())
	assert.Same(t, before, unchanged, "writes become visible on the next refresh")

	require.NoError(t, p.TriggerRefreshIfStale(context.Background()))
	after, _ := p.GetSnapshot(context.Background())
	row, ok := after.OrderByID("ORD-1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusShipped, row.Record.Status)

	// stale flag is cleared by the refresh
	require.NoError(t, p.TriggerRefreshIfStale(context.Background()))
	again, _ := p.GetSnapshot(context.Background())
	assert.Same(t, after, again)
}

func TestFileProducer_UpdateUnknownOrder(t *testing.T) {
	p, _ := newProducer(t, fixture, ProducerConfig{})

	err := p.UpdateOrderStatus(context.Background(), "ORD-404", domain.StatusShipped)

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, apperrors.CodeOrderNotFound, apperrors.GetAppError(err).Code)
}

func TestFileProducer_SchedulerRefreshesAndStops(t *testing.T) {
	p, _ := newProducer(t, fixture, ProducerConfig{RefreshInterval: 10 * time.Millisecond})
	first, err := p.GetSnapshot(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	p.StartScheduler(ctx)
	p.StartScheduler(ctx)

	assert.Eventually(t, func() bool {
		s, _ := p.GetSnapshot(context.Background())
		return s.Generation != first.Generation
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
}
