// Package services implements the admin read path: cache-aside list and
// metrics queries over the current snapshot, plus cache invalidation hooks.
package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"splaro/application/ports"
	"splaro/application/queries"
	"splaro/domain/snapshot"
	"splaro/infrastructure/cache"
	"splaro/pkg/common"
	apperrors "splaro/pkg/errors"
	"splaro/pkg/observability"
)

// CacheProvider hands out the current cache backend
type CacheProvider interface {
	Store(ctx context.Context) cache.Store
	Reset()
}

// QueryConfig holds TTLs and limits for the admin read path
type QueryConfig struct {
	ListTTL        time.Duration
	MetricsTTL     time.Duration
	RecentOrders   int
	RefreshTimeout time.Duration
}

// DefaultQueryConfig returns the standard TTLs: 45s for lists, 90s for scalars
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		ListTTL:        45 * time.Second,
		MetricsTTL:     90 * time.Second,
		RecentOrders:   5,
		RefreshTimeout: 30 * time.Second,
	}
}

// AdminQueryService serves admin list and metrics queries from cache,
// falling back to the snapshot on a miss.
type AdminQueryService struct {
	cache    CacheProvider
	producer ports.SnapshotProducer
	config   QueryConfig
	logger   *zap.Logger
	metrics  *observability.Collector
	tracer   *observability.Tracer
	group    singleflight.Group
	now      func() time.Time
}

// NewAdminQueryService creates the service
func NewAdminQueryService(
	provider CacheProvider,
	producer ports.SnapshotProducer,
	config QueryConfig,
	logger *zap.Logger,
	metrics *observability.Collector,
	tracer *observability.Tracer,
) *AdminQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultQueryConfig()
	if config.ListTTL <= 0 {
		config.ListTTL = defaults.ListTTL
	}
	if config.MetricsTTL <= 0 {
		config.MetricsTTL = defaults.MetricsTTL
	}
	if config.RecentOrders <= 0 {
		config.RecentOrders = defaults.RecentOrders
	}
	if config.RefreshTimeout <= 0 {
		config.RefreshTimeout = defaults.RefreshTimeout
	}

	return &AdminQueryService{
		cache:    provider,
		producer: producer,
		config:   config,
		logger:   logger.Named("admin.query"),
		metrics:  metrics,
		tracer:   tracer,
		now:      time.Now,
	}
}

// GetOrdersList returns one page of orders
func (s *AdminQueryService) GetOrdersList(ctx context.Context, params queries.ListParams) (*queries.ListResult[snapshot.Order], error) {
	p, err := normalized(params)
	if err != nil {
		return nil, err
	}
	return readList(ctx, s, queries.FamilyOrders, queries.OrdersListKey(p), p,
		func(snap *snapshot.Snapshot) []snapshot.Order { return selectOrders(snap, p) })
}

// GetUsersList returns one page of users
func (s *AdminQueryService) GetUsersList(ctx context.Context, params queries.ListParams) (*queries.ListResult[snapshot.User], error) {
	p, err := normalized(params)
	if err != nil {
		return nil, err
	}
	return readList(ctx, s, queries.FamilyUsers, queries.UsersListKey(p), p,
		func(snap *snapshot.Snapshot) []snapshot.User { return selectUsers(snap, p) })
}

// GetSubscriptionsList returns one page of subscriptions
func (s *AdminQueryService) GetSubscriptionsList(ctx context.Context, params queries.ListParams) (*queries.ListResult[snapshot.Subscription], error) {
	p, err := normalized(params)
	if err != nil {
		return nil, err
	}
	return readList(ctx, s, queries.FamilySubscriptions, queries.SubscriptionsListKey(p), p,
		func(snap *snapshot.Snapshot) []snapshot.Subscription { return selectSubscriptions(snap, p) })
}

// GetAdminMetrics returns the dashboard aggregate. Counts and the last
// order update time are cached as independent scalars; the snapshot is
// always read for recent orders and staleness, so a full scalar hit can
// mix counts and recent orders from different snapshot generations.
func (s *AdminQueryService) GetAdminMetrics(ctx context.Context) (*queries.AdminMetrics, error) {
	ctx, span := s.tracer.Start(ctx, "admin.metrics")
	store := s.cache.Store(ctx)

	ordersCount, okOrders := cache.GetJSON[int](ctx, store, queries.KeyOrdersCount)
	usersCount, okUsers := cache.GetJSON[int](ctx, store, queries.KeyUsersCount)
	subsCount, okSubs := cache.GetJSON[int](ctx, store, queries.KeySubscriptionsCount)
	lastUpdated, okLast := cache.GetJSON[time.Time](ctx, store, queries.KeyOrdersLastUpdatedAt)
	allHit := okOrders && okUsers && okSubs && okLast
	s.metrics.RecordCacheLookup(queries.FamilyMetrics, allHit)

	snap, err := s.snapshot(ctx)
	if err != nil {
		observability.End(span, err)
		return nil, err
	}

	orders, users, subs := snap.Counts()
	if !okOrders {
		ordersCount = orders
		s.setScalar(ctx, store, queries.KeyOrdersCount, ordersCount)
	}
	if !okUsers {
		usersCount = users
		s.setScalar(ctx, store, queries.KeyUsersCount, usersCount)
	}
	if !okSubs {
		subsCount = subs
		s.setScalar(ctx, store, queries.KeySubscriptionsCount, subsCount)
	}
	if !okLast {
		lastUpdated = snap.LastSyncTime
		s.setScalar(ctx, store, queries.KeyOrdersLastUpdatedAt, lastUpdated)
	}

	if !allHit {
		s.triggerRefresh()
	}

	span.SetAttributes(attribute.Bool("cache.hit", allHit))
	observability.End(span, nil)

	return &queries.AdminMetrics{
		Counts: queries.Counts{
			Orders:        ordersCount,
			Users:         usersCount,
			Subscriptions: subsCount,
			LastUpdatedAt: lastUpdated,
		},
		RecentOrders:       recentOrders(snap, s.config.RecentOrders),
		Revenue:            revenue(snap),
		StatusBreakdown:    statusBreakdown(snap),
		CacheHit:           allHit,
		SnapshotAgeSeconds: s.producer.SnapshotAgeSeconds(snap),
		LastSyncTime:       snap.LastSyncTime,
	}, nil
}

func normalized(params queries.ListParams) (queries.ListParams, error) {
	p := params.Normalize()
	if err := queries.GetValidator().Struct(&p); err != nil {
		return queries.ListParams{}, err
	}
	return p, nil
}

// readList is the cache-aside path shared by the list families. Concurrent
// misses on one key share a single snapshot scan.
func readList[T any](
	ctx context.Context,
	s *AdminQueryService,
	family, key string,
	p queries.ListParams,
	selectRows func(*snapshot.Snapshot) []T,
) (*queries.ListResult[T], error) {
	ctx, span := s.tracer.Start(ctx, "admin.list",
		attribute.String("cache.family", family),
		attribute.String("cache.key", key))

	store := s.cache.Store(ctx)
	res, hit, err := cache.Wrap(ctx, store, key, s.config.ListTTL, func(ctx context.Context) (queries.ListResult[T], error) {
		// joined callers must not inherit the first caller's cancellation
		shared := context.WithoutCancel(ctx)
		v, err, _ := s.group.Do(key, func() (interface{}, error) {
			snap, err := s.snapshot(shared)
			if err != nil {
				return nil, err
			}

			rows := selectRows(snap)
			items, page, totalPages := common.Paginate(rows, p.Page, p.PageSize)
			return queries.ListResult[T]{
				Items:              items,
				Page:               page,
				PageSize:           p.PageSize,
				Total:              len(rows),
				TotalPages:         totalPages,
				SnapshotAgeSeconds: s.producer.SnapshotAgeSeconds(snap),
				LastSyncTime:       snap.LastSyncTime,
			}, nil
		})
		if err != nil {
			return queries.ListResult[T]{}, err
		}
		return v.(queries.ListResult[T]), nil
	})
	if err != nil {
		observability.End(span, err)
		return nil, err
	}

	s.metrics.RecordCacheLookup(family, hit)
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	observability.End(span, nil)

	res.CacheHit = hit
	if hit {
		res.SnapshotAgeSeconds = s.ageSince(res.LastSyncTime)
	} else {
		s.triggerRefresh()
	}
	return &res, nil
}

func (s *AdminQueryService) snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	snap, err := s.producer.GetSnapshot(ctx)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewUnavailableError("snapshot").
			WithCode(apperrors.CodeSnapshotUnavailable).
			WithCause(err)
	}
	if snap == nil {
		return nil, apperrors.NewUnavailableError("snapshot").
			WithCode(apperrors.CodeSnapshotUnavailable)
	}
	s.metrics.SetSnapshotAge(s.producer.SnapshotAgeSeconds(snap))
	return snap, nil
}

func (s *AdminQueryService) setScalar(ctx context.Context, store cache.Store, key string, v interface{}) {
	if err := cache.SetJSON(ctx, store, key, v, s.config.MetricsTTL); err != nil {
		s.logger.Warn("Failed to cache metric", zap.String("key", key), zap.Error(err))
	}
}

func (s *AdminQueryService) ageSince(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	age := s.now().Sub(t).Seconds()
	if age < 0 {
		return 0
	}
	return age
}

// triggerRefresh asks the producer to refresh in the background. The
// caller never waits and never sees the outcome.
func (s *AdminQueryService) triggerRefresh() {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.metrics.RecordRefreshFailure()
				s.logger.Error("Snapshot refresh panicked", zap.String("panic", fmt.Sprint(r)))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.config.RefreshTimeout)
		defer cancel()

		if err := s.producer.TriggerRefreshIfStale(ctx); err != nil {
			s.metrics.RecordRefreshFailure()
			s.logger.Warn("Snapshot refresh failed", zap.Error(err))
		}
	}()
}
