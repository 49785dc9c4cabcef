package handlers

import (
	"context"
	"fmt"

	"splaro/application/queries"
	"splaro/application/queries/bus"
	"splaro/domain/snapshot"
)

// AdminReader is the read side the admin query handlers delegate to
type AdminReader interface {
	GetOrdersList(ctx context.Context, params queries.ListParams) (*queries.ListResult[snapshot.Order], error)
	GetUsersList(ctx context.Context, params queries.ListParams) (*queries.ListResult[snapshot.User], error)
	GetSubscriptionsList(ctx context.Context, params queries.ListParams) (*queries.ListResult[snapshot.Subscription], error)
	GetAdminMetrics(ctx context.Context) (*queries.AdminMetrics, error)
}

// RegisterAdminQueries registers the admin list and metrics handlers on b
func RegisterAdminQueries(b *bus.QueryBus, reader AdminReader) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandlerFunc
	}{
		{queries.ListOrdersQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return reader.GetOrdersList(ctx, q.(queries.ListOrdersQuery).ListParams)
		}},
		{queries.ListUsersQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return reader.GetUsersList(ctx, q.(queries.ListUsersQuery).ListParams)
		}},
		{queries.ListSubscriptionsQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return reader.GetSubscriptionsList(ctx, q.(queries.ListSubscriptionsQuery).ListParams)
		}},
		{queries.GetAdminMetricsQuery{}, func(ctx context.Context, _ bus.Query) (interface{}, error) {
			return reader.GetAdminMetrics(ctx)
		}},
	}

	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return fmt.Errorf("register %T: %w", r.query, err)
		}
	}
	return nil
}
