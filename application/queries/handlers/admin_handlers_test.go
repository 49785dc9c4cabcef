package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"splaro/application/queries"
	"splaro/application/queries/bus"
	"splaro/domain/snapshot"
	apperrors "splaro/pkg/errors"
)

type MockAdminReader struct {
	mock.Mock
}

func (m *MockAdminReader) GetOrdersList(ctx context.Context, params queries.ListParams) (*queries.ListResult[snapshot.Order], error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queries.ListResult[snapshot.Order]), args.Error(1)
}

func (m *MockAdminReader) GetUsersList(ctx context.Context, params queries.ListParams) (*queries.ListResult[snapshot.User], error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queries.ListResult[snapshot.User]), args.Error(1)
}

func (m *MockAdminReader) GetSubscriptionsList(ctx context.Context, params queries.ListParams) (*queries.ListResult[snapshot.Subscription], error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queries.ListResult[snapshot.Subscription]), args.Error(1)
}

func (m *MockAdminReader) GetAdminMetrics(ctx context.Context) (*queries.AdminMetrics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queries.AdminMetrics), args.Error(1)
}

func newBus(t *testing.T, reader AdminReader) *bus.QueryBus {
	t.Helper()
	b := bus.NewQueryBus()
	require.NoError(t, RegisterAdminQueries(b, reader))
	return b
}

func TestRegisterAdminQueries_RoutesOrders(t *testing.T) {
	reader := new(MockAdminReader)
	params := queries.ListParams{Page: 2, PageSize: 10, Status: "SHIPPED"}
	want := &queries.ListResult[snapshot.Order]{Page: 2, PageSize: 10, Total: 11}
	reader.On("GetOrdersList", mock.Anything, params).Return(want, nil)

	got, err := bus.Ask[*queries.ListResult[snapshot.Order]](context.Background(), newBus(t, reader),
		queries.ListOrdersQuery{ListParams: params})

	require.NoError(t, err)
	assert.Same(t, want, got)
	reader.AssertExpectations(t)
}

func TestRegisterAdminQueries_RoutesUsersAndSubscriptions(t *testing.T) {
	reader := new(MockAdminReader)
	users := &queries.ListResult[snapshot.User]{Total: 3}
	subs := &queries.ListResult[snapshot.Subscription]{Total: 4}
	reader.On("GetUsersList", mock.Anything, queries.ListParams{Search: "nadia"}).Return(users, nil)
	reader.On("GetSubscriptionsList", mock.Anything, queries.ListParams{}).Return(subs, nil)
	b := newBus(t, reader)

	gotUsers, err := bus.Ask[*queries.ListResult[snapshot.User]](context.Background(), b,
		queries.ListUsersQuery{ListParams: queries.ListParams{Search: "nadia"}})
	require.NoError(t, err)
	gotSubs, err := bus.Ask[*queries.ListResult[snapshot.Subscription]](context.Background(), b,
		queries.ListSubscriptionsQuery{})
	require.NoError(t, err)

	assert.Equal(t, 3, gotUsers.Total)
	assert.Equal(t, 4, gotSubs.Total)
	reader.AssertExpectations(t)
}

func TestRegisterAdminQueries_Metrics(t *testing.T) {
	reader := new(MockAdminReader)
	want := &queries.AdminMetrics{CacheHit: true}
	reader.On("GetAdminMetrics", mock.Anything).Return(want, nil)

	got, err := bus.Ask[*queries.AdminMetrics](context.Background(), newBus(t, reader), queries.GetAdminMetricsQuery{})

	require.NoError(t, err)
	assert.True(t, got.CacheHit)
}

func TestRegisterAdminQueries_InvalidQueryNeverReachesReader(t *testing.T) {
	reader := new(MockAdminReader)

	_, err := newBus(t, reader).Ask(context.Background(),
		queries.ListOrdersQuery{ListParams: queries.ListParams{PageSize: 500}})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	reader.AssertNotCalled(t, "GetOrdersList", mock.Anything, mock.Anything)
}

func TestRegisterAdminQueries_PropagatesReaderError(t *testing.T) {
	reader := new(MockAdminReader)
	unavailable := apperrors.NewUnavailableError("snapshot").WithCode(apperrors.CodeSnapshotUnavailable)
	reader.On("GetAdminMetrics", mock.Anything).Return(nil, unavailable)

	_, err := newBus(t, reader).Ask(context.Background(), queries.GetAdminMetricsQuery{})

	assert.True(t, apperrors.IsUnavailable(err))
}

func TestRegisterAdminQueries_Twice(t *testing.T) {
	b := bus.NewQueryBus()
	reader := new(MockAdminReader)

	require.NoError(t, RegisterAdminQueries(b, reader))
	assert.Error(t, RegisterAdminQueries(b, reader))
}
