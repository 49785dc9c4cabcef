package queries

import (
	"time"

	"github.com/shopspring/decimal"

	"splaro/domain/snapshot"
)

// ListOrdersQuery requests a page of orders, optionally filtered by status
type ListOrdersQuery struct {
	ListParams
}

// Validate validates the query
func (q ListOrdersQuery) Validate() error { return q.ListParams.Validate() }

// ListUsersQuery requests a page of users. Status is ignored.
type ListUsersQuery struct {
	ListParams
}

// Validate validates the query
func (q ListUsersQuery) Validate() error { return q.ListParams.Validate() }

// ListSubscriptionsQuery requests a page of subscriptions. Status is ignored.
type ListSubscriptionsQuery struct {
	ListParams
}

// Validate validates the query
func (q ListSubscriptionsQuery) Validate() error { return q.ListParams.Validate() }

// GetAdminMetricsQuery requests the dashboard aggregate
type GetAdminMetricsQuery struct{}

// Validate validates the query
func (GetAdminMetricsQuery) Validate() error { return nil }

// ListResult is one page of a list query plus cache and staleness metadata
type ListResult[T any] struct {
	Items              []T       `json:"items"`
	Page               int       `json:"page"`
	PageSize           int       `json:"pageSize"`
	Total              int       `json:"total"`
	TotalPages         int       `json:"totalPages"`
	CacheHit           bool      `json:"cacheHit"`
	SnapshotAgeSeconds float64   `json:"snapshotAgeSeconds"`
	LastSyncTime       time.Time `json:"lastSyncTime"`
}

// Counts are the headline dashboard numbers
type Counts struct {
	Orders        int       `json:"orders"`
	Users         int       `json:"users"`
	Subscriptions int       `json:"subscriptions"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// AdminMetrics is the dashboard aggregate. Counts may come from cache while
// RecentOrders, Revenue and StatusBreakdown always reflect the current snapshot.
type AdminMetrics struct {
	Counts             Counts           `json:"counts"`
	RecentOrders       []snapshot.Order `json:"recentOrders"`
	Revenue            decimal.Decimal  `json:"revenue"`
	StatusBreakdown    map[string]int   `json:"statusBreakdown"`
	CacheHit           bool             `json:"cacheHit"`
	SnapshotAgeSeconds float64          `json:"snapshotAgeSeconds"`
	LastSyncTime       time.Time        `json:"lastSyncTime"`
}
