package queries

import (
	"strconv"
	"strings"

	"splaro/pkg/common"
)

// Cache key families
const (
	FamilyOrders        = "orders"
	FamilyUsers         = "users"
	FamilySubscriptions = "subs"
	FamilyMetrics       = "metrics"
)

// Scalar keys backing the admin metrics aggregate
const (
	KeyOrdersCount         = "orders:count"
	KeyUsersCount          = "users:count"
	KeySubscriptionsCount  = "subs:count"
	KeyOrdersLastUpdatedAt = "orders:lastUpdatedAt"
)

// ListParams selects one page of a filtered, searched list
type ListParams struct {
	Page     int    `json:"page" validate:"gte=1"`
	PageSize int    `json:"pageSize" validate:"gte=1,lte=100"`
	Search   string `json:"q" validate:"max=200"`
	Status   string `json:"status" validate:"max=32,statuscode"`
}

// Normalize returns a copy with defaults applied, search lower-cased and
// trimmed, status upper-cased and trimmed. Normalizing twice is a no-op.
func (p ListParams) Normalize() ListParams {
	if p.Page == 0 {
		p.Page = common.DefaultPage
	}
	if p.PageSize == 0 {
		p.PageSize = common.DefaultPageSize
	}
	p.Search = strings.ToLower(strings.TrimSpace(p.Search))
	p.Status = strings.ToUpper(strings.TrimSpace(p.Status))
	return p
}

// Validate checks the normalized form of p
func (p ListParams) Validate() error {
	n := p.Normalize()
	return GetValidator().Struct(&n)
}

// FromPagination converts HTTP pagination params
func FromPagination(pp common.PaginationParams) ListParams {
	return ListParams{
		Page:     pp.Page,
		PageSize: pp.PageSize,
		Search:   pp.Search,
		Status:   pp.Status,
	}
}

// OrdersListKey is the cache key for an orders page. p must be normalized.
func OrdersListKey(p ListParams) string {
	return listKey(FamilyOrders, p) + ":status:" + p.Status
}

// UsersListKey is the cache key for a users page. p must be normalized.
func UsersListKey(p ListParams) string {
	return listKey(FamilyUsers, p)
}

// SubscriptionsListKey is the cache key for a subscriptions page. p must be normalized.
func SubscriptionsListKey(p ListParams) string {
	return listKey(FamilySubscriptions, p)
}

func listKey(family string, p ListParams) string {
	var b strings.Builder
	b.WriteString(family)
	b.WriteString(":list:page:")
	b.WriteString(strconv.Itoa(p.Page))
	b.WriteString(":size:")
	b.WriteString(strconv.Itoa(p.PageSize))
	b.WriteString(":q:")
	b.WriteString(p.Search)
	return b.String()
}

// MetricsScalarKeys lists the scalar keys of the metrics aggregate
func MetricsScalarKeys() []string {
	return []string{KeyOrdersCount, KeyUsersCount, KeySubscriptionsCount, KeyOrdersLastUpdatedAt}
}

// DefaultListKeys are the first-page keys an admin console loads on open
func DefaultListKeys() []string {
	p := ListParams{}.Normalize()
	return []string{OrdersListKey(p), UsersListKey(p), SubscriptionsListKey(p)}
}
