package services

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"splaro/application/queries"
	"splaro/domain/snapshot"
)

// minPhoneDigits keeps short numeric searches (ids, years) off the phone index
const minPhoneDigits = 6

// selectOrders applies the status filter, then search. An exact order id
// short-circuits the scan but must still pass the status filter.
func selectOrders(snap *snapshot.Snapshot, p queries.ListParams) []snapshot.Order {
	if p.Search != "" {
		if row, ok := snap.OrderByID(p.Search); ok {
			if !statusMatches(row.Record.Status, p.Status) {
				return []snapshot.Order{}
			}
			return []snapshot.Order{row.Record}
		}
	}

	out := make([]snapshot.Order, 0)
	for _, row := range snap.Orders {
		if !statusMatches(row.Record.Status, p.Status) {
			continue
		}
		if p.Search != "" && !strings.Contains(row.SearchText, p.Search) {
			continue
		}
		out = append(out, row.Record)
	}
	return out
}

// selectUsers tries the email index, then the phone index, then a substring scan
func selectUsers(snap *snapshot.Snapshot, p queries.ListParams) []snapshot.User {
	if p.Search != "" {
		if rows := snap.UsersByEmail(p.Search); len(rows) > 0 {
			return snapshot.Records(rows)
		}
		if looksLikePhone(p.Search) {
			if rows := snap.UsersByPhone(p.Search); len(rows) > 0 {
				return snapshot.Records(rows)
			}
		}
	}
	return scan(snap.Users, p.Search)
}

func selectSubscriptions(snap *snapshot.Snapshot, p queries.ListParams) []snapshot.Subscription {
	if p.Search != "" {
		if rows := snap.SubscriptionsByEmail(p.Search); len(rows) > 0 {
			return snapshot.Records(rows)
		}
	}
	return scan(snap.Subscriptions, p.Search)
}

func scan[T any](rows []snapshot.Row[T], search string) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if search == "" || strings.Contains(row.SearchText, search) {
			out = append(out, row.Record)
		}
	}
	return out
}

func statusMatches(status, filter string) bool {
	return filter == "" || strings.ToUpper(strings.TrimSpace(status)) == filter
}

func looksLikePhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= minPhoneDigits
}

// recentOrders returns the newest n orders, newest first
func recentOrders(snap *snapshot.Snapshot, n int) []snapshot.Order {
	orders := snapshot.Records(snap.Orders)
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if len(orders) > n {
		orders = orders[:n]
	}
	return orders
}

// revenue sums order totals, excluding cancelled and refunded orders
func revenue(snap *snapshot.Snapshot) decimal.Decimal {
	total := decimal.Zero
	for _, row := range snap.Orders {
		switch strings.ToUpper(row.Record.Status) {
		case snapshot.StatusCancelled, snapshot.StatusRefunded:
			continue
		}
		total = total.Add(row.Record.Total)
	}
	return total
}

func statusBreakdown(snap *snapshot.Snapshot) map[string]int {
	out := make(map[string]int)
	for _, row := range snap.Orders {
		out[strings.ToUpper(row.Record.Status)]++
	}
	return out
}
