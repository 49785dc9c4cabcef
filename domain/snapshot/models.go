// Package snapshot holds the read-only, in-memory materialization of
// operational records (orders, users, subscriptions) that admin queries are
// served from, together with its exact-match indexes.
package snapshot

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses known to the admin console
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusShipped    = "SHIPPED"
	StatusDelivered  = "DELIVERED"
	StatusCancelled  = "CANCELLED"
	StatusRefunded   = "REFUNDED"
)

// Order is one storefront order as seen by the admin console
type Order struct {
	ID           string          `json:"id" yaml:"id"`
	UserID       string          `json:"userId" yaml:"user_id"`
	CustomerName string          `json:"customerName" yaml:"customer_name"`
	Email        string          `json:"email" yaml:"email"`
	Phone        string          `json:"phone" yaml:"phone"`
	Status       string          `json:"status" yaml:"status"`
	Total        decimal.Decimal `json:"total" yaml:"total"`
	Currency     string          `json:"currency" yaml:"currency"`
	ItemCount    int             `json:"itemCount" yaml:"item_count"`
	CreatedAt    time.Time       `json:"createdAt" yaml:"created_at"`
}

// User is a storefront customer or staff account
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Phone     string    `json:"phone" yaml:"phone"`
	Role      string    `json:"role" yaml:"role"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// Subscription is a newsletter or plan subscription tied to an email
type Subscription struct {
	ID        string    `json:"id" yaml:"id"`
	Email     string    `json:"email" yaml:"email"`
	Plan      string    `json:"plan" yaml:"plan"`
	Status    string    `json:"status" yaml:"status"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// Row pairs a record with its precomputed lowercase search text
type Row[T any] struct {
	Record     T
	SearchText string
}

// Records strips the search text from rows
func Records[T any](rows []Row[T]) []T {
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = r.Record
	}
	return out
}
