package snapshot

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Data is the raw row set a snapshot is built from
type Data struct {
	Orders        []Order        `json:"orders" yaml:"orders"`
	Users         []User         `json:"users" yaml:"users"`
	Subscriptions []Subscription `json:"subscriptions" yaml:"subscriptions"`
}

// Snapshot is an immutable point-in-time view of operational data.
// Consumers must not modify its slices or indexes.
type Snapshot struct {
	Generation   string
	LastSyncTime time.Time

	Orders        []Row[Order]
	Users         []Row[User]
	Subscriptions []Row[Subscription]

	orderByID            map[string]int
	usersByEmail         map[string][]int
	usersByPhone         map[string][]int
	subscriptionsByEmail map[string][]int
}

// Build materializes data into a snapshot with search text and exact-match
// indexes. Row order is preserved.
func Build(data Data, lastSync time.Time) *Snapshot {
	s := &Snapshot{
		Generation:           uuid.NewString(),
		LastSyncTime:         lastSync,
		Orders:               make([]Row[Order], 0, len(data.Orders)),
		Users:                make([]Row[User], 0, len(data.Users)),
		Subscriptions:        make([]Row[Subscription], 0, len(data.Subscriptions)),
		orderByID:            make(map[string]int, len(data.Orders)),
		usersByEmail:         make(map[string][]int, len(data.Users)),
		usersByPhone:         make(map[string][]int, len(data.Users)),
		subscriptionsByEmail: make(map[string][]int, len(data.Subscriptions)),
	}

	for i, o := range data.Orders {
		s.Orders = append(s.Orders, Row[Order]{
			Record:     o,
			SearchText: searchText(o.ID, o.UserID, o.CustomerName, o.Email, o.Phone, o.Status),
		})
		if id := NormalizeKey(o.ID); id != "" {
			// first occurrence wins on duplicate ids
			if _, exists := s.orderByID[id]; !exists {
				s.orderByID[id] = i
			}
		}
	}

	for i, u := range data.Users {
		s.Users = append(s.Users, Row[User]{
			Record:     u,
			SearchText: searchText(u.ID, u.Name, u.Email, u.Phone, u.Role),
		})
		if email := NormalizeKey(u.Email); email != "" {
			s.usersByEmail[email] = append(s.usersByEmail[email], i)
		}
		if phone := NormalizePhone(u.Phone); phone != "" {
			s.usersByPhone[phone] = append(s.usersByPhone[phone], i)
		}
	}

	for i, sub := range data.Subscriptions {
		s.Subscriptions = append(s.Subscriptions, Row[Subscription]{
			Record:     sub,
			SearchText: searchText(sub.ID, sub.Email, sub.Plan, sub.Status),
		})
		if email := NormalizeKey(sub.Email); email != "" {
			s.subscriptionsByEmail[email] = append(s.subscriptionsByEmail[email], i)
		}
	}

	return s
}

// OrderByID returns the order row whose id matches exactly (case-insensitive)
func (s *Snapshot) OrderByID(id string) (Row[Order], bool) {
	i, ok := s.orderByID[NormalizeKey(id)]
	if !ok {
		return Row[Order]{}, false
	}
	return s.Orders[i], true
}

// UsersByEmail returns user rows registered under email
func (s *Snapshot) UsersByEmail(email string) []Row[User] {
	return pick(s.Users, s.usersByEmail[NormalizeKey(email)])
}

// UsersByPhone returns user rows whose phone digits equal phone's digits
func (s *Snapshot) UsersByPhone(phone string) []Row[User] {
	p := NormalizePhone(phone)
	if p == "" {
		return nil
	}
	return pick(s.Users, s.usersByPhone[p])
}

// SubscriptionsByEmail returns subscription rows for email
func (s *Snapshot) SubscriptionsByEmail(email string) []Row[Subscription] {
	return pick(s.Subscriptions, s.subscriptionsByEmail[NormalizeKey(email)])
}

// Counts returns the row counts per family
func (s *Snapshot) Counts() (orders, users, subscriptions int) {
	return len(s.Orders), len(s.Users), len(s.Subscriptions)
}

// NormalizeKey lower-cases and trims an index key
func NormalizeKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// NormalizePhone keeps only the digits of a phone number
func NormalizePhone(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func searchText(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, strings.ToLower(f))
		}
	}
	return strings.Join(parts, " ")
}

func pick[T any](rows []Row[T], idx []int) []Row[T] {
	if len(idx) == 0 {
		return nil
	}
	out := make([]Row[T], 0, len(idx))
	for _, i := range idx {
		out = append(out, rows[i])
	}
	return out
}
