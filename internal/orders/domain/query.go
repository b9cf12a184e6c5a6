package domain

import (
	"sort"
	"strings"
	"time"
)

// Sort keys for Query.
const (
	SortByCreatedAt = "createdAt"
	SortByTotal     = "total"
	SortByStatus    = "status"
	SortByID        = "id"
)

// StatusAll disables the status filter.
const StatusAll = "All"

// Query narrows and orders a list of orders for the back office.
type Query struct {
	Status string
	Search string
	SortBy string
	Desc   bool
}

// Apply returns the matching orders without modifying the input. Search is
// a case-insensitive substring of id, name or email.
func (q Query) Apply(orders []Order) []Order {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if q.Status != "" && q.Status != StatusAll && o.Status != q.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(o.ID), search) &&
			!strings.Contains(strings.ToLower(o.Name), search) &&
			!strings.Contains(strings.ToLower(o.UserEmail), search) {
			continue
		}
		out = append(out, o)
	}

	less := q.less()
	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func (q Query) less() func(a, b Order) bool {
	switch q.SortBy {
	case SortByTotal:
		return func(a, b Order) bool { return a.Total < b.Total }
	case SortByStatus:
		return func(a, b Order) bool { return a.Status < b.Status }
	case SortByID:
		return func(a, b Order) bool { return a.ID < b.ID }
	default:
		return func(a, b Order) bool { return createdAt(a).Before(createdAt(b)) }
	}
}

func createdAt(o Order) time.Time {
	t, err := time.Parse(time.RFC3339Nano, o.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}
