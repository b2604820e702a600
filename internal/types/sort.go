package types

import (
	"sort"
	"time"
)

// NewerFirst reports whether a should sort before b when ordering by update
// time descending. Missing timestamps sort last.
func NewerFirst(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	}
	return a.After(*b)
}

// SortByUpdatedDesc orders issues most recently updated first. The sort is
// stable so equal timestamps keep their fetch order.
func SortByUpdatedDesc(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return NewerFirst(issues[i].UpdatedAt, issues[j].UpdatedAt)
	})
}
