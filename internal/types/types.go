// Package types defines core data structures for the issuesnap mirror.
package types

import (
	"strings"
	"time"
)

// Issue is a normalized issue record as fetched from the upstream tracker.
// Records are produced fresh on every fetch and never mutated afterwards.
type Issue struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Status    Status     `json:"state"`
	URL       string     `json:"html_url"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at"`
	Author    string     `json:"user"`
	Labels    []string   `json:"labels"`
	Assignees []string   `json:"assignees"`
	Comments  int        `json:"comments"`
	Milestone *string    `json:"milestone"`
	Body      string     `json:"body"`
}

// IsOpen reports whether the issue is currently open.
func (i *Issue) IsOpen() bool {
	return i.Status == StatusOpen
}

// Status is the upstream state of an issue.
type Status string

// Issue status constants
const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// IsValid checks if the status value is one the tracker reports.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusClosed:
		return true
	}
	return false
}

// ParseStatus lowercases a raw upstream state. Unknown values are returned
// as-is so callers can decide how strict to be.
func ParseStatus(raw string) Status {
	return Status(strings.ToLower(strings.TrimSpace(raw)))
}

// SplitByStatus partitions issues into open and closed subsets, preserving order.
// Issues with any status other than open land in the closed subset.
func SplitByStatus(issues []Issue) (open, closed []Issue) {
	open = make([]Issue, 0, len(issues))
	closed = make([]Issue, 0, len(issues))
	for _, it := range issues {
		if it.IsOpen() {
			open = append(open, it)
		} else {
			closed = append(closed, it)
		}
	}
	return open, closed
}
