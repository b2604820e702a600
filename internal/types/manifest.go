package types

import "time"

// Manifest describes one capture. Mode is the mode actually executed;
// RequestedMode and FallbackReason record when that differs from what the
// caller asked for.
type Manifest struct {
	CaptureID        string                 `json:"capture_id"`
	GeneratedAt      time.Time              `json:"generated_at"`
	Mode             Mode                   `json:"mode"`
	RequestedMode    Mode                   `json:"requested_mode"`
	FallbackReason   string                 `json:"fallback_reason,omitempty"`
	Repo             string                 `json:"repo"`
	Since            *time.Time             `json:"since,omitempty"`
	IssueCountTotal  int                    `json:"issue_count_total"`
	IssueCountOpen   int                    `json:"issue_count_open"`
	IssueCountClosed int                    `json:"issue_count_closed"`
	CategoryCounts   map[ChangeCategory]int `json:"category_counts,omitempty"`
	RelevanceCounts  map[string]int         `json:"relevance_counts"`
	Notes            string                 `json:"notes"`
}
