// Package github fetches issues from the GitHub REST API and normalizes
// them into the mirror's issue records.
package github

import (
	"net/http"
	"time"
)

const (
	DefaultAPIEndpoint = "https://api.github.com"
	DefaultTimeout     = 30 * time.Second

	// Retries apply to 403/429 rate-limit responses and 5xx errors only.
	MaxRetries = 3
	RetryDelay = time.Second

	MaxPageSize = 100
	// MaxPages bounds a fetch when the Link header never stops advancing.
	MaxPages = 1000
)

// Client pages through one repository's issues endpoint.
type Client struct {
	Token      string // anonymous when empty
	Owner      string
	Repo       string
	BaseURL    string
	HTTPClient *http.Client
	RetryDelay time.Duration
}

// Issue represents an issue as returned by the GitHub issues endpoint.
type Issue struct {
	ID          int        `json:"id"`
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	Body        *string    `json:"body"`
	State       string     `json:"state"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	Labels      []Label    `json:"labels"`
	Assignees   []User     `json:"assignees,omitempty"`
	User        *User      `json:"user,omitempty"`
	Milestone   *Milestone `json:"milestone,omitempty"`
	Comments    int        `json:"comments"`
	HTMLURL     string     `json:"html_url"`
	PullRequest *PullRef   `json:"pull_request,omitempty"`
}

// PullRef is set on pull requests, which the issues endpoint also lists.
type PullRef struct {
	URL string `json:"url,omitempty"`
}

type User struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
}

type Label struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Milestone struct {
	ID     int    `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
}

// LabelNames returns the label names in API order.
func LabelNames(labels []Label) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, l.Name)
	}
	return out
}

// UserLogins extracts login names from a slice of users.
func UserLogins(users []User) []string {
	logins := make([]string, len(users))
	for i, u := range users {
		logins[i] = u.Login
	}
	return logins
}
