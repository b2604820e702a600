package github

import (
	"errors"
	"fmt"
)

// ErrRateLimited is returned when requests are still rate limited after all retries.
var ErrRateLimited = errors.New("github rate limit exceeded")

// APIError is a non-success response from the GitHub API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (status %d)", e.Message, e.StatusCode)
}

// FetchError wraps any failure to retrieve issues for a repository, so
// callers can tell a failed fetch apart from an empty result.
type FetchError struct {
	Repo string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch issues for %s: %v", e.Repo, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
