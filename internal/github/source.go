package github

import (
	"context"
	"net/http"
	"time"

	"github.com/steveyegge/issuesnap/internal/types"
)

// Source fetches normalized issues for any repository using one set of
// credentials and transport settings.
type Source struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
	RetryDelay time.Duration
}

// NewSource returns a Source against the public API with the default timeout.
func NewSource(token string) *Source {
	return &Source{
		Token:      token,
		BaseURL:    DefaultAPIEndpoint,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		RetryDelay: RetryDelay,
	}
}

// FetchIssues returns every non-PR issue of repo updated at or after since
// (all issues when since is nil), sorted by update time descending. Any
// failure is returned as a *FetchError.
func (s *Source) FetchIssues(ctx context.Context, repo string, since *time.Time) ([]types.Issue, error) {
	owner, name, err := ParseRepo(repo)
	if err != nil {
		return nil, &FetchError{Repo: repo, Err: err}
	}

	client := NewClient(s.Token, owner, name)
	if s.BaseURL != "" {
		client = client.WithBaseURL(s.BaseURL)
	}
	if s.HTTPClient != nil {
		client = client.WithHTTPClient(s.HTTPClient)
	}
	if s.RetryDelay > 0 {
		client.RetryDelay = s.RetryDelay
	}

	raw, err := client.FetchIssues(ctx, since)
	if err != nil {
		return nil, &FetchError{Repo: repo, Err: err}
	}

	issues := NormalizeAll(raw)
	types.SortByUpdatedDesc(issues)
	return issues, nil
}
