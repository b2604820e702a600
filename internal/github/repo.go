package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v68/github"
)

// ErrInvalidRepo is returned when a repository reference cannot be parsed.
var ErrInvalidRepo = errors.New("invalid repository reference")

// ParseRepo splits "owner/name" or a GitHub repository URL into its parts.
func ParseRepo(ref string) (owner, name string, err error) {
	ref = strings.TrimSpace(ref)
	if strings.Contains(ref, "://") {
		u, perr := url.Parse(ref)
		if perr != nil {
			return "", "", fmt.Errorf("%w %q: %v", ErrInvalidRepo, ref, perr)
		}
		ref = strings.Trim(u.Path, "/")
	}
	ref = strings.TrimSuffix(ref, ".git")

	parts := strings.Split(ref, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w %q: want owner/name", ErrInvalidRepo, ref)
	}
	// URLs like https://github.com/o/r/issues carry extra path segments.
	return parts[0], parts[1], nil
}

// RepoInfo summarizes a repository for health checks.
type RepoInfo struct {
	FullName      string    `json:"full_name"`
	HTMLURL       string    `json:"html_url"`
	Private       bool      `json:"private"`
	Archived      bool      `json:"archived"`
	HasIssues     bool      `json:"has_issues"`
	OpenIssues    int       `json:"open_issues_count"`
	RateRemaining int       `json:"rate_remaining"`
	RateLimit     int       `json:"rate_limit"`
	RateReset     time.Time `json:"rate_reset"`
	Authenticated bool      `json:"authenticated"`
}

// Inspector looks up repository metadata through go-github.
type Inspector struct {
	client        *gogithub.Client
	authenticated bool
}

// NewInspector creates an Inspector. An empty token gives an unauthenticated
// client (limited to 60 req/hour). A non-default apiURL is treated as a
// GitHub Enterprise endpoint.
func NewInspector(token, apiURL string, httpClient *http.Client) (*Inspector, error) {
	client := gogithub.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if apiURL != "" && strings.TrimRight(apiURL, "/") != DefaultAPIEndpoint {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API URL %q: %w", apiURL, err)
		}
	}
	return &Inspector{client: client, authenticated: token != ""}, nil
}

// Describe fetches repository metadata and the current core rate limit.
func (i *Inspector) Describe(ctx context.Context, repo string) (*RepoInfo, error) {
	owner, name, err := ParseRepo(repo)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	r, resp, err := i.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		var rle *gogithub.RateLimitError
		if errors.As(err, &rle) {
			return nil, fmt.Errorf("%w: resets at %s", ErrRateLimited, rle.Rate.Reset.Time.Format(time.RFC3339))
		}
		return nil, fmt.Errorf("failed to get repository %s: %w", repo, err)
	}

	info := &RepoInfo{
		FullName:      r.GetFullName(),
		HTMLURL:       r.GetHTMLURL(),
		Private:       r.GetPrivate(),
		Archived:      r.GetArchived(),
		HasIssues:     r.GetHasIssues(),
		OpenIssues:    r.GetOpenIssuesCount(),
		Authenticated: i.authenticated,
	}
	if resp != nil {
		info.RateRemaining = resp.Rate.Remaining
		info.RateLimit = resp.Rate.Limit
		info.RateReset = resp.Rate.Reset.Time
	}
	return info, nil
}
