package github

import (
	"time"

	"github.com/steveyegge/issuesnap/internal/types"
)

// Normalize converts a GitHub issue into the mirror's issue record. Missing
// bodies become empty strings and label/assignee lists are never nil.
func Normalize(gh Issue) types.Issue {
	out := types.Issue{
		Number:    gh.Number,
		Title:     gh.Title,
		Status:    types.ParseStatus(gh.State),
		URL:       gh.HTMLURL,
		CreatedAt: utc(gh.CreatedAt),
		UpdatedAt: utc(gh.UpdatedAt),
		ClosedAt:  utc(gh.ClosedAt),
		Labels:    LabelNames(gh.Labels),
		Assignees: UserLogins(gh.Assignees),
		Comments:  gh.Comments,
	}
	if gh.User != nil {
		out.Author = gh.User.Login
	}
	if gh.Milestone != nil {
		title := gh.Milestone.Title
		out.Milestone = &title
	}
	if gh.Body != nil {
		out.Body = *gh.Body
	}
	return out
}

// NormalizeAll converts a batch, skipping pull requests.
func NormalizeAll(issues []Issue) []types.Issue {
	out := make([]types.Issue, 0, len(issues))
	for _, it := range issues {
		if it.PullRequest != nil {
			continue
		}
		out = append(out, Normalize(it))
	}
	return out
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
