// Package relevance ranks issues against keyword topics.
package relevance

import (
	"sort"
	"strings"
	"time"

	"github.com/steveyegge/issuesnap/internal/types"
)

// DefaultMinScore is the number of distinct keyword hits an issue needs to be
// reported as related.
const DefaultMinScore = 2

// Match is one ranked row of a relevance report.
type Match struct {
	Number    int          `json:"number"`
	Status    types.Status `json:"state"`
	Title     string       `json:"title"`
	URL       string       `json:"html_url"`
	Score     int          `json:"score"`
	Hits      []string     `json:"hits"`
	UpdatedAt *time.Time   `json:"updated_at"`
}

// Score counts, for each issue, the distinct keywords occurring in its
// lowercased title and body. Issues scoring below minScore are dropped. The
// result is ordered by score, then by most recent update.
func Score(issues []types.Issue, keywords []string, minScore int) []Match {
	kws := normalizeKeywords(keywords)
	out := make([]Match, 0)
	for _, it := range issues {
		text := strings.ToLower(it.Title + "\n" + it.Body)
		var hits []string
		for _, kw := range kws {
			if strings.Contains(text, kw) {
				hits = append(hits, kw)
			}
		}
		if len(hits) < minScore || len(hits) == 0 {
			continue
		}
		out = append(out, Match{
			Number:    it.Number,
			Status:    it.Status,
			Title:     it.Title,
			URL:       it.URL,
			Score:     len(hits),
			Hits:      hits,
			UpdatedAt: it.UpdatedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return types.NewerFirst(out[i].UpdatedAt, out[j].UpdatedAt)
	})
	return out
}

// normalizeKeywords lowercases, trims and dedupes keywords, keeping the first
// occurrence order so hit lists are stable.
func normalizeKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}
