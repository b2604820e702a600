package relevance

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/steveyegge/issuesnap/internal/types"
)

// Topic is a named keyword set. Each topic produces its own ranked list,
// written to related-to-<Slug>.json in every capture.
type Topic struct {
	Slug     string   `toml:"slug"`
	Title    string   `toml:"title"`
	Keywords []string `toml:"keywords"`
	MinScore int      `toml:"min_score"`
}

// FileName is the capture artifact this topic is written to.
func (t Topic) FileName() string {
	return "related-to-" + t.Slug + ".json"
}

// BuiltinTopics are compiled into the binary and always scored unless a
// topics file overrides them by slug.
var BuiltinTopics = []Topic{
	{
		Slug:  "media-fix",
		Title: "Telegram media/proxy fix",
		Keywords: []string{
			"telegram",
			"media",
			"fetch",
			"proxy",
			"file download",
			"typeerror: fetch failed",
			"ssrf",
		},
	},
	{
		Slug:  "approve-elevated-fix",
		Title: "approve/elevated/token-mismatch fix",
		Keywords: []string{
			"device token mismatch",
			"approve",
			"approval",
			"elevated",
			"allowfrom",
			"pairing required",
			"provider gate",
		},
	},
}

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// UserTopics is the layout of a topics file:
//
//	[topics.ci-flakes]
//	title = "Flaky CI"
//	keywords = ["flaky", "timeout", "ci"]
//	min_score = 2
type UserTopics struct {
	Topics map[string]Topic `toml:"topics"`
}

// LoadUserTopics reads a TOML topics file. A missing file yields no topics.
func LoadUserTopics(path string) ([]Topic, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from user config
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read topics file: %w", err)
	}

	var user UserTopics
	if err := toml.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("parse topics file: %w", err)
	}

	names := make([]string, 0, len(user.Topics))
	for name := range user.Topics {
		names = append(names, name)
	}
	sort.Strings(names)

	topics := make([]Topic, 0, len(names))
	for _, name := range names {
		topic := user.Topics[name]
		if topic.Slug == "" {
			topic.Slug = strings.ToLower(name)
		}
		if !slugRe.MatchString(topic.Slug) {
			return nil, fmt.Errorf("topic %q: invalid slug %q", name, topic.Slug)
		}
		if topic.Title == "" {
			topic.Title = name
		}
		if len(normalizeKeywords(topic.Keywords)) == 0 {
			return nil, fmt.Errorf("topic %q: no keywords", name)
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

// AllTopics merges built-in and user topics. A user topic with a built-in
// slug replaces it in place; new slugs are appended in name order.
func AllTopics(path string, defaultMinScore int) ([]Topic, error) {
	user, err := LoadUserTopics(path)
	if err != nil {
		return nil, err
	}

	result := make([]Topic, len(BuiltinTopics))
	copy(result, BuiltinTopics)
	index := make(map[string]int, len(result))
	for i, t := range result {
		index[t.Slug] = i
	}
	for _, t := range user {
		if i, ok := index[t.Slug]; ok {
			result[i] = t
			continue
		}
		index[t.Slug] = len(result)
		result = append(result, t)
	}

	for i := range result {
		if result[i].MinScore <= 0 {
			result[i].MinScore = defaultMinScore
		}
		if result[i].MinScore <= 0 {
			result[i].MinScore = DefaultMinScore
		}
	}
	return result, nil
}

// Report is the ranked output of one topic.
type Report struct {
	Topic   Topic
	Matches []Match
}

// ScoreAll runs Score once per topic.
func ScoreAll(issues []types.Issue, topics []Topic) []Report {
	reports := make([]Report, 0, len(topics))
	for _, t := range topics {
		reports = append(reports, Report{Topic: t, Matches: Score(issues, t.Keywords, t.MinScore)})
	}
	return reports
}
