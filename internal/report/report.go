// Package report renders the human-readable README.md stored in each capture.
package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/steveyegge/issuesnap/internal/classify"
	"github.com/steveyegge/issuesnap/internal/relevance"
	"github.com/steveyegge/issuesnap/internal/types"
)

// List lengths in the rendered reports.
const (
	FullRecentLimit     = 20
	FullRelevanceLimit  = 15
	DeltaCategoryLimit  = 20
	DeltaRelevanceLimit = 10
)

const readOnlyNote = "This is a local read-only snapshot for offline review. It does not modify upstream issues."

// WriteFull renders the report for a full capture. issues must already be
// sorted most recently updated first.
func WriteFull(w io.Writer, m *types.Manifest, issues []types.Issue, topics []relevance.Report) error {
	p := &printer{w: w}
	p.linef("# Full issue snapshot: %s", m.Repo)
	p.linef("")
	p.linef("Generated: `%s`", formatTime(m.GeneratedAt))
	p.linef("Capture: `%s`", m.CaptureID)
	if m.FallbackReason != "" {
		p.linef("Requested mode: `%s` (%s)", m.RequestedMode, m.FallbackReason)
	}
	p.linef("Total issues (no PRs): **%d**", m.IssueCountTotal)
	p.linef("- Open: **%d**", m.IssueCountOpen)
	p.linef("- Closed: **%d**", m.IssueCountClosed)
	p.linef("")
	p.linef("%s", readOnlyNote)
	p.linef("")

	p.linef("## Recently updated issues (top %d)", FullRecentLimit)
	for _, it := range head(issues, FullRecentLimit) {
		p.linef("- #%d [%s] %s (%s)", it.Number, it.Status, it.Title, it.URL)
	}

	p.topics(topics, FullRelevanceLimit)
	return p.err
}

// WriteDelta renders the report for a delta capture.
func WriteDelta(w io.Writer, m *types.Manifest, cats *classify.Result, topics []relevance.Report) error {
	p := &printer{w: w}
	p.linef("# Delta issue snapshot: %s", m.Repo)
	p.linef("")
	p.linef("Generated: `%s`", formatTime(m.GeneratedAt))
	p.linef("Capture: `%s`", m.CaptureID)
	if m.Since != nil {
		p.linef("Since: `%s`", formatTime(*m.Since))
	}
	p.linef("Updated issues fetched: **%d**", m.IssueCountTotal)
	p.linef("- Open now: **%d**", m.IssueCountOpen)
	p.linef("- Closed now: **%d**", m.IssueCountClosed)
	p.linef("")

	p.linef("## Change categories")
	for _, cat := range types.AllCategories {
		p.linef("- %s: **%d**", cat, len(cats.Get(cat)))
	}

	p.linef("")
	p.linef("## Newly closed (top %d)", DeltaCategoryLimit)
	for _, it := range head(cats.NewlyClosed, DeltaCategoryLimit) {
		p.linef("- #%d %s (%s)", it.Number, it.Title, it.URL)
	}
	p.linef("")
	p.linef("## Reopened (top %d)", DeltaCategoryLimit)
	for _, it := range head(cats.Reopened, DeltaCategoryLimit) {
		p.linef("- #%d %s (%s)", it.Number, it.Title, it.URL)
	}

	p.topics(topics, DeltaRelevanceLimit)
	return p.err
}

// Full returns WriteFull's output as bytes.
func Full(m *types.Manifest, issues []types.Issue, topics []relevance.Report) ([]byte, error) {
	var buf bytes.Buffer
	err := WriteFull(&buf, m, issues, topics)
	return buf.Bytes(), err
}

// Delta returns WriteDelta's output as bytes.
func Delta(m *types.Manifest, cats *classify.Result, topics []relevance.Report) ([]byte, error) {
	var buf bytes.Buffer
	err := WriteDelta(&buf, m, cats, topics)
	return buf.Bytes(), err
}

// printer stops writing after the first error and remembers it.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) linef(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) topics(topics []relevance.Report, limit int) {
	for _, t := range topics {
		p.linef("")
		p.linef("## Related candidates: %s (top %d)", t.Topic.Title, limit)
		for _, m := range head(t.Matches, limit) {
			p.linef("- #%d [%s] score=%d %s (%s)", m.Number, m.Status, m.Score, m.Title, m.URL)
		}
	}
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
