// Package snapshot runs one capture of a repository's issues: it fetches,
// classifies, scores and writes a capture directory, then moves the latest
// pointers, prunes old captures and commits the run state.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/issuesnap/internal/classify"
	"github.com/steveyegge/issuesnap/internal/relevance"
	"github.com/steveyegge/issuesnap/internal/report"
	"github.com/steveyegge/issuesnap/internal/runmode"
	"github.com/steveyegge/issuesnap/internal/state"
	"github.com/steveyegge/issuesnap/internal/telemetry"
	"github.com/steveyegge/issuesnap/internal/types"
)

const scopeName = "github.com/steveyegge/issuesnap/snapshot"

// Default retention bounds.
const (
	DefaultKeepFull  = 8
	DefaultKeepDelta = 30
)

// IssueSource supplies normalized issues for a repository, sorted by update
// time descending with pull requests excluded. A nil since means all issues.
type IssueSource interface {
	FetchIssues(ctx context.Context, repo string, since *time.Time) ([]types.Issue, error)
}

// Engine runs captures for one repository into one base directory. Only one
// Engine may run against a base directory at a time.
type Engine struct {
	Source  IssueSource
	Store   state.Store
	Repo    string
	BaseDir string

	KeepFull  int
	KeepDelta int

	// Topics scored on every capture. Nil means the built-in topics.
	Topics []relevance.Topic

	// Now is the clock; nil means time.Now.
	Now func() time.Time

	// Callbacks for progress and non-fatal problems.
	OnMessage func(msg string)
	OnWarning func(msg string)
}

// Result describes a completed run.
type Result struct {
	Decision   runmode.Decision
	Manifest   *types.Manifest
	OutputDir  string
	Categories *classify.Result // delta only
	Relevance  []relevance.Report
	Pruned     []string
	State      *types.RunState
}

// Summary is the one-line description of a run printed by the CLI.
type Summary struct {
	Mode             types.Mode `json:"mode"`
	OutputDir        string     `json:"output_dir"`
	GeneratedAt      string     `json:"generated_at"`
	IssueCountTotal  int        `json:"issue_count_total"`
	IssueCountOpen   int        `json:"issue_count_open"`
	IssueCountClosed int        `json:"issue_count_closed"`
}

// Summary returns the run summary.
func (r *Result) Summary() Summary {
	return Summary{
		Mode:             r.Manifest.Mode,
		OutputDir:        r.OutputDir,
		GeneratedAt:      r.Manifest.GeneratedAt.UTC().Format(time.RFC3339),
		IssueCountTotal:  r.Manifest.IssueCountTotal,
		IssueCountOpen:   r.Manifest.IssueCountOpen,
		IssueCountClosed: r.Manifest.IssueCountClosed,
	}
}

// Run executes decision against prior, the state as loaded at process
// start. prior is never modified; the updated state is saved through the
// Store as the last step and returned in the Result.
//
// A failed fetch or artifact write removes the partial capture and leaves
// the persisted state untouched. Retention failures are only warnings.
func (e *Engine) Run(ctx context.Context, prior *types.RunState, d runmode.Decision) (res *Result, err error) {
	start := e.now()
	ctx, span := telemetry.Tracer(scopeName).Start(ctx, "snapshot.run",
		trace.WithAttributes(
			attribute.String("issuesnap.repo", e.Repo),
			attribute.String("issuesnap.mode", string(d.Mode)),
			attribute.String("issuesnap.requested_mode", string(d.Requested)),
			attribute.Bool("issuesnap.fallback", d.Fallback),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	switch d.Mode {
	case types.ModeFull:
	case types.ModeDelta:
		if d.Since == nil {
			return nil, errors.New("delta run requires a reference time")
		}
	default:
		return nil, fmt.Errorf("cannot run mode %q", d.Mode)
	}
	if e.Source == nil || e.Store == nil {
		return nil, errors.New("snapshot engine requires an issue source and a state store")
	}
	if prior == nil {
		prior = types.NewRunState()
	}
	if d.Fallback {
		e.msg("%s", d.Reason)
	}

	generatedAt := start.UTC().Truncate(time.Second)
	id := captureIDs.next(start)
	dir, err := createCaptureDir(e.BaseDir, d.Mode, id)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("issuesnap.capture_id", id))

	complete := false
	defer func() {
		if !complete {
			if rerr := os.RemoveAll(dir); rerr != nil {
				e.warn("failed to remove partial capture %s: %v", dir, rerr)
			}
		}
	}()

	var since *time.Time
	if d.Mode == types.ModeDelta {
		since = d.Since
		e.msg("Fetching issues of %s updated since %s", e.Repo, since.UTC().Format(time.RFC3339))
	} else {
		e.msg("Fetching all issues of %s", e.Repo)
	}
	issues, err := e.Source.FetchIssues(ctx, e.Repo, since)
	if err != nil {
		return nil, err
	}
	if issues == nil {
		issues = []types.Issue{}
	}
	e.instruments().fetched.Add(ctx, int64(len(issues)), metric.WithAttributes(attribute.String("mode", string(d.Mode))))

	open, closed := types.SplitByStatus(issues)
	var cats *classify.Result
	if d.Mode == types.ModeDelta {
		cats = classify.Classify(issues, prior)
	}
	topics, err := e.topics()
	if err != nil {
		return nil, err
	}
	reports := relevance.ScoreAll(issues, topics)

	m := &types.Manifest{
		CaptureID:        id,
		GeneratedAt:      generatedAt,
		Mode:             d.Mode,
		RequestedMode:    d.Requested,
		Repo:             e.Repo,
		Since:            since,
		IssueCountTotal:  len(issues),
		IssueCountOpen:   len(open),
		IssueCountClosed: len(closed),
		RelevanceCounts:  make(map[string]int, len(reports)),
		Notes:            fmt.Sprintf("Read-only local %s snapshot. Pull requests excluded.", d.Mode),
	}
	if d.Fallback {
		m.FallbackReason = d.Reason
	}
	if m.RequestedMode == "" {
		m.RequestedMode = d.Mode
	}
	for _, r := range reports {
		m.RelevanceCounts[r.Topic.Slug] = len(r.Matches)
	}
	if cats != nil {
		m.CategoryCounts = cats.Counts()
	}

	if err := writeCapture(dir, m, issues, open, closed, cats, reports); err != nil {
		return nil, err
	}
	complete = true

	next := prior.Clone()
	state.Apply(next, issues)
	next.MarkRun(e.Repo, d.Mode, generatedAt)

	for _, name := range PointersFor(d.Mode) {
		if err := UpdatePointer(e.BaseDir, name, dir); err != nil {
			return nil, err
		}
	}

	pruned := e.prune(ctx, d.Mode)

	if err := e.Store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save run state: %w", err)
	}

	e.instruments().duration.Record(ctx, e.now().Sub(start).Seconds(), metric.WithAttributes(attribute.String("mode", string(d.Mode))))
	e.msg("Wrote %s capture %s (%d issues)", d.Mode, id, len(issues))

	return &Result{
		Decision:   d,
		Manifest:   m,
		OutputDir:  dir,
		Categories: cats,
		Relevance:  reports,
		Pruned:     pruned,
		State:      next,
	}, nil
}

type artifact struct {
	name string
	v    interface{}
}

// writeCapture writes every artifact of a capture, README last.
func writeCapture(dir string, m *types.Manifest, issues, open, closed []types.Issue, cats *classify.Result, reports []relevance.Report) error {
	var files []artifact
	jsonl := FileAllJSONL
	if m.Mode == types.ModeFull {
		files = append(files,
			artifact{FileAllJSON, issues},
			artifact{FileOpenJSON, open},
			artifact{FileClosedJSON, closed},
		)
	} else {
		jsonl = FileUpdatedJSONL
		files = append(files,
			artifact{FileUpdatedJSON, issues},
			artifact{FileOpenNowJSON, open},
			artifact{FileClosedNowJSON, closed},
		)
		for _, cat := range types.AllCategories {
			files = append(files, artifact{CategoryFileName(cat), cats.Get(cat)})
		}
	}
	for _, r := range reports {
		files = append(files, artifact{r.Topic.FileName(), r.Matches})
	}
	files = append(files, artifact{FileManifest, m})

	for _, f := range files {
		if err := writeJSON(dir, f.name, f.v); err != nil {
			return err
		}
	}
	if err := writeJSONL(dir, jsonl, issues); err != nil {
		return err
	}

	var readme []byte
	var err error
	if m.Mode == types.ModeFull {
		readme, err = report.Full(m, issues, reports)
	} else {
		readme, err = report.Delta(m, cats, reports)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", FileReadme, err)
	}
	// #nosec G306 - captures are meant to be read by other tools
	if err := os.WriteFile(filepath.Join(dir, FileReadme), readme, artifactPerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", FileReadme, err)
	}
	return nil
}

// prune applies retention to kind, reporting failures as warnings.
func (e *Engine) prune(ctx context.Context, kind types.Mode) []string {
	keep := e.KeepDelta
	if kind == types.ModeFull {
		keep = e.KeepFull
	}
	removed, err := Prune(e.BaseDir, kind, keep)
	if err != nil {
		e.warn("retention for %s captures incomplete: %v", kind, err)
	}
	if len(removed) > 0 {
		e.instruments().pruned.Add(ctx, int64(len(removed)), metric.WithAttributes(attribute.String("mode", string(kind))))
		e.msg("Pruned %d old %s capture(s)", len(removed), kind)
	}
	if removed == nil {
		removed = []string{}
	}
	return removed
}

// PruneAll applies retention to both kinds without running a capture.
func (e *Engine) PruneAll(ctx context.Context) map[types.Mode][]string {
	return map[types.Mode][]string{
		types.ModeFull:  e.prune(ctx, types.ModeFull),
		types.ModeDelta: e.prune(ctx, types.ModeDelta),
	}
}

func (e *Engine) topics() ([]relevance.Topic, error) {
	if e.Topics != nil {
		return e.Topics, nil
	}
	return relevance.AllTopics("", relevance.DefaultMinScore)
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) msg(format string, args ...interface{}) {
	if e.OnMessage != nil {
		e.OnMessage(fmt.Sprintf(format, args...))
	}
}

func (e *Engine) warn(format string, args ...interface{}) {
	if e.OnWarning != nil {
		e.OnWarning(fmt.Sprintf(format, args...))
	}
}

type instruments struct {
	fetched  metric.Int64Counter
	pruned   metric.Int64Counter
	duration metric.Float64Histogram
}

// instruments resolves the run metrics from the current global provider.
// Errors only occur for invalid names, so they are ignored.
func (e *Engine) instruments() instruments {
	m := telemetry.Meter(scopeName)
	fetched, _ := m.Int64Counter("issuesnap.issues.fetched",
		metric.WithDescription("Issues fetched from the upstream tracker"),
	)
	pruned, _ := m.Int64Counter("issuesnap.captures.pruned",
		metric.WithDescription("Captures removed by retention"),
	)
	duration, _ := m.Float64Histogram("issuesnap.run.duration",
		metric.WithDescription("Snapshot run duration"),
		metric.WithUnit("s"),
	)
	return instruments{fetched: fetched, pruned: pruned, duration: duration}
}
