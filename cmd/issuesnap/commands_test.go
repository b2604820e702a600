package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/issuesnap/internal/config"
	"github.com/steveyegge/issuesnap/internal/github"
	"github.com/steveyegge/issuesnap/internal/snapshot"
	"github.com/steveyegge/issuesnap/internal/state"
	"github.com/steveyegge/issuesnap/internal/types"
)

func parseSummary(t *testing.T, out string) snapshot.Summary {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1, "run must print exactly one line: %q", out)
	var s snapshot.Summary
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &s))
	return s
}

func TestRunAutoThenDelta(t *testing.T) {
	gh := newFakeGitHub(t)
	base := t.TempDir()
	t0 := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	gh.set(
		ghIssue(1, "open", "Telegram media fetch fails behind proxy", t0),
		ghIssue(2, "open", "Docs typo", t0.Add(-time.Hour)),
		ghIssue(3, "closed", "Old crash", t0.Add(-2*time.Hour)),
	)

	out, err := execute(t, append([]string{"run"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	first := parseSummary(t, out)
	assert.Equal(t, types.ModeFull, first.Mode)
	assert.Equal(t, 3, first.IssueCountTotal)
	assert.Equal(t, 2, first.IssueCountOpen)
	assert.Equal(t, 1, first.IssueCountClosed)
	assert.Equal(t, filepath.Join(base, "full"), filepath.Dir(first.OutputDir))
	assert.NotContains(t, gh.lastQuery(), "since=", "a full capture fetches everything")

	t1 := t0.Add(24 * time.Hour)
	gh.set(
		ghIssue(1, "closed", "Telegram media fetch fails behind proxy", t1),
		ghIssue(3, "open", "Old crash", t1.Add(-time.Minute)),
		ghIssue(2, "open", "Docs typo", t1.Add(-2*time.Minute)),
	)

	out, err = execute(t, append([]string{"run"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	second := parseSummary(t, out)
	assert.Equal(t, types.ModeDelta, second.Mode)
	assert.Contains(t, gh.lastQuery(), "since=")

	m, err := snapshot.ReadManifest(second.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, types.ModeAuto, m.RequestedMode)
	assert.Equal(t, 1, m.CategoryCounts[types.CategoryNewlyClosed])
	assert.Equal(t, 1, m.CategoryCounts[types.CategoryReopened])
	assert.Equal(t, 1, m.CategoryCounts[types.CategoryStillOpenUpdated])

	latestDelta, err := snapshot.ResolvePointer(base, snapshot.PointerLatestDelta)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(second.OutputDir), filepath.Base(latestDelta))
	latest, err := snapshot.ResolvePointer(base, snapshot.PointerLatest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(first.OutputDir), filepath.Base(latest), "delta captures do not move latest")

	events, err := os.ReadFile(filepath.Join(base, state.Dir, "events.log"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(events), "|run.completed|"))
}

func TestRunDeltaWithoutStateFallsBackToFull(t *testing.T) {
	gh := newFakeGitHub(t)
	base := t.TempDir()
	gh.set(ghIssue(7, "open", "First issue", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))

	out, err := execute(t, append([]string{"run", "--mode", "delta"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	s := parseSummary(t, out)
	assert.Equal(t, types.ModeFull, s.Mode)

	m, err := snapshot.ReadManifest(s.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, types.ModeDelta, m.RequestedMode)
	assert.NotEmpty(t, m.FallbackReason)
}

func TestRunDeltaWithExplicitSince(t *testing.T) {
	gh := newFakeGitHub(t)
	base := t.TempDir()
	gh.set(ghIssue(7, "open", "First issue", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))

	out, err := execute(t, append([]string{"run", "--mode", "delta", "--since", "2026-01-15T00:00:00Z"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	s := parseSummary(t, out)
	assert.Equal(t, types.ModeDelta, s.Mode)
	assert.Contains(t, gh.lastQuery(), "since=2026-01-15T00%3A00%3A00Z")

	m, err := snapshot.ReadManifest(s.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, 1, m.CategoryCounts[types.CategoryNewOpened])
}

func TestRunRejectsBadInput(t *testing.T) {
	gh := newFakeGitHub(t)
	base := t.TempDir()

	_, err := execute(t, append([]string{"run", "--mode", "weekly"}, mirrorArgs(gh, base)...)...)
	assert.ErrorIs(t, err, types.ErrInvalidMode)

	_, err = execute(t, append([]string{"run", "--since", "xyzzy"}, mirrorArgs(gh, base)...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --since")

	_, err = execute(t, "run", "--repo", "not-a-repo", "--base-dir", base, "--api-url", gh.server.URL)
	assert.ErrorIs(t, err, github.ErrInvalidRepo)

	_, err = execute(t, append([]string{"run", "--state-backend", "yaml"}, mirrorArgs(gh, base)...)...)
	assert.ErrorIs(t, err, state.ErrUnknownBackend)
}

func TestRunFetchFailureLeavesNoTrace(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.status = http.StatusBadGateway
	base := t.TempDir()

	out, err := execute(t, append([]string{"run"}, mirrorArgs(gh, base)...)...)
	require.Error(t, err)
	assert.Empty(t, out)
	assert.Equal(t, "fetch_failed", errorCode(err))

	captures, err := snapshot.ListCaptures(base, types.ModeFull)
	require.NoError(t, err)
	assert.Empty(t, captures)
	_, err = os.Stat(filepath.Join(base, state.Dir, state.FileName))
	assert.True(t, os.IsNotExist(err), "state must not be written after a failed run")
}

func TestRunSQLiteBackend(t *testing.T) {
	gh := newFakeGitHub(t)
	base := t.TempDir()
	gh.set(ghIssue(1, "open", "One", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))

	_, err := execute(t, append([]string{"run", "--state-backend", "sqlite"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(base, state.Dir, state.DBName))
	assert.NoError(t, err)

	out, err := execute(t, append([]string{"status", "--json", "--state-backend", "sqlite"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	var st statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 1, st.RememberedCount)
}

func TestStatusJSON(t *testing.T) {
	gh := newFakeGitHub(t)
	base := t.TempDir()

	out, err := execute(t, append([]string{"status", "--json"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	var empty statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &empty))
	assert.Nil(t, empty.LastRunAt)
	assert.Equal(t, types.ModeFull, empty.NextMode)
	assert.Equal(t, "", empty.Pointers[snapshot.PointerLatest])

	gh.set(ghIssue(1, "open", "One", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	runOut, err := execute(t, append([]string{"run"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	run := parseSummary(t, runOut)

	out, err = execute(t, append([]string{"status", "--json"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	var st statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, "acme/widgets", st.Repo)
	assert.NotNil(t, st.LastFullAt)
	assert.Equal(t, 1, st.RememberedCount)
	assert.Equal(t, 1, st.Captures["full"].Count)
	assert.Equal(t, 0, st.Captures["delta"].Count)
	assert.Equal(t, filepath.Base(run.OutputDir), st.Pointers[snapshot.PointerLatestFull])
	assert.Equal(t, types.ModeDelta, st.NextMode)
	assert.Empty(t, st.LatestChanges)

	gh.set(ghIssue(1, "open", "One edited", time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)))
	_, err = execute(t, append([]string{"run", "--mode", "delta"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)

	out, err = execute(t, append([]string{"status", "--json"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	st = statusReport{}
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 1, st.LatestChanges[types.CategoryStillOpenUpdated])
	assert.Equal(t, 0, st.LatestChanges[types.CategoryReopened])

	out, err = execute(t, append([]string{"status"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "LATEST DELTA")
	assert.Contains(t, out, "still_open_updated")
}

func TestShow(t *testing.T) {
	gh := newFakeGitHub(t)
	base := t.TempDir()

	_, err := execute(t, append([]string{"show"}, mirrorArgs(gh, base)...)...)
	assert.ErrorIs(t, err, snapshot.ErrNoCapture)

	gh.set(ghIssue(1, "open", "One", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	runOut, err := execute(t, append([]string{"run"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	run := parseSummary(t, runOut)

	out, err := execute(t, append([]string{"show", "--no-pager"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "# Full issue snapshot: acme/widgets")

	out, err = execute(t, append([]string{"show", filepath.Base(run.OutputDir), "--json"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	var m types.Manifest
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, types.ModeFull, m.Mode)
	assert.Equal(t, 1, m.IssueCountTotal)
}

func TestPrune(t *testing.T) {
	gh := newFakeGitHub(t)
	base := t.TempDir()
	gh.set(ghIssue(1, "open", "One", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))

	var ids []string
	for i := 0; i < 3; i++ {
		out, err := execute(t, append([]string{"run", "--mode", "full"}, mirrorArgs(gh, base)...)...)
		require.NoError(t, err)
		ids = append(ids, filepath.Base(parseSummary(t, out).OutputDir))
	}

	out, err := execute(t, append([]string{"prune", "--keep-full", "1", "--json"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	var removed map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &removed))
	assert.Equal(t, ids[:2], removed["full"])
	assert.Empty(t, removed["delta"])

	captures, err := snapshot.ListCaptures(base, types.ModeFull)
	require.NoError(t, err)
	require.Len(t, captures, 1)
	assert.Equal(t, ids[2], captures[0].ID)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "init", dir)
	require.NoError(t, err)
	path := filepath.Join(dir, config.DirName, config.FileName)
	cfg, err := config.LoadLocalConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "openclaw/openclaw", cfg.Repo)

	_, err = execute(t, "init", dir)
	assert.ErrorIs(t, err, config.ErrConfigExists)
}

func TestDoctorOffline(t *testing.T) {
	gh := newFakeGitHub(t)
	base := t.TempDir()
	gh.set(ghIssue(1, "open", "One", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	_, err := execute(t, append([]string{"run"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)

	out, err := execute(t, append([]string{"doctor", "--offline", "--json"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	var res doctorResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.OverallOK)
	last := res.Checks[len(res.Checks)-1]
	assert.Equal(t, "github", last.Name)
	assert.Equal(t, statusSkipped, last.Status)

	out, err = execute(t, append([]string{"doctor", "--offline"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "- github")
	assert.Contains(t, out, "not checked (--offline)")

	// A pointer naming a pruned capture is a problem.
	full, err := snapshot.ResolvePointer(base, snapshot.PointerLatestFull)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(full))

	out, err = execute(t, append([]string{"doctor", "--offline", "--json"}, mirrorArgs(gh, base)...)...)
	require.Error(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.OverallOK)
}

func TestDoctorFlagsPlaintextToken(t *testing.T) {
	gh := newFakeGitHub(t)
	base := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("github:\n  token: ghp_example\n"), 0o600))
	t.Setenv("ISSUESNAP_CONFIG", cfgPath)

	out, err := execute(t, append([]string{"doctor", "--offline", "--json"}, mirrorArgs(gh, base)...)...)
	require.NoError(t, err)
	var res doctorResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotEmpty(t, res.Checks)
	assert.Equal(t, "config", res.Checks[0].Name)
	assert.Equal(t, statusWarning, res.Checks[0].Status)
	assert.Contains(t, res.Checks[0].Message, "GITHUB_TOKEN")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, Version, v["version"])
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&github.FetchError{Repo: "acme/widgets", Err: errors.New("boom")}, "fetch_failed"},
		{&github.FetchError{Repo: "acme/widgets", Err: github.ErrRateLimited}, "rate_limited"},
		{snapshot.ErrNoCapture, "not_found"},
		{state.ErrUnknownBackend, "invalid_argument"},
		{errors.New("something else"), ""},
	}
	for _, tt := range tests {
		if got := errorCode(tt.err); got != tt.want {
			t.Errorf("errorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
