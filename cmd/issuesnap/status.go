package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/issuesnap/internal/runmode"
	"github.com/steveyegge/issuesnap/internal/snapshot"
	"github.com/steveyegge/issuesnap/internal/types"
	"github.com/steveyegge/issuesnap/internal/ui"
	"github.com/steveyegge/issuesnap/internal/utils"
)

type captureSummary struct {
	Count  int    `json:"count"`
	Oldest string `json:"oldest,omitempty"`
	Newest string `json:"newest,omitempty"`
}

type statusReport struct {
	Repo            string                       `json:"repo"`
	BaseDir         string                       `json:"base_dir"`
	StatePath       string                       `json:"state_path"`
	LastRunAt       *time.Time                   `json:"last_run_at"`
	LastFullAt      *time.Time                   `json:"last_full_at"`
	LastDeltaAt     *time.Time                   `json:"last_delta_at"`
	RememberedCount int                          `json:"remembered_issues"`
	Captures        map[string]captureSummary    `json:"captures"`
	Pointers        map[string]string            `json:"pointers"`
	LatestChanges   map[types.ChangeCategory]int `json:"latest_delta_changes,omitempty"`
	NextMode        types.Mode                   `json:"next_auto_mode"`
	NextReason      string                       `json:"next_auto_reason"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show run state, captures and pointers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := loadSettings()
		st, err := buildStatus(s, time.Now().UTC())
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), st)
		}
		printStatus(cmd.OutOrStdout(), st)
		return nil
	},
}

func buildStatus(s settings, now time.Time) (*statusReport, error) {
	store, err := openStore(s)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	prior, err := store.Load(rootCtx)
	if err != nil {
		return nil, err
	}

	repo := prior.Repo
	if repo == "" {
		repo = s.Repo
	}
	st := &statusReport{
		Repo:            repo,
		BaseDir:         utils.CanonicalizePath(s.BaseDir),
		StatePath:       store.Path(),
		LastRunAt:       prior.LastRunAt,
		LastFullAt:      prior.LastFullAt,
		LastDeltaAt:     prior.LastDeltaAt,
		RememberedCount: len(prior.Issues),
		Captures:        make(map[string]captureSummary, 2),
		Pointers:        make(map[string]string, len(snapshot.Pointers)),
	}

	for _, kind := range []types.Mode{types.ModeFull, types.ModeDelta} {
		captures, err := snapshot.ListCaptures(s.BaseDir, kind)
		if err != nil {
			return nil, err
		}
		sum := captureSummary{Count: len(captures)}
		if len(captures) > 0 {
			sum.Oldest = captures[0].ID
			sum.Newest = captures[len(captures)-1].ID
		}
		st.Captures[string(kind)] = sum
	}

	for _, name := range snapshot.Pointers {
		dir, err := snapshot.ResolvePointer(s.BaseDir, name)
		switch {
		case err == nil:
			st.Pointers[name] = filepath.Base(dir)
			if name == snapshot.PointerLatestDelta {
				if m, err := snapshot.ReadManifest(dir); err == nil {
					st.LatestChanges = m.CategoryCounts
				}
			}
		case errors.Is(err, snapshot.ErrNoCapture):
			st.Pointers[name] = ""
		default:
			return nil, err
		}
	}

	next := runmode.Select(runmode.Input{
		Requested:    types.ModeAuto,
		LastFullAt:   prior.LastFullAt,
		LastRunAt:    prior.LastRunAt,
		FullInterval: s.fullInterval(),
	}, now)
	st.NextMode = next.Mode
	st.NextReason = next.Reason
	return st, nil
}

func formatStamp(t *time.Time) string {
	if t == nil {
		return ui.RenderMuted("never")
	}
	return t.UTC().Format(time.RFC3339)
}

func printStatus(w io.Writer, st *statusReport) {
	fmt.Fprintf(w, "%s\n", ui.RenderSection("State"))
	fmt.Fprintf(w, "  Repository:        %s\n", st.Repo)
	fmt.Fprintf(w, "  Base directory:    %s\n", st.BaseDir)
	fmt.Fprintf(w, "  State:             %s\n", st.StatePath)
	fmt.Fprintf(w, "  Last run:          %s\n", formatStamp(st.LastRunAt))
	fmt.Fprintf(w, "  Last full:         %s\n", formatStamp(st.LastFullAt))
	fmt.Fprintf(w, "  Last delta:        %s\n", formatStamp(st.LastDeltaAt))
	fmt.Fprintf(w, "  Remembered issues: %d\n", st.RememberedCount)

	fmt.Fprintf(w, "\n%s\n", ui.RenderSection("Captures"))
	for _, kind := range []types.Mode{types.ModeFull, types.ModeDelta} {
		sum := st.Captures[string(kind)]
		if sum.Count == 0 {
			fmt.Fprintf(w, "  %-6s %s\n", ui.RenderMode(kind), ui.RenderMuted("none"))
			continue
		}
		fmt.Fprintf(w, "  %-6s %d (oldest %s, newest %s)\n", ui.RenderMode(kind), sum.Count, sum.Oldest, sum.Newest)
	}

	fmt.Fprintf(w, "\n%s\n", ui.RenderSection("Pointers"))
	for _, name := range snapshot.Pointers {
		target := st.Pointers[name]
		if target == "" {
			target = ui.RenderMuted("unset")
		}
		fmt.Fprintf(w, "  %-13s %s\n", name, target)
	}

	if len(st.LatestChanges) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.RenderSection("Latest delta"))
		for _, cat := range types.AllCategories {
			fmt.Fprintf(w, "  %-20s %d\n", ui.RenderCategory(cat), st.LatestChanges[cat])
		}
	}

	fmt.Fprintf(w, "\nNext auto run: %s %s\n", ui.RenderMode(st.NextMode), ui.RenderMuted("("+st.NextReason+")"))
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
