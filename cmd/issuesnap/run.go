package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/issuesnap/internal/debug"
	"github.com/steveyegge/issuesnap/internal/github"
	"github.com/steveyegge/issuesnap/internal/relevance"
	"github.com/steveyegge/issuesnap/internal/runmode"
	"github.com/steveyegge/issuesnap/internal/timeparsing"
	"github.com/steveyegge/issuesnap/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Capture a full or delta snapshot",
	Long: `Capture one snapshot and print a one-line JSON summary.

Modes:
  auto   full when no full capture exists or the last one is older than
         --weekly-full-days, otherwise a delta since the last run (default)
  full   capture every issue
  delta  capture issues updated since the last run, or since --since

A delta with no reference point falls back to a full capture.

--since accepts RFC3339 timestamps, dates (2026-02-01), compact durations
(-2d, -12h) and phrases such as "yesterday" or "3 days ago".`,
	Example: `  issuesnap run
  issuesnap run --mode full --repo acme/widgets
  issuesnap run --mode delta --since -2d`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		modeFlag, _ := cmd.Flags().GetString("mode")
		sinceFlag, _ := cmd.Flags().GetString("since")

		mode, err := types.ParseMode(modeFlag)
		if err != nil {
			return err
		}
		s := loadSettings()
		if _, _, err := github.ParseRepo(s.Repo); err != nil {
			return err
		}

		now := time.Now().UTC()
		var since *time.Time
		if sinceFlag != "" {
			t, err := timeparsing.ParseRelativeTime(sinceFlag, now)
			if err != nil {
				return fmt.Errorf("invalid --since: %w", err)
			}
			t = t.UTC()
			since = &t
		}

		topics, err := relevance.AllTopics(s.TopicsFile, s.MinScore)
		if err != nil {
			return err
		}

		store, err := openStore(s)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		prior, err := store.Load(rootCtx)
		if err != nil {
			return err
		}
		if prior.Repo != "" && prior.Repo != s.Repo {
			warn(fmt.Sprintf("state in %s was recorded for %s, now mirroring %s", s.BaseDir, prior.Repo, s.Repo))
		}

		decision := runmode.Select(runmode.Input{
			Requested:    mode,
			LastFullAt:   prior.LastFullAt,
			LastRunAt:    prior.LastRunAt,
			FullInterval: s.fullInterval(),
			Since:        since,
		}, now)
		debug.Logf("Mode %s (requested %s): %s\n", decision.Mode, decision.Requested, decision.Reason)

		engine := newEngine(s, newSource(s), store, topics)
		res, err := engine.Run(rootCtx, prior, decision)
		if err != nil {
			debug.LogEvent(s.stateDir(), "run.failed", s.Repo, err.Error())
			return err
		}
		debug.LogEvent(s.stateDir(), "run.completed", res.Manifest.CaptureID,
			fmt.Sprintf("mode=%s requested=%s issues=%d pruned=%d", res.Manifest.Mode, decision.Requested, res.Manifest.IssueCountTotal, len(res.Pruned)))

		return outputJSONLine(cmd.OutOrStdout(), res.Summary())
	},
}

func init() {
	runCmd.Flags().String("mode", string(types.ModeAuto), "Capture mode: auto, full or delta")
	runCmd.Flags().String("since", "", "Reference point for delta captures")
	runCmd.Flags().Int("weekly-full-days", 0, "Days after which auto mode takes a new full capture (default 7)")
	runCmd.Flags().Int("keep-full", 0, "Number of full captures to retain (default 8)")
	runCmd.Flags().Int("keep-delta", 0, "Number of delta captures to retain (default 30)")
	runCmd.Flags().Int("min-score", 0, "Minimum relevance score for topics without their own (default 2)")
	runCmd.Flags().String("topics-file", "", "TOML file with additional relevance topics")
	rootCmd.AddCommand(runCmd)
}
