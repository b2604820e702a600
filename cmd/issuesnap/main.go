package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/issuesnap/internal/config"
	"github.com/steveyegge/issuesnap/internal/debug"
	"github.com/steveyegge/issuesnap/internal/telemetry"
)

var (
	jsonOutput  bool
	verboseFlag bool // Enable verbose/debug output
	quietFlag   bool // Suppress non-essential output

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "issuesnap",
	Short: "issuesnap - read-only snapshots of a GitHub repository's issues",
	Long: `Captures point-in-time snapshots of a repository's issues.

A full capture records every issue; a delta capture records only what changed
since the previous run and classifies each change. Captures are never modified
after they are written. Old captures are pruned and the latest, latest-full
and latest-delta pointers always name the newest complete capture.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupSignalContext()
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)

		if err := config.Initialize(); err != nil {
			return err
		}
		if used := config.ConfigFileUsed(); used != "" {
			debug.Logf("Using config file %s\n", used)
		}
		applyFlagOverrides(cmd)

		if err := telemetry.Init(rootCtx, "issuesnap", Version); err != nil {
			// Telemetry never blocks a run.
			debug.Warnf("telemetry disabled: %v", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	rootCmd.PersistentFlags().String("repo", "", "Repository to mirror as owner/name (default from config: openclaw/openclaw)")
	rootCmd.PersistentFlags().String("base-dir", "", "Directory holding captures, pointers and state (default \".\")")
	rootCmd.PersistentFlags().String("state-backend", "", "State store backend: json or sqlite")
	rootCmd.PersistentFlags().String("api-url", "", "GitHub API base URL")
}

func setupSignalContext() {
	if rootCtx != nil {
		return
	}
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// reportError prints err the way the active output mode expects.
func reportError(err error) {
	if jsonOutput {
		writeJSONError(os.Stderr, err)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func main() {
	err := rootCmd.Execute()
	if rootCancel != nil {
		rootCancel()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			err = errors.New("interrupted")
		}
		reportError(err)
		os.Exit(1)
	}
}
