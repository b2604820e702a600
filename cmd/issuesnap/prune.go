package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/issuesnap/internal/debug"
	"github.com/steveyegge/issuesnap/internal/types"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply retention without capturing",
	Long: `Remove the oldest full and delta captures beyond the retention limits
(--keep-full, --keep-delta). Pointers and state are not touched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := loadSettings()
		engine := newEngine(s, nil, nil, nil)
		removed := engine.PruneAll(rootCtx)

		total := len(removed[types.ModeFull]) + len(removed[types.ModeDelta])
		if total > 0 {
			debug.LogEvent(s.stateDir(), "prune.completed", "", fmt.Sprintf("full=%d delta=%d", len(removed[types.ModeFull]), len(removed[types.ModeDelta])))
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]interface{}{
				"full":  removed[types.ModeFull],
				"delta": removed[types.ModeDelta],
			})
		}
		if total == 0 {
			debug.PrintNormal("Nothing to prune\n")
			return nil
		}
		for _, kind := range []types.Mode{types.ModeFull, types.ModeDelta} {
			for _, id := range removed[kind] {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s/%s\n", kind, id)
			}
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().Int("keep-full", 0, "Number of full captures to retain (default 8)")
	pruneCmd.Flags().Int("keep-delta", 0, "Number of delta captures to retain (default 30)")
	rootCmd.AddCommand(pruneCmd)
}
