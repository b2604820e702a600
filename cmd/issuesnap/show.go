package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/issuesnap/internal/snapshot"
	"github.com/steveyegge/issuesnap/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show [latest|latest-full|latest-delta|<capture-id>]",
	Short: "Render a capture's README",
	Long: `Render the README of a capture. With no argument the latest full capture
is shown. With --json the capture manifest is printed instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		noPager, _ := cmd.Flags().GetBool("no-pager")

		s := loadSettings()
		dir, err := snapshot.Resolve(s.BaseDir, ref)
		if err != nil {
			return err
		}

		if jsonOutput {
			m, err := snapshot.ReadManifest(dir)
			if err != nil {
				return err
			}
			return outputJSON(cmd.OutOrStdout(), m)
		}

		data, err := os.ReadFile(filepath.Join(dir, snapshot.FileReadme)) // #nosec G304 -- capture directory resolved above
		if err != nil {
			return fmt.Errorf("failed to read capture README: %w", err)
		}
		return ui.ToPager(cmd.OutOrStdout(), ui.RenderMarkdown(string(data)), ui.PagerOptions{NoPager: noPager})
	},
}

func init() {
	showCmd.Flags().Bool("no-pager", false, "Print directly instead of through a pager")
	rootCmd.AddCommand(showCmd)
}
