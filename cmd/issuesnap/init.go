package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/issuesnap/internal/config"
	"github.com/steveyegge/issuesnap/internal/debug"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter .issuesnap/config.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		path := filepath.Join(dir, config.DirName, config.FileName)
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]string{"config": path})
		}
		debug.PrintNormal("Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
