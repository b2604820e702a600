package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/issuesnap/internal/config"
	"github.com/steveyegge/issuesnap/internal/github"
	"github.com/steveyegge/issuesnap/internal/relevance"
	"github.com/steveyegge/issuesnap/internal/snapshot"
	"github.com/steveyegge/issuesnap/internal/state"
	"github.com/steveyegge/issuesnap/internal/ui"
)

const (
	statusOK      = "ok"
	statusWarning = "warning"
	statusError   = "error"
	statusSkipped = "skipped"
)

type doctorCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type doctorResult struct {
	Checks    []doctorCheck `json:"checks"`
	OverallOK bool          `json:"overall_ok"`
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, state, pointers and repository access",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		offline, _ := cmd.Flags().GetBool("offline")
		s := loadSettings()

		result := runDoctor(s, offline)
		if jsonOutput {
			if err := outputJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
		} else {
			printDoctor(cmd.OutOrStdout(), result)
		}
		if !result.OverallOK {
			return errors.New("doctor found problems")
		}
		return nil
	},
}

func runDoctor(s settings, offline bool) doctorResult {
	checks := []doctorCheck{
		checkConfig(s),
		checkTopics(s),
		checkState(s),
	}
	checks = append(checks, checkPointers(s)...)
	if offline {
		checks = append(checks, doctorCheck{Name: "github", Status: statusSkipped, Message: "not checked (--offline)"})
	} else {
		checks = append(checks, checkRepository(s))
	}

	result := doctorResult{Checks: checks, OverallOK: true}
	for _, c := range checks {
		if c.Status == statusError {
			result.OverallOK = false
		}
	}
	return result
}

func checkConfig(s settings) doctorCheck {
	c := doctorCheck{Name: "config", Status: statusOK}
	if _, _, err := github.ParseRepo(s.Repo); err != nil {
		c.Status, c.Message = statusError, err.Error()
		return c
	}
	if used := config.ConfigFileUsed(); used != "" {
		c.Message = fmt.Sprintf("%s (repo %s)", used, s.Repo)
		if fc, err := config.LoadLocalConfig(used); err == nil && fc.GitHub.Token != "" {
			c.Status = statusWarning
			c.Message += "; github.token is stored in plain text, prefer GITHUB_TOKEN"
		}
	} else {
		c.Message = fmt.Sprintf("defaults and environment (repo %s)", s.Repo)
	}
	return c
}

func checkTopics(s settings) doctorCheck {
	topics, err := relevance.AllTopics(s.TopicsFile, s.MinScore)
	if err != nil {
		return doctorCheck{Name: "topics", Status: statusError, Message: err.Error()}
	}
	slugs := make([]string, 0, len(topics))
	for _, t := range topics {
		slugs = append(slugs, t.Slug)
	}
	return doctorCheck{Name: "topics", Status: statusOK, Message: strings.Join(slugs, ", ")}
}

func checkState(s settings) doctorCheck {
	c := doctorCheck{Name: "state", Status: statusOK}

	var warnings []string
	store, err := state.Open(s.Backend, s.BaseDir, func(msg string) { warnings = append(warnings, msg) })
	if err != nil {
		c.Status, c.Message = statusError, err.Error()
		return c
	}
	defer func() { _ = store.Close() }()

	st, err := store.Load(rootCtx)
	switch {
	case err != nil:
		c.Status, c.Message = statusError, err.Error()
	case len(warnings) > 0:
		c.Status, c.Message = statusWarning, strings.Join(warnings, "; ")
	case st.IsEmpty():
		c.Message = fmt.Sprintf("%s (no runs yet)", store.Path())
	default:
		c.Message = fmt.Sprintf("%s (%d remembered issues)", store.Path(), len(st.Issues))
	}
	return c
}

// checkPointers flags pointers that exist but name a missing capture.
// A pointer that was never set is fine.
func checkPointers(s settings) []doctorCheck {
	checks := make([]doctorCheck, 0, len(snapshot.Pointers))
	for _, name := range snapshot.Pointers {
		c := doctorCheck{Name: "pointer " + name, Status: statusOK}
		dir, err := snapshot.ResolvePointer(s.BaseDir, name)
		switch {
		case err == nil:
			c.Message = filepath.Base(dir)
		case !pointerPresent(s.BaseDir, name):
			c.Message = "unset"
		default:
			c.Status, c.Message = statusError, err.Error()
		}
		checks = append(checks, c)
	}
	return checks
}

func pointerPresent(baseDir, name string) bool {
	if _, err := os.Lstat(filepath.Join(baseDir, name)); err == nil {
		return true
	}
	_, err := os.Stat(filepath.Join(baseDir, name+snapshot.PointerFileSuffix))
	return err == nil
}

func checkRepository(s settings) doctorCheck {
	c := doctorCheck{Name: "github", Status: statusOK}
	inspector, err := github.NewInspector(s.Token, s.APIURL, &http.Client{Timeout: s.Timeout})
	if err != nil {
		c.Status, c.Message = statusError, err.Error()
		return c
	}
	info, err := inspector.Describe(rootCtx, s.Repo)
	if err != nil {
		c.Status, c.Message = statusError, err.Error()
		return c
	}

	c.Message = fmt.Sprintf("%s: %d open issues, rate limit %d/%d", info.FullName, info.OpenIssues, info.RateRemaining, info.RateLimit)
	switch {
	case !info.HasIssues:
		c.Status = statusError
		c.Message = info.FullName + " has issues disabled"
	case !info.Authenticated:
		c.Status = statusWarning
		c.Message += "; unauthenticated, set GITHUB_TOKEN for higher limits"
	}
	return c
}

func printDoctor(w io.Writer, r doctorResult) {
	for _, c := range r.Checks {
		icon := ui.RenderPassIcon()
		switch c.Status {
		case statusWarning:
			icon = ui.RenderWarnIcon()
		case statusError:
			icon = ui.RenderFailIcon()
		case statusSkipped:
			icon = ui.RenderSkipIcon()
		}
		fmt.Fprintf(w, "%s %-20s %s\n", icon, c.Name, c.Message)
	}
	fmt.Fprintln(w, ui.RenderSeparator())
	if r.OverallOK {
		fmt.Fprintln(w, ui.RenderPass("All checks passed"))
	} else {
		fmt.Fprintln(w, ui.RenderFail("Some checks failed"))
	}
}

func init() {
	doctorCmd.Flags().Bool("offline", false, "Skip the GitHub repository check")
	rootCmd.AddCommand(doctorCmd)
}
