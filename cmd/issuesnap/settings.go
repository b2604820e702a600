package main

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/issuesnap/internal/config"
	"github.com/steveyegge/issuesnap/internal/debug"
	"github.com/steveyegge/issuesnap/internal/github"
	"github.com/steveyegge/issuesnap/internal/relevance"
	"github.com/steveyegge/issuesnap/internal/snapshot"
	"github.com/steveyegge/issuesnap/internal/state"
	"github.com/steveyegge/issuesnap/internal/telemetry"
	"github.com/steveyegge/issuesnap/internal/utils"
)

// flagConfigKeys maps command-line flags onto the config keys they override.
var flagConfigKeys = map[string]string{
	"repo":             config.KeyRepo,
	"base-dir":         config.KeyBaseDir,
	"state-backend":    config.KeyStateBackend,
	"api-url":          config.KeyGitHubAPIURL,
	"keep-full":        config.KeyKeepFull,
	"keep-delta":       config.KeyKeepDelta,
	"weekly-full-days": config.KeyWeeklyFullDays,
	"min-score":        config.KeyMinScore,
	"topics-file":      config.KeyTopicsFile,
}

// applyFlagOverrides copies every explicitly set flag into the config so
// flags beat environment, file and defaults.
func applyFlagOverrides(cmd *cobra.Command) {
	for name, key := range flagConfigKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			config.Set(key, f.Value.String())
		}
	}
}

// settings is the resolved configuration for one command.
type settings struct {
	Repo           string
	BaseDir        string
	KeepFull       int
	KeepDelta      int
	WeeklyFullDays int
	MinScore       int
	TopicsFile     string
	Backend        state.Backend
	Token          string
	APIURL         string
	Timeout        time.Duration
}

func loadSettings() settings {
	baseDir := utils.ExpandHome(config.GetString(config.KeyBaseDir))
	if baseDir == "" {
		baseDir = "."
	}
	return settings{
		Repo:           config.GetString(config.KeyRepo),
		BaseDir:        filepath.Clean(baseDir),
		KeepFull:       config.GetInt(config.KeyKeepFull),
		KeepDelta:      config.GetInt(config.KeyKeepDelta),
		WeeklyFullDays: config.GetInt(config.KeyWeeklyFullDays),
		MinScore:       config.GetInt(config.KeyMinScore),
		TopicsFile:     utils.ExpandHome(config.GetString(config.KeyTopicsFile)),
		Backend:        state.Backend(config.GetString(config.KeyStateBackend)),
		Token:          config.GetString(config.KeyGitHubToken),
		APIURL:         config.GetString(config.KeyGitHubAPIURL),
		Timeout:        config.GetDuration(config.KeyGitHubTimeout),
	}
}

func (s settings) fullInterval() time.Duration {
	return time.Duration(s.WeeklyFullDays) * 24 * time.Hour
}

// stateDir is where the state store and the events log live.
func (s settings) stateDir() string {
	return filepath.Join(s.BaseDir, state.Dir)
}

func openStore(s settings) (state.Store, error) {
	store, err := state.Open(s.Backend, s.BaseDir, warn)
	if err != nil {
		return nil, err
	}
	return telemetry.WrapStore(store), nil
}

func newSource(s settings) *github.Source {
	src := github.NewSource(s.Token)
	if s.APIURL != "" {
		src.BaseURL = s.APIURL
	}
	if s.Timeout > 0 {
		src.HTTPClient = &http.Client{Timeout: s.Timeout}
	}
	return src
}

func newEngine(s settings, source snapshot.IssueSource, store state.Store, topics []relevance.Topic) *snapshot.Engine {
	return &snapshot.Engine{
		Source:    source,
		Store:     store,
		Repo:      s.Repo,
		BaseDir:   s.BaseDir,
		KeepFull:  s.KeepFull,
		KeepDelta: s.KeepDelta,
		Topics:    topics,
		OnMessage: progress,
		OnWarning: warn,
	}
}

func progress(msg string) { debug.Progressf("%s\n", msg) }
func warn(msg string)     { debug.Warnf("%s", msg) }
