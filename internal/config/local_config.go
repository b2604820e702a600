package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/issuesnap/internal/utils"
)

// ErrConfigExists is returned by WriteDefault when the target already exists.
var ErrConfigExists = errors.New("config file already exists")

// FileConfig mirrors the on-disk layout of config.yaml. It is used to write
// the starter file and to inspect a file without touching the viper singleton.
type FileConfig struct {
	Repo           string          `yaml:"repo"`
	BaseDir        string          `yaml:"base-dir"`
	KeepFull       int             `yaml:"keep-full"`
	KeepDelta      int             `yaml:"keep-delta"`
	WeeklyFullDays int             `yaml:"weekly-full-days"`
	Relevance      RelevanceConfig `yaml:"relevance"`
	State          StateConfig     `yaml:"state"`
	GitHub         GitHubConfig    `yaml:"github"`
}

// RelevanceConfig is the relevance: block.
type RelevanceConfig struct {
	MinScore   int    `yaml:"min-score"`
	TopicsFile string `yaml:"topics-file"`
}

// StateConfig is the state: block.
type StateConfig struct {
	Backend string `yaml:"backend"`
}

// GitHubConfig is the github: block. The token is deliberately absent from
// the starter file; set GITHUB_TOKEN instead.
type GitHubConfig struct {
	Token   string `yaml:"token,omitempty"`
	APIURL  string `yaml:"api-url"`
	Timeout string `yaml:"timeout"`
}

// DefaultFileConfig returns the starter config populated from Defaults.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Repo:           Defaults[KeyRepo].(string),
		BaseDir:        Defaults[KeyBaseDir].(string),
		KeepFull:       Defaults[KeyKeepFull].(int),
		KeepDelta:      Defaults[KeyKeepDelta].(int),
		WeeklyFullDays: Defaults[KeyWeeklyFullDays].(int),
		Relevance: RelevanceConfig{
			MinScore:   Defaults[KeyMinScore].(int),
			TopicsFile: Defaults[KeyTopicsFile].(string),
		},
		State: StateConfig{Backend: Defaults[KeyStateBackend].(string)},
		GitHub: GitHubConfig{
			APIURL:  Defaults[KeyGitHubAPIURL].(string),
			Timeout: Defaults[KeyGitHubTimeout].(time.Duration).String(),
		},
	}
}

// LoadLocalConfig parses a config.yaml directly. Missing keys are left at
// their zero value.
func LoadLocalConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is user-supplied config location
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// WriteDefault writes the starter config to path, creating parent
// directories. An existing file is never overwritten.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	} else if !os.IsNotExist(err) {
		return err
	}

	data, err := yaml.Marshal(DefaultFileConfig())
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	header := []byte("# issuesnap configuration. Environment variables ISSUESNAP_<KEY> override these values.\n")
	if err := utils.WriteFileAtomic(filepath.Clean(path), append(header, data...), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
