// Package config resolves issuesnap settings from flags, environment,
// config.yaml and built-in defaults, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DirName is the per-project config directory searched from the working
// directory upward.
const DirName = ".issuesnap"

// FileName is the config file looked up in every search location.
const FileName = "config.yaml"

// EnvPrefix is prepended to every environment override (ISSUESNAP_KEEP_FULL etc).
const EnvPrefix = "ISSUESNAP"

// Keys understood by Initialize. Nested keys use viper's dotted form.
const (
	KeyRepo           = "repo"
	KeyBaseDir        = "base-dir"
	KeyKeepFull       = "keep-full"
	KeyKeepDelta      = "keep-delta"
	KeyWeeklyFullDays = "weekly-full-days"
	KeyMinScore       = "relevance.min-score"
	KeyTopicsFile     = "relevance.topics-file"
	KeyStateBackend   = "state.backend"
	KeyGitHubToken    = "github.token"
	KeyGitHubAPIURL   = "github.api-url"
	KeyGitHubTimeout  = "github.timeout"
)

// Defaults applied before any file or environment value.
var Defaults = map[string]interface{}{
	KeyRepo:           "openclaw/openclaw",
	KeyBaseDir:        ".",
	KeyKeepFull:       8,
	KeyKeepDelta:      30,
	KeyWeeklyFullDays: 7,
	KeyMinScore:       2,
	KeyTopicsFile:     "",
	KeyStateBackend:   "json",
	KeyGitHubToken:    "",
	KeyGitHubAPIURL:   "https://api.github.com",
	KeyGitHubTimeout:  30 * time.Second,
}

var v *viper.Viper

// Initialize builds a fresh viper instance. It is safe to call more than
// once; every call rereads the environment and the config file.
func Initialize() error {
	nv := viper.New()
	nv.SetConfigType("yaml")

	for key, val := range Defaults {
		nv.SetDefault(key, val)
	}

	nv.SetEnvPrefix(EnvPrefix)
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	nv.AutomaticEnv()
	// GITHUB_TOKEN is what gh and Actions export; accept it as a fallback.
	if err := nv.BindEnv(KeyGitHubToken, EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return fmt.Errorf("binding github token env: %w", err)
	}

	if path := findConfigFile(); path != "" {
		nv.SetConfigFile(path)
		if err := nv.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	v = nv
	return nil
}

// findConfigFile returns the first config.yaml found. ISSUESNAP_CONFIG wins
// outright; otherwise the working directory and its parents are searched for
// .issuesnap/config.yaml, then the user config directories.
func findConfigFile() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG"); explicit != "" {
		return explicit
	}

	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; ; {
			candidate := filepath.Join(dir, DirName, FileName)
			if fileExists(candidate) {
				return candidate
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	for _, dir := range userConfigDirs() {
		candidate := filepath.Join(dir, "issuesnap", FileName)
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

func userConfigDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, xdg)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config"))
	}
	return dirs
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ResetForTesting drops the current viper instance.
func ResetForTesting() {
	v = nil
}

// ConfigFileUsed returns the path of the loaded config file, or "" if none.
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// GetString retrieves a string configuration value
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration retrieves a duration configuration value
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set overrides a value for the rest of the process. No-op before Initialize.
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// AllSettings returns every resolved setting as a nested map.
func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}
