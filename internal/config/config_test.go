package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInitialize(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if v == nil {
		t.Fatal("viper instance is nil after Initialize()")
	}
}

func TestDefaults(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}

	tests := []struct {
		key      string
		expected interface{}
		getter   func(string) interface{}
	}{
		{KeyRepo, "openclaw/openclaw", func(k string) interface{} { return GetString(k) }},
		{KeyBaseDir, ".", func(k string) interface{} { return GetString(k) }},
		{KeyKeepFull, 8, func(k string) interface{} { return GetInt(k) }},
		{KeyKeepDelta, 30, func(k string) interface{} { return GetInt(k) }},
		{KeyWeeklyFullDays, 7, func(k string) interface{} { return GetInt(k) }},
		{KeyMinScore, 2, func(k string) interface{} { return GetInt(k) }},
		{KeyTopicsFile, "", func(k string) interface{} { return GetString(k) }},
		{KeyStateBackend, "json", func(k string) interface{} { return GetString(k) }},
		{KeyGitHubToken, "", func(k string) interface{} { return GetString(k) }},
		{KeyGitHubAPIURL, "https://api.github.com", func(k string) interface{} { return GetString(k) }},
		{KeyGitHubTimeout, 30 * time.Second, func(k string) interface{} { return GetDuration(k) }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := tt.getter(tt.key); got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestEnvironmentBinding(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		value    string
		key      string
		expected interface{}
		getter   func(string) interface{}
	}{
		{"repo", "ISSUESNAP_REPO", "acme/widgets", KeyRepo, "acme/widgets", func(k string) interface{} { return GetString(k) }},
		{"dashed key", "ISSUESNAP_KEEP_FULL", "3", KeyKeepFull, 3, func(k string) interface{} { return GetInt(k) }},
		{"nested key", "ISSUESNAP_RELEVANCE_MIN_SCORE", "5", KeyMinScore, 5, func(k string) interface{} { return GetInt(k) }},
		{"nested dashed key", "ISSUESNAP_GITHUB_API_URL", "https://ghe.example.com/api/v3", KeyGitHubAPIURL, "https://ghe.example.com/api/v3", func(k string) interface{} { return GetString(k) }},
		{"duration", "ISSUESNAP_GITHUB_TIMEOUT", "5s", KeyGitHubTimeout, 5 * time.Second, func(k string) interface{} { return GetDuration(k) }},
		{"prefixed token", "ISSUESNAP_GITHUB_TOKEN", "tok-1", KeyGitHubToken, "tok-1", func(k string) interface{} { return GetString(k) }},
		{"plain token fallback", "GITHUB_TOKEN", "tok-2", KeyGitHubToken, "tok-2", func(k string) interface{} { return GetString(k) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.value)
			if err := Initialize(); err != nil {
				t.Fatalf("Initialize() returned error: %v", err)
			}
			if got := tt.getter(tt.key); got != tt.expected {
				t.Errorf("%s with %s=%s = %v, want %v", tt.key, tt.envVar, tt.value, got, tt.expected)
			}
		})
	}
}

func TestPrefixedTokenBeatsFallback(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "plain")
	t.Setenv("ISSUESNAP_GITHUB_TOKEN", "prefixed")
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if got := GetString(KeyGitHubToken); got != "prefixed" {
		t.Errorf("GetString(github.token) = %q, want prefixed", got)
	}
}

func writeProjectConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, DirName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return tmpDir
}

func TestConfigFile(t *testing.T) {
	root := writeProjectConfig(t, `
repo: acme/widgets
keep-full: 4
relevance:
  min-score: 3
state:
  backend: sqlite
github:
  timeout: 15s
`)
	t.Chdir(root)

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}

	if got := GetString(KeyRepo); got != "acme/widgets" {
		t.Errorf("repo = %q, want acme/widgets", got)
	}
	if got := GetInt(KeyKeepFull); got != 4 {
		t.Errorf("keep-full = %d, want 4", got)
	}
	if got := GetInt(KeyKeepDelta); got != 30 {
		t.Errorf("keep-delta = %d, want default 30", got)
	}
	if got := GetInt(KeyMinScore); got != 3 {
		t.Errorf("relevance.min-score = %d, want 3", got)
	}
	if got := GetString(KeyStateBackend); got != "sqlite" {
		t.Errorf("state.backend = %q, want sqlite", got)
	}
	if got := GetDuration(KeyGitHubTimeout); got != 15*time.Second {
		t.Errorf("github.timeout = %v, want 15s", got)
	}
	if got := ConfigFileUsed(); filepath.Base(filepath.Dir(got)) != DirName {
		t.Errorf("ConfigFileUsed() = %q, want a path inside %s", got, DirName)
	}
}

func TestConfigFileFoundFromSubdirectory(t *testing.T) {
	root := writeProjectConfig(t, "repo: acme/nested\n")
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		t.Fatal(err)
	}
	t.Chdir(sub)

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if got := GetString(KeyRepo); got != "acme/nested" {
		t.Errorf("repo = %q, want acme/nested", got)
	}
}

func TestXDGConfigFile(t *testing.T) {
	xdg := t.TempDir()
	dir := filepath.Join(xdg, "issuesnap")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("keep-delta: 12\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(t.TempDir())

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if got := GetInt(KeyKeepDelta); got != 12 {
		t.Errorf("keep-delta = %d, want 12", got)
	}
}

func TestExplicitConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("base-dir: /srv/mirror\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ISSUESNAP_CONFIG", path)

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if got := GetString(KeyBaseDir); got != "/srv/mirror" {
		t.Errorf("base-dir = %q, want /srv/mirror", got)
	}
}

func TestInvalidConfigFile(t *testing.T) {
	root := writeProjectConfig(t, "repo: [unterminated\n")
	t.Chdir(root)

	if err := Initialize(); err == nil {
		t.Fatal("Initialize() with malformed config.yaml returned nil error")
	}
}

func TestConfigPrecedence(t *testing.T) {
	root := writeProjectConfig(t, "keep-full: 4\n")
	t.Chdir(root)

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if got := GetInt(KeyKeepFull); got != 4 {
		t.Errorf("keep-full from config file = %d, want 4", got)
	}

	t.Setenv("ISSUESNAP_KEEP_FULL", "6")
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if got := GetInt(KeyKeepFull); got != 6 {
		t.Errorf("keep-full with env var = %d, want 6 (env should override config)", got)
	}
}

func TestSetAndGet(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}

	Set("test-key", "test-value")
	if got := GetString("test-key"); got != "test-value" {
		t.Errorf("GetString(test-key) = %q, want \"test-value\"", got)
	}

	Set("test-bool", true)
	if got := GetBool("test-bool"); got != true {
		t.Errorf("GetBool(test-bool) = %v, want true", got)
	}

	Set(KeyKeepFull, 42)
	if got := GetInt(KeyKeepFull); got != 42 {
		t.Errorf("GetInt(keep-full) = %d, want 42", got)
	}
}

func TestAllSettings(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	Set("custom-key", "custom-value")

	settings := AllSettings()
	if val, ok := settings["custom-key"]; !ok || val != "custom-value" {
		t.Errorf("AllSettings() missing or incorrect custom-key: got %v", val)
	}
	if _, ok := settings["relevance"].(map[string]interface{}); !ok {
		t.Errorf("AllSettings() relevance = %T, want nested map", settings["relevance"])
	}
}

func TestNilViperBehavior(t *testing.T) {
	savedV := v
	v = nil
	defer func() { v = savedV }()

	if got := GetString("any-key"); got != "" {
		t.Errorf("GetString with nil viper = %q, want \"\"", got)
	}
	if got := GetBool("any-key"); got != false {
		t.Errorf("GetBool with nil viper = %v, want false", got)
	}
	if got := GetInt("any-key"); got != 0 {
		t.Errorf("GetInt with nil viper = %d, want 0", got)
	}
	if got := GetDuration("any-key"); got != 0 {
		t.Errorf("GetDuration with nil viper = %v, want 0", got)
	}
	if got := AllSettings(); got == nil || len(got) != 0 {
		t.Errorf("AllSettings with nil viper = %v, want empty map", got)
	}
	if got := ConfigFileUsed(); got != "" {
		t.Errorf("ConfigFileUsed with nil viper = %q, want \"\"", got)
	}

	Set("any-key", "any-value") // no-op
}

func TestWriteDefault(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, DirName, FileName)

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() returned error: %v", err)
	}

	cfg, err := LoadLocalConfig(path)
	if err != nil {
		t.Fatalf("LoadLocalConfig() returned error: %v", err)
	}
	if *cfg != DefaultFileConfig() {
		t.Errorf("round trip = %+v, want %+v", *cfg, DefaultFileConfig())
	}

	// The written file must be readable by Initialize and reproduce the defaults.
	t.Chdir(root)
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if got := GetDuration(KeyGitHubTimeout); got != 30*time.Second {
		t.Errorf("github.timeout = %v, want 30s", got)
	}
	if got := GetString(KeyRepo); got != "openclaw/openclaw" {
		t.Errorf("repo = %q, want openclaw/openclaw", got)
	}

	if err := WriteDefault(path); !errors.Is(err, ErrConfigExists) {
		t.Errorf("second WriteDefault() error = %v, want ErrConfigExists", err)
	}
}

func TestLoadLocalConfigMissing(t *testing.T) {
	_, err := LoadLocalConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if !os.IsNotExist(err) {
		t.Errorf("LoadLocalConfig(missing) error = %v, want not-exist", err)
	}
}
