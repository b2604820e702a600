package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		validate func(t *testing.T, result string)
	}{
		{
			name:  "absolute path",
			input: "/tmp/test",
			validate: func(t *testing.T, result string) {
				if !filepath.IsAbs(result) {
					t.Errorf("expected absolute path, got %q", result)
				}
			},
		},
		{
			name:  "relative path",
			input: ".",
			validate: func(t *testing.T, result string) {
				if !filepath.IsAbs(result) {
					t.Errorf("expected absolute path, got %q", result)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, CanonicalizePath(tt.input))
		})
	}
}

func TestResolveForWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.json")
	if err := os.WriteFile(target, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.json")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := ResolveForWrite(link)
	if err != nil {
		t.Fatalf("ResolveForWrite: %v", err)
	}
	if CanonicalizePath(got) != CanonicalizePath(target) {
		t.Errorf("ResolveForWrite(link) = %q, want %q", got, target)
	}

	missing := filepath.Join(dir, "missing.json")
	if got, err := ResolveForWrite(missing); err != nil || got != missing {
		t.Errorf("ResolveForWrite(missing) = %q, %v", got, err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/snapshots"); got != filepath.Join(home, "snapshots") {
		t.Errorf("ExpandHome(~/snapshots) = %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandHome(/abs/path) = %q", got)
	}
}
