package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/steveyegge/issuesnap/internal/types"
)

// Artifact file names.
const (
	FileManifest = "manifest.json"
	FileReadme   = "README.md"

	FileAllJSON    = "issues-all.json"
	FileOpenJSON   = "issues-open.json"
	FileClosedJSON = "issues-closed.json"
	FileAllJSONL   = "issues-all.jsonl"

	FileUpdatedJSON   = "issues-updated.json"
	FileOpenNowJSON   = "issues-open-now.json"
	FileClosedNowJSON = "issues-closed-now.json"
	FileUpdatedJSONL  = "issues-updated.jsonl"
)

const artifactPerm = 0o644

// CategoryFileName is the artifact holding one change category.
func CategoryFileName(cat types.ChangeCategory) string {
	return string(cat) + ".json"
}

func encodeJSON(v interface{}, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeJSON writes v as indented JSON.
func writeJSON(dir, name string, v interface{}) error {
	data, err := encodeJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	// #nosec G306 - captures are meant to be read by other tools
	if err := os.WriteFile(filepath.Join(dir, name), data, artifactPerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// writeJSONL writes one compact JSON object per line.
func writeJSONL(dir, name string, issues []types.Issue) (err error) {
	// #nosec G304 - dir is a capture directory we just created
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, artifactPerm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", name, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, it := range issues {
		line, err := encodeJSON(it, false)
		if err != nil {
			return fmt.Errorf("failed to encode issue #%d: %w", it.Number, err)
		}
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// ReadManifest loads the manifest of a capture directory.
func ReadManifest(dir string) (*types.Manifest, error) {
	// #nosec G304 - dir is a resolved capture directory
	data, err := os.ReadFile(filepath.Join(dir, FileManifest))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m types.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
