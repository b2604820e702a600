package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/steveyegge/issuesnap/internal/types"
	"github.com/steveyegge/issuesnap/internal/utils"
)

// FileName is the JSON state file inside the state directory.
const FileName = "snapshot-state.json"

// FileStore keeps the run state in a single JSON document.
type FileStore struct {
	path string

	// OnWarning receives a message when an unreadable state file is discarded.
	OnWarning func(msg string)
}

// NewFileStore returns a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the state file location.
func (s *FileStore) Path() string { return s.path }

// Close is a no-op; the file is only open during Load and Save.
func (s *FileStore) Close() error { return nil }

// Load reads the state file. A missing file yields an empty state; a file
// that does not parse yields an empty state and a warning.
func (s *FileStore) Load(_ context.Context) (*types.RunState, error) {
	// #nosec G304 - path is derived from the configured base directory
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.NewRunState(), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var st types.RunState
	if err := json.Unmarshal(data, &st); err != nil {
		warnf(s.OnWarning, "state file %s is unreadable, starting from empty state: %v", s.path, err)
		return types.NewRunState(), nil
	}
	if st.Issues == nil {
		st.Issues = make(map[int]types.RememberedIssue)
	}
	return &st, nil
}

// Save replaces the state file atomically. A symlinked state file is
// written through to its target.
func (s *FileStore) Save(_ context.Context, st *types.RunState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	data = append(data, '\n')

	target, err := utils.ResolveForWrite(s.path)
	if err != nil {
		return fmt.Errorf("failed to resolve state path: %w", err)
	}
	if err := utils.WriteFileAtomic(target, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}
