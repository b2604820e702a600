// Package state persists the cross-run memory of a mirror: run timestamps
// and the last observed summary of every issue seen so far.
package state

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/steveyegge/issuesnap/internal/types"
)

// Store loads and saves the run state.
//
// Load never fails for a store that does not exist yet or that cannot be
// parsed: both yield an empty state, the latter with a warning. Other I/O
// errors are returned.
type Store interface {
	Load(ctx context.Context) (*types.RunState, error)
	Save(ctx context.Context, st *types.RunState) error
	Path() string
	Close() error
}

// Backend names a Store implementation.
type Backend string

// Supported backends.
const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

// Dir is the state directory under the mirror's base directory.
const Dir = "state"

// ErrUnknownBackend is returned by Open for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown state backend")

// Open returns the store for backend rooted at baseDir. An empty backend
// selects the JSON file store.
func Open(backend Backend, baseDir string, onWarning func(msg string)) (Store, error) {
	switch backend {
	case "", BackendJSON:
		s := NewFileStore(filepath.Join(baseDir, Dir, FileName))
		s.OnWarning = onWarning
		return s, nil
	case BackendSQLite:
		s := NewSQLiteStore(filepath.Join(baseDir, Dir, DBName))
		s.OnWarning = onWarning
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q (must be json or sqlite)", ErrUnknownBackend, backend)
}

// Apply records the current status, update time, title and URL of every
// fetched issue. Entries for issues not in the batch are left alone, so
// applying the same batch twice gives the same state as applying it once.
func Apply(st *types.RunState, issues []types.Issue) {
	if st.Issues == nil {
		st.Issues = make(map[int]types.RememberedIssue, len(issues))
	}
	for _, it := range issues {
		st.Issues[it.Number] = types.RememberedIssue{
			Status:    it.Status,
			UpdatedAt: it.UpdatedAt,
			Title:     it.Title,
			URL:       it.URL,
		}
	}
}

func warnf(fn func(string), format string, args ...interface{}) {
	if fn != nil {
		fn(fmt.Sprintf(format, args...))
	}
}
