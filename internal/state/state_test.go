package state

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/issuesnap/internal/types"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func sampleState() *types.RunState {
	st := types.NewRunState()
	st.MarkRun("openclaw/openclaw", types.ModeFull, *ts("2026-02-10T00:00:00Z"))
	st.Issues[1] = types.RememberedIssue{Status: types.StatusOpen, UpdatedAt: ts("2026-02-09T10:00:00Z"), Title: "first", URL: "https://github.com/o/r/issues/1"}
	st.Issues[2] = types.RememberedIssue{Status: types.StatusClosed, UpdatedAt: nil, Title: "second", URL: "https://github.com/o/r/issues/2"}
	return st
}

// storeFactories exercises both backends with the same assertions.
func storeFactories() map[string]func(dir string) Store {
	return map[string]func(dir string) Store{
		"json":   func(dir string) Store { return NewFileStore(filepath.Join(dir, Dir, FileName)) },
		"sqlite": func(dir string) Store { return NewSQLiteStore(filepath.Join(dir, Dir, DBName)) },
	}
}

func TestLoadMissingReturnsEmpty(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t.TempDir())
			defer s.Close()

			st, err := s.Load(context.Background())
			require.NoError(t, err)
			assert.True(t, st.IsEmpty())
			assert.NotNil(t, st.Issues)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			ctx := context.Background()
			want := sampleState()

			s := newStore(dir)
			require.NoError(t, s.Save(ctx, want))
			require.NoError(t, s.Close())

			reopened := newStore(dir)
			defer reopened.Close()
			got, err := reopened.Load(ctx)
			require.NoError(t, err)

			assert.Equal(t, want.Repo, got.Repo)
			require.NotNil(t, got.LastFullAt)
			assert.True(t, want.LastFullAt.Equal(*got.LastFullAt))
			assert.Nil(t, got.LastDeltaAt)
			require.Len(t, got.Issues, 2)
			assert.Equal(t, types.StatusOpen, got.Issues[1].Status)
			assert.True(t, got.Issues[1].UpdatedAt.Equal(*ts("2026-02-09T10:00:00Z")))
			assert.Nil(t, got.Issues[2].UpdatedAt)
			assert.Equal(t, "second", got.Issues[2].Title)
		})
	}
}

func TestLoadCorruptWarnsAndReturnsEmpty(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			s := newStore(dir)
			require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o750))
			require.NoError(t, os.WriteFile(s.Path(), bytes.Repeat([]byte("not a state store\n"), 256), 0o600))

			var warnings []string
			switch st := s.(type) {
			case *FileStore:
				st.OnWarning = func(msg string) { warnings = append(warnings, msg) }
			case *SQLiteStore:
				st.OnWarning = func(msg string) { warnings = append(warnings, msg) }
			}
			defer s.Close()

			got, err := s.Load(context.Background())
			require.NoError(t, err)
			assert.True(t, got.IsEmpty())
			assert.Len(t, warnings, 1)

			// The next save replaces the unreadable store.
			require.NoError(t, s.Save(context.Background(), sampleState()))
			again, err := s.Load(context.Background())
			require.NoError(t, err)
			assert.Len(t, again.Issues, 2)
		})
	}
}

func TestFileStoreSaveOverSymlink(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "elsewhere.json")
	link := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(real, []byte("{}"), 0o600))
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	s := NewFileStore(link)
	require.NoError(t, s.Save(context.Background(), sampleState()))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "symlink should survive the save")

	data, err := os.ReadFile(real)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"issue_state"`)
}

func TestApplyIsIdempotent(t *testing.T) {
	issues := []types.Issue{
		{Number: 1, Status: types.StatusClosed, Title: "first", URL: "u1", UpdatedAt: ts("2026-02-11T00:00:00Z")},
		{Number: 3, Status: types.StatusOpen, Title: "third", URL: "u3", UpdatedAt: ts("2026-02-11T01:00:00Z")},
	}

	once := sampleState()
	Apply(once, issues)
	twice := sampleState()
	Apply(twice, issues)
	Apply(twice, issues)

	assert.Equal(t, once.Issues, twice.Issues)
	assert.Len(t, once.Issues, 3)
	assert.Equal(t, types.StatusClosed, once.Issues[1].Status)
	// Issues absent from the batch are kept.
	assert.Equal(t, "second", once.Issues[2].Title)
}

func TestApplyNilMap(t *testing.T) {
	st := &types.RunState{}
	Apply(st, []types.Issue{{Number: 7, Status: types.StatusOpen}})
	assert.Len(t, st.Issues, 1)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open("", dir, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	assert.Equal(t, filepath.Join(dir, "state", "snapshot-state.json"), s.Path())

	s, err = Open(BackendSQLite, dir, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)

	_, err = Open("redis", dir, nil)
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}
