package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite3 "github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/tetratelabs/wazero"

	"github.com/steveyegge/issuesnap/internal/types"
)

// DBName is the SQLite state database inside the state directory.
const DBName = "snapshot-state.db"

const schema = `
CREATE TABLE IF NOT EXISTS run_meta (
	key   TEXT PRIMARY KEY,
	value TEXT
);
CREATE TABLE IF NOT EXISTS issue_state (
	number     INTEGER PRIMARY KEY,
	state      TEXT NOT NULL,
	updated_at TEXT,
	title      TEXT NOT NULL DEFAULT '',
	html_url   TEXT NOT NULL DEFAULT ''
);
`

const (
	metaRepo        = "repo"
	metaLastRunAt   = "last_run_at"
	metaLastFullAt  = "last_full_at"
	metaLastDeltaAt = "last_delta_at"
)

func init() {
	// Cache compiled SQLite WASM across process starts; fall back to memory.
	var cache wazero.CompilationCache
	if userCache, err := os.UserCacheDir(); err == nil {
		if c, err := wazero.NewCompilationCacheWithDir(filepath.Join(userCache, "issuesnap", "wasm")); err == nil {
			cache = c
		}
	}
	if cache == nil {
		cache = wazero.NewCompilationCache()
	}
	sqlite3.RuntimeConfig = wazero.NewRuntimeConfig().WithCompilationCache(cache)
}

// SQLiteStore keeps the run state in a SQLite database, one row per
// remembered issue. It suits mirrors of very large trackers where
// rewriting a single JSON document on every run gets slow.
type SQLiteStore struct {
	path    string
	db      *sql.DB
	corrupt bool

	// OnWarning receives a message when an unreadable database is discarded.
	OnWarning func(msg string)
}

// NewSQLiteStore returns a store backed by the database at path. The file
// is not touched until the first Load or Save.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Path returns the database location.
func (s *SQLiteStore) Path() string { return s.path }

// Close releases the database handle, if one was opened.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) open(ctx context.Context) (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	connStr := "file:" + s.path + "?_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	s.db = db
	return db, nil
}

// Load reads the state. A missing database yields an empty state; one that
// SQLite reports as corrupt or not a database yields an empty state and a
// warning, and is replaced on the next Save.
func (s *SQLiteStore) Load(ctx context.Context) (*types.RunState, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return types.NewRunState(), nil
		}
		return nil, fmt.Errorf("failed to stat state database: %w", err)
	}

	st, err := s.load(ctx)
	if err != nil {
		if isCorrupt(err) {
			_ = s.Close()
			s.corrupt = true
			warnf(s.OnWarning, "state database %s is unreadable, starting from empty state: %v", s.path, err)
			return types.NewRunState(), nil
		}
		return nil, err
	}
	return st, nil
}

func (s *SQLiteStore) load(ctx context.Context) (*types.RunState, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	st := types.NewRunState()
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM run_meta`)
	if err != nil {
		return nil, fmt.Errorf("failed to read run metadata: %w", err)
	}
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}
		switch key {
		case metaRepo:
			st.Repo = value.String
		case metaLastRunAt:
			st.LastRunAt = parseTime(value)
		case metaLastFullAt:
			st.LastFullAt = parseTime(value)
		case metaLastDeltaAt:
			st.LastDeltaAt = parseTime(value)
		}
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = db.QueryContext(ctx, `SELECT number, state, updated_at, title, html_url FROM issue_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to read issue state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			number    int
			status    string
			updatedAt sql.NullString
			r         types.RememberedIssue
		)
		if err := rows.Scan(&number, &status, &updatedAt, &r.Title, &r.URL); err != nil {
			return nil, fmt.Errorf("failed to scan issue state: %w", err)
		}
		r.Status = types.Status(status)
		r.UpdatedAt = parseTime(updatedAt)
		st.Issues[number] = r
	}
	return st, rows.Err()
}

// Save writes the whole state in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, st *types.RunState) error {
	if s.corrupt {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove unreadable state database: %w", err)
			}
		}
		s.corrupt = false
	}

	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	meta := map[string]sql.NullString{
		metaRepo:        {String: st.Repo, Valid: true},
		metaLastRunAt:   formatTime(st.LastRunAt),
		metaLastFullAt:  formatTime(st.LastFullAt),
		metaLastDeltaAt: formatTime(st.LastDeltaAt),
	}
	for key, value := range meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO issue_state (number, state, updated_at, title, html_url) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(number) DO UPDATE SET
		   state = excluded.state,
		   updated_at = excluded.updated_at,
		   title = excluded.title,
		   html_url = excluded.html_url`)
	if err != nil {
		return fmt.Errorf("failed to prepare issue upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for number, r := range st.Issues {
		if _, err := stmt.ExecContext(ctx, number, string(r.Status), formatTime(r.UpdatedAt), r.Title, r.URL); err != nil {
			return fmt.Errorf("failed to write issue #%d: %w", number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	return nil
}

func isCorrupt(err error) bool {
	return errors.Is(err, sqlite3.NOTADB) || errors.Is(err, sqlite3.CORRUPT)
}

// Timestamps are stored as RFC 3339 text so the driver never reinterprets them.
func formatTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseTime(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil
	}
	return &t
}
