package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/steveyegge/issuesnap/internal/types"
)

// IDLayout formats capture identities. Lexical order of identities is
// creation order.
const IDLayout = "2006-01-02-150405.000000"

var (
	// ErrCaptureExists is returned when the directory for a new capture
	// already exists. Captures are never overwritten.
	ErrCaptureExists = errors.New("capture directory already exists")

	// ErrNoCapture is returned when a pointer or capture reference does not
	// resolve to an existing capture.
	ErrNoCapture = errors.New("no capture found")
)

// idAllocator hands out strictly increasing identities within a process,
// even when the clock stalls or steps backwards.
type idAllocator struct {
	mu   sync.Mutex
	last time.Time
}

func (a *idAllocator) next(now time.Time) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	now = now.UTC().Truncate(time.Microsecond)
	if !now.After(a.last) {
		now = a.last.Add(time.Microsecond)
	}
	a.last = now
	return now.Format(IDLayout)
}

var captureIDs idAllocator

// Capture is one run's output directory.
type Capture struct {
	Kind types.Mode `json:"kind"`
	ID   string     `json:"id"`
	Dir  string     `json:"dir"`
}

// KindDir is the directory holding every capture of one kind.
func KindDir(baseDir string, kind types.Mode) string {
	return filepath.Join(baseDir, string(kind))
}

// createCaptureDir makes the capture directory. The parent is created as
// needed; the capture directory itself must not exist yet.
func createCaptureDir(baseDir string, kind types.Mode, id string) (string, error) {
	parent := KindDir(baseDir, kind)
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", kind, err)
	}
	dir := filepath.Join(parent, id)
	if err := os.Mkdir(dir, 0o750); err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%w: %s", ErrCaptureExists, dir)
		}
		return "", fmt.Errorf("failed to create capture directory: %w", err)
	}
	return dir, nil
}

// ListCaptures returns the captures of one kind, oldest first. A kind that
// has never been captured yields an empty list.
func ListCaptures(baseDir string, kind types.Mode) ([]Capture, error) {
	parent := KindDir(baseDir, kind)
	entries, err := os.ReadDir(parent)
	if err != nil {
		if os.IsNotExist(err) {
			return []Capture{}, nil
		}
		return nil, fmt.Errorf("failed to list %s captures: %w", kind, err)
	}

	captures := make([]Capture, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		captures = append(captures, Capture{Kind: kind, ID: e.Name(), Dir: filepath.Join(parent, e.Name())})
	}
	sort.Slice(captures, func(i, j int) bool { return captures[i].ID < captures[j].ID })
	return captures, nil
}

// FindCapture locates a capture by identity in either kind directory.
func FindCapture(baseDir, id string) (Capture, error) {
	for _, kind := range []types.Mode{types.ModeFull, types.ModeDelta} {
		dir := filepath.Join(KindDir(baseDir, kind), id)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return Capture{Kind: kind, ID: id, Dir: dir}, nil
		}
	}
	return Capture{}, fmt.Errorf("%w: %s", ErrNoCapture, id)
}
