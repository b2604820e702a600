package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/steveyegge/issuesnap/internal/types"
	"github.com/steveyegge/issuesnap/internal/utils"
)

// Pointer names in the base directory.
const (
	PointerLatest      = "latest"
	PointerLatestFull  = "latest-full"
	PointerLatestDelta = "latest-delta"
)

// PointerFileSuffix marks the plain-file pointer used where symlinks are unavailable.
const PointerFileSuffix = ".pointer"

// Pointers lists every pointer name.
var Pointers = []string{PointerLatest, PointerLatestFull, PointerLatestDelta}

// PointersFor returns the pointers a capture of kind moves.
func PointersFor(kind types.Mode) []string {
	if kind == types.ModeFull {
		return []string{PointerLatestFull, PointerLatest}
	}
	return []string{PointerLatestDelta}
}

var symlink = os.Symlink

// UpdatePointer points name at target with a relative symlink. The new link
// is created under a temporary name and renamed over the old one, so readers
// never see a missing pointer. Where symlinks cannot be created a
// <name>.pointer file holding the relative path is written instead.
func UpdatePointer(baseDir, name, target string) error {
	rel, err := filepath.Rel(baseDir, target)
	if err != nil {
		return fmt.Errorf("failed to relativize %s: %w", target, err)
	}
	link := filepath.Join(baseDir, name)
	tmp := filepath.Join(baseDir, "."+name+".tmp-"+strconv.Itoa(os.Getpid()))
	_ = os.Remove(tmp)

	if err := symlink(rel, tmp); err != nil {
		// A stale symlink would shadow the fallback file.
		if rerr := os.Remove(link); rerr != nil && !os.IsNotExist(rerr) {
			return fmt.Errorf("failed to update pointer %s: %w", name, rerr)
		}
		if werr := utils.WriteFileAtomic(link+PointerFileSuffix, []byte(filepath.ToSlash(rel)+"\n"), 0o644); werr != nil {
			return fmt.Errorf("failed to update pointer %s: %w", name, werr)
		}
		return nil
	}
	if err := os.Rename(tmp, link); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to update pointer %s: %w", name, err)
	}
	// A symlink now exists; drop any fallback file from an earlier run.
	_ = os.Remove(link + PointerFileSuffix)
	return nil
}

// ResolvePointer returns the capture directory a pointer refers to. A
// pointer that is missing or refers to a pruned capture yields ErrNoCapture.
func ResolvePointer(baseDir, name string) (string, error) {
	link := filepath.Join(baseDir, name)

	var rel string
	if info, err := os.Lstat(link); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if rel, err = os.Readlink(link); err != nil {
			return "", fmt.Errorf("failed to read pointer %s: %w", name, err)
		}
	} else if data, err := os.ReadFile(link + PointerFileSuffix); err == nil { // #nosec G304
		rel = filepath.FromSlash(strings.TrimSpace(string(data)))
	} else {
		return "", fmt.Errorf("%w: pointer %s is not set", ErrNoCapture, name)
	}

	target := rel
	if !filepath.IsAbs(target) {
		target = filepath.Join(baseDir, rel)
	}
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: pointer %s refers to missing %s", ErrNoCapture, name, rel)
	}
	return target, nil
}

// Resolve turns a pointer name or capture identity into a capture directory.
func Resolve(baseDir, ref string) (string, error) {
	if ref == "" {
		ref = PointerLatest
	}
	for _, p := range Pointers {
		if ref == p {
			return ResolvePointer(baseDir, ref)
		}
	}
	c, err := FindCapture(baseDir, ref)
	if err != nil {
		return "", err
	}
	return c.Dir, nil
}
