package snapshot

import (
	"errors"
	"fmt"
	"os"

	"github.com/steveyegge/issuesnap/internal/types"
)

var removeAll = os.RemoveAll

// Prune deletes the oldest captures of kind until at most keep remain and
// returns the identities it removed. keep below 1 is treated as 1 so the
// newest capture always survives. Removal failures are collected; the
// remaining captures are still attempted.
func Prune(baseDir string, kind types.Mode, keep int) ([]string, error) {
	if keep < 1 {
		keep = 1
	}
	captures, err := ListCaptures(baseDir, kind)
	if err != nil {
		return nil, err
	}
	if len(captures) <= keep {
		return []string{}, nil
	}

	var (
		removed []string
		errs    []error
	)
	for _, c := range captures[:len(captures)-keep] {
		if err := removeAll(c.Dir); err != nil {
			errs = append(errs, fmt.Errorf("remove %s capture %s: %w", kind, c.ID, err))
			continue
		}
		removed = append(removed, c.ID)
	}
	return removed, errors.Join(errs...)
}
