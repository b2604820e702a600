// Package classify buckets issues from a delta capture by how their status
// moved since the previous run.
package classify

import (
	"github.com/steveyegge/issuesnap/internal/types"
)

// Result partitions a batch into the six change categories. Every input
// issue appears in exactly one slice, in input order.
type Result struct {
	NewOpened          []types.Issue `json:"new_opened"`
	NewClosed          []types.Issue `json:"new_closed"`
	NewlyClosed        []types.Issue `json:"newly_closed"`
	Reopened           []types.Issue `json:"reopened"`
	StillOpenUpdated   []types.Issue `json:"still_open_updated"`
	StillClosedUpdated []types.Issue `json:"still_closed_updated"`
}

// Category decides the change category of one issue given its previous
// remembered entry. A missing entry means the number was never seen before.
func Category(prev *types.RememberedIssue, current types.Status) types.ChangeCategory {
	open := types.ParseStatus(string(current)) == types.StatusOpen
	if prev == nil {
		if open {
			return types.CategoryNewOpened
		}
		return types.CategoryNewClosed
	}

	// Only a known prior status can produce a transition; anything else is
	// treated as an update in the current status.
	was := types.ParseStatus(string(prev.Status))
	switch {
	case was == types.StatusOpen && !open:
		return types.CategoryNewlyClosed
	case was == types.StatusClosed && open:
		return types.CategoryReopened
	case open:
		return types.CategoryStillOpenUpdated
	default:
		return types.CategoryStillClosedUpdated
	}
}

// Classify partitions issues against prior. The batch is trusted to contain
// only issues updated since the reference point; prior is not modified.
func Classify(issues []types.Issue, prior *types.RunState) *Result {
	r := &Result{
		NewOpened:          []types.Issue{},
		NewClosed:          []types.Issue{},
		NewlyClosed:        []types.Issue{},
		Reopened:           []types.Issue{},
		StillOpenUpdated:   []types.Issue{},
		StillClosedUpdated: []types.Issue{},
	}
	for _, it := range issues {
		var prev *types.RememberedIssue
		if entry, ok := prior.Lookup(it.Number); ok {
			prev = &entry
		}
		r.add(Category(prev, it.Status), it)
	}
	return r
}

func (r *Result) add(cat types.ChangeCategory, it types.Issue) {
	switch cat {
	case types.CategoryNewOpened:
		r.NewOpened = append(r.NewOpened, it)
	case types.CategoryNewClosed:
		r.NewClosed = append(r.NewClosed, it)
	case types.CategoryNewlyClosed:
		r.NewlyClosed = append(r.NewlyClosed, it)
	case types.CategoryReopened:
		r.Reopened = append(r.Reopened, it)
	case types.CategoryStillOpenUpdated:
		r.StillOpenUpdated = append(r.StillOpenUpdated, it)
	case types.CategoryStillClosedUpdated:
		r.StillClosedUpdated = append(r.StillClosedUpdated, it)
	}
}

// Get returns the issues in one category.
func (r *Result) Get(cat types.ChangeCategory) []types.Issue {
	switch cat {
	case types.CategoryNewOpened:
		return r.NewOpened
	case types.CategoryNewClosed:
		return r.NewClosed
	case types.CategoryNewlyClosed:
		return r.NewlyClosed
	case types.CategoryReopened:
		return r.Reopened
	case types.CategoryStillOpenUpdated:
		return r.StillOpenUpdated
	case types.CategoryStillClosedUpdated:
		return r.StillClosedUpdated
	}
	return nil
}

// Counts returns the size of every category, keyed by category name.
func (r *Result) Counts() map[types.ChangeCategory]int {
	counts := make(map[types.ChangeCategory]int, len(types.AllCategories))
	for _, cat := range types.AllCategories {
		counts[cat] = len(r.Get(cat))
	}
	return counts
}

// Total is the number of classified issues.
func (r *Result) Total() int {
	n := 0
	for _, cat := range types.AllCategories {
		n += len(r.Get(cat))
	}
	return n
}
