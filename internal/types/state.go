package types

import "time"

// RememberedIssue is the last observed summary of an issue. It carries just
// enough to classify the next change; the full record lives in the captures.
type RememberedIssue struct {
	Status    Status     `json:"state"`
	UpdatedAt *time.Time `json:"updated_at"`
	Title     string     `json:"title"`
	URL       string     `json:"html_url"`
}

// RunState is the cross-run memory of a mirror: run timestamps plus the last
// observed status of every issue number ever seen. Entries are only ever
// added or overwritten, never deleted.
type RunState struct {
	Repo        string                  `json:"repo"`
	LastRunAt   *time.Time              `json:"last_run_at"`
	LastFullAt  *time.Time              `json:"last_full_at"`
	LastDeltaAt *time.Time              `json:"last_delta_at"`
	Issues      map[int]RememberedIssue `json:"issue_state"`
}

// NewRunState returns an empty, well-formed state for a mirror that has never run.
func NewRunState() *RunState {
	return &RunState{Issues: make(map[int]RememberedIssue)}
}

// IsEmpty reports whether no run has ever completed against this state.
func (s *RunState) IsEmpty() bool {
	return s.LastRunAt == nil && s.LastFullAt == nil && s.LastDeltaAt == nil && len(s.Issues) == 0
}

// Lookup returns the remembered entry for an issue number.
func (s *RunState) Lookup(number int) (RememberedIssue, bool) {
	if s == nil || s.Issues == nil {
		return RememberedIssue{}, false
	}
	r, ok := s.Issues[number]
	return r, ok
}

// Clone returns a deep copy so a run can classify against the state as it
// was before its own updates are applied.
func (s *RunState) Clone() *RunState {
	if s == nil {
		return NewRunState()
	}
	out := &RunState{
		Repo:        s.Repo,
		LastRunAt:   cloneTime(s.LastRunAt),
		LastFullAt:  cloneTime(s.LastFullAt),
		LastDeltaAt: cloneTime(s.LastDeltaAt),
		Issues:      make(map[int]RememberedIssue, len(s.Issues)),
	}
	for n, r := range s.Issues {
		r.UpdatedAt = cloneTime(r.UpdatedAt)
		out.Issues[n] = r
	}
	return out
}

// MarkRun records a completed run of the given mode at t. last_run_at is
// always advanced; the mode-specific timestamp only for its own mode.
func (s *RunState) MarkRun(repo string, mode Mode, t time.Time) {
	t = t.UTC()
	s.Repo = repo
	s.LastRunAt = &t
	switch mode {
	case ModeFull:
		full := t
		s.LastFullAt = &full
	case ModeDelta:
		delta := t
		s.LastDeltaAt = &delta
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
