// Package runmode decides whether a snapshot run captures the full issue set
// or only the issues changed since a reference point.
package runmode

import (
	"time"

	"github.com/steveyegge/issuesnap/internal/types"
)

// DefaultFullInterval is how old the last full capture may get before auto
// mode schedules a new one.
const DefaultFullInterval = 7 * 24 * time.Hour

// Input carries everything the selector looks at. LastFullAt and LastRunAt
// come from the persisted run state; Since is an explicit reference point
// from the caller and may be nil.
type Input struct {
	Requested    types.Mode
	LastFullAt   *time.Time
	LastRunAt    *time.Time
	FullInterval time.Duration
	Since        *time.Time
}

// Decision is the effective plan for a run.
type Decision struct {
	Mode      types.Mode // Executed mode: full or delta
	Requested types.Mode // Mode the caller asked for
	Since     *time.Time // Reference point, delta only
	Fallback  bool       // Delta was wanted but no reference point exists
	Reason    string     // Human-readable explanation of the choice
}

// Fallback reasons surfaced to callers and recorded in manifests.
const (
	ReasonRequestedFull  = "full capture requested"
	ReasonRequestedDelta = "delta capture requested"
	ReasonNoFullCapture  = "no previous full capture"
	ReasonFullDue        = "last full capture is older than the full interval"
	ReasonDeltaDue       = "recent full capture exists; capturing changes only"
	ReasonNoReference    = "no previous state found for delta; running full snapshot instead"
)

// Select returns the effective mode for a run. It has no side effects.
func Select(in Input, now time.Time) Decision {
	requested := in.Requested
	if requested == "" {
		requested = types.ModeAuto
	}
	interval := in.FullInterval
	if interval <= 0 {
		interval = DefaultFullInterval
	}

	switch requested {
	case types.ModeFull:
		return full(requested, ReasonRequestedFull)

	case types.ModeDelta:
		return delta(requested, firstSet(in.Since, in.LastRunAt), ReasonRequestedDelta)

	default:
		if in.LastFullAt == nil {
			return full(requested, ReasonNoFullCapture)
		}
		if now.Sub(*in.LastFullAt) >= interval {
			return full(requested, ReasonFullDue)
		}
		// Auto prefers the recorded last run over an explicit since.
		return delta(requested, firstSet(in.LastRunAt, in.Since), ReasonDeltaDue)
	}
}

func full(requested types.Mode, reason string) Decision {
	return Decision{Mode: types.ModeFull, Requested: requested, Reason: reason}
}

func delta(requested types.Mode, since *time.Time, reason string) Decision {
	if since == nil {
		return Decision{Mode: types.ModeFull, Requested: requested, Fallback: true, Reason: ReasonNoReference}
	}
	s := since.UTC()
	return Decision{Mode: types.ModeDelta, Requested: requested, Since: &s, Reason: reason}
}

func firstSet(ts ...*time.Time) *time.Time {
	for _, t := range ts {
		if t != nil {
			return t
		}
	}
	return nil
}
