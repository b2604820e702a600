package types

import (
	"errors"
	"fmt"
)

// Mode is the kind of capture a run performs or was asked to perform.
type Mode string

// Capture modes. ModeAuto is only ever requested, never executed.
const (
	ModeFull  Mode = "full"
	ModeDelta Mode = "delta"
	ModeAuto  Mode = "auto"
)

// ErrInvalidMode is returned for a mode name other than full, delta or auto.
var ErrInvalidMode = errors.New("invalid mode")

// ParseMode validates a mode name from a flag or config value.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeFull, ModeDelta, ModeAuto:
		return m, nil
	case "":
		return ModeAuto, nil
	}
	return "", fmt.Errorf("%w %q (must be full, delta or auto)", ErrInvalidMode, s)
}

// ChangeCategory classifies an issue's status transition since the previous run.
type ChangeCategory string

// Change categories. Every issue in a delta capture belongs to exactly one.
const (
	CategoryNewOpened          ChangeCategory = "new_opened"
	CategoryNewClosed          ChangeCategory = "new_closed"
	CategoryNewlyClosed        ChangeCategory = "newly_closed"
	CategoryReopened           ChangeCategory = "reopened"
	CategoryStillOpenUpdated   ChangeCategory = "still_open_updated"
	CategoryStillClosedUpdated ChangeCategory = "still_closed_updated"
)

// AllCategories lists the categories in their canonical report order.
var AllCategories = []ChangeCategory{
	CategoryNewOpened,
	CategoryNewClosed,
	CategoryNewlyClosed,
	CategoryReopened,
	CategoryStillOpenUpdated,
	CategoryStillClosedUpdated,
}
