// Package timeparsing turns user-supplied reference points such as --since
// into absolute times.
//
// ParseRelativeTime tries each layer in order:
//  1. Compact lookback (2d, -6h, +1w)
//  2. Absolute timestamp (RFC3339, then date-only)
//  3. Natural language (yesterday, 3 days ago, last monday)
package timeparsing

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var compactRe = regexp.MustCompile(`^([+-]?)(\d+)([hdwmy])$`)

// units maps a compact suffix to the shift it applies.
var units = map[string]func(t time.Time, n int) time.Time{
	"h": func(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Hour) },
	"d": func(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) },
	"w": func(t time.Time, n int) time.Time { return t.AddDate(0, 0, 7*n) },
	"m": func(t time.Time, n int) time.Time { return t.AddDate(0, n, 0) },
	"y": func(t time.Time, n int) time.Time { return t.AddDate(n, 0, 0) },
}

// ParseCompactDuration resolves [+-]?N[hdwmy] against now. A reference
// point usually lies in the past, so an unsigned amount looks back:
// "2d" and "-2d" both mean two days before now, "+2d" two days after.
// m is months.
func ParseCompactDuration(s string, now time.Time) (time.Time, error) {
	m := compactRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("not a compact duration: %q", s)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid duration amount %q: %w", m[2], err)
	}
	if m[1] != "+" {
		n = -n
	}
	return units[m[3]](now, n), nil
}

// IsCompactDuration reports whether s uses the compact syntax.
func IsCompactDuration(s string) bool {
	return compactRe.MatchString(s)
}
