// Package debug holds the process-wide verbosity switches and the helpers
// that honor them.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	enabled     = os.Getenv("ISSUESNAP_DEBUG") != ""
	verboseMode = false
	quietMode   = false
	logMutex    sync.Mutex
)

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet enables quiet mode (suppress non-essential output)
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quietMode
}

func Logf(format string, args ...interface{}) {
	if enabled || verboseMode {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// PrintNormal prints to stdout unless quiet mode is enabled.
func PrintNormal(format string, args ...interface{}) {
	if !quietMode {
		fmt.Printf(format, args...)
	}
}

// PrintlnNormal prints a line unless quiet mode is enabled
func PrintlnNormal(args ...interface{}) {
	if !quietMode {
		fmt.Println(args...)
	}
}

// Progressf reports run progress on stderr unless quiet mode is enabled.
// stdout is reserved for command results such as the run summary.
func Progressf(format string, args ...interface{}) {
	if !quietMode {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// Warnf prints a "Warning: " line on stderr. Warnings ignore quiet mode.
func Warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "Warning: %s\n", strings.TrimRight(msg, "\n"))
}

// EventsFile is the append-only run log kept next to the state file.
const EventsFile = "events.log"

// LogEvent appends one line to <dir>/events.log.
// Format: TIMESTAMP|EVENT_CODE|SUBJECT|DETAILS
// Failures are silent; the log is a convenience, never a reason to fail a run.
func LogEvent(dir, eventCode, subject, details string) {
	if dir == "" {
		return
	}
	if subject == "" {
		subject = "none"
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	entry := fmt.Sprintf("%s|%s|%s|%s\n", timestamp, eventCode, subject, sanitize(details))

	logMutex.Lock()
	defer logMutex.Unlock()

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return
	}
	file, err := os.OpenFile(filepath.Join(dir, EventsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- dir is the state directory
	if err != nil {
		return
	}
	defer func() { _ = file.Close() }()
	_, _ = file.WriteString(entry)
}

// sanitize keeps an entry on a single line and free of the field separator.
func sanitize(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ", "|", "/").Replace(s)
}
