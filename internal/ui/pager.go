package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// PagerOptions controls pager behavior
type PagerOptions struct {
	NoPager bool // --no-pager
}

// shouldUsePager is false for --no-pager, ISSUESNAP_NO_PAGER, or a stdout
// that is not a terminal.
func shouldUsePager(opts PagerOptions) bool {
	if opts.NoPager || os.Getenv("ISSUESNAP_NO_PAGER") != "" {
		return false
	}
	return IsTerminal()
}

// pagerCommand checks ISSUESNAP_PAGER, then PAGER, and defaults to less.
func pagerCommand() []string {
	for _, env := range []string{"ISSUESNAP_PAGER", "PAGER"} {
		if pager := strings.Fields(os.Getenv(env)); len(pager) > 0 {
			return pager
		}
	}
	return []string{"less"}
}

func terminalHeight() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	_, height, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return height
}

func contentHeight(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

// ToPager pipes content through a pager when stdout is a terminal and the
// content is taller than it. Otherwise the content is written to w directly.
func ToPager(w io.Writer, content string, opts PagerOptions) error {
	if !shouldUsePager(opts) {
		_, err := fmt.Fprint(w, content)
		return err
	}
	if h := terminalHeight(); h > 0 && contentHeight(content) <= h-1 {
		_, err := fmt.Fprint(w, content)
		return err
	}

	parts := pagerCommand()
	cmd := exec.Command(parts[0], parts[1:]...) // #nosec G204 - pager command is user-configurable
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// -R keeps glamour's colors, -F quits when it fits, -X leaves the screen.
	cmd.Env = os.Environ()
	if os.Getenv("LESS") == "" {
		cmd.Env = append(cmd.Env, "LESS=-RFX")
	}
	return cmd.Run()
}
