// Package ui provides terminal styling for issuesnap CLI output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/issuesnap/internal/types"
)

// Ayu theme color palette
// Dark: https://terminalcolors.com/themes/ayu/dark/
// Light: https://terminalcolors.com/themes/ayu/light/
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)

	// SectionStyle is used for status and doctor section headers.
	SectionStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
)

// Status icons
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconSkip = "-"
)

const SeparatorLight = "──────────────────────────────────────────"

// render applies style only when color output is appropriate, so piped
// output stays free of escape sequences.
func render(style lipgloss.Style, s string) string {
	if !ShouldUseColor() {
		return s
	}
	return style.Render(s)
}

func RenderPass(s string) string   { return render(PassStyle, s) }
func RenderWarn(s string) string   { return render(WarnStyle, s) }
func RenderFail(s string) string   { return render(FailStyle, s) }
func RenderMuted(s string) string  { return render(MutedStyle, s) }
func RenderAccent(s string) string { return render(AccentStyle, s) }

// RenderSection renders a section header in uppercase.
func RenderSection(s string) string {
	return render(SectionStyle, strings.ToUpper(s))
}

// RenderSeparator renders the light separator line in muted color
func RenderSeparator() string {
	return render(MutedStyle, SeparatorLight)
}

func RenderPassIcon() string { return render(PassStyle, IconPass) }
func RenderWarnIcon() string { return render(WarnStyle, IconWarn) }
func RenderFailIcon() string { return render(FailStyle, IconFail) }
func RenderSkipIcon() string { return render(MutedStyle, IconSkip) }

// RenderMode colors a capture mode: full captures in accent, deltas in pass.
func RenderMode(m types.Mode) string {
	switch m {
	case types.ModeFull:
		return RenderAccent(string(m))
	case types.ModeDelta:
		return RenderPass(string(m))
	}
	return RenderMuted(string(m))
}

// RenderCategory colors a change category by how much attention it needs.
func RenderCategory(c types.ChangeCategory) string {
	switch c {
	case types.CategoryReopened:
		return RenderFail(string(c))
	case types.CategoryNewlyClosed, types.CategoryNewClosed:
		return RenderPass(string(c))
	case types.CategoryNewOpened:
		return RenderWarn(string(c))
	}
	return RenderMuted(string(c))
}
