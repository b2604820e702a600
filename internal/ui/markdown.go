package ui

import (
	"github.com/charmbracelet/glamour"
)

// maxReadableWidth caps word wrap on very wide terminals.
const maxReadableWidth = 100

// RenderMarkdown renders a capture README for the terminal. Without color
// support the markdown is returned unchanged, as it is when rendering fails.
func RenderMarkdown(markdown string) string {
	if !ShouldUseColor() {
		return markdown
	}
	return renderMarkdownWidth(markdown, min(TerminalWidth(80), maxReadableWidth))
}

func renderMarkdownWidth(markdown string, width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}

	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}
