package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// minMarkdownWidth keeps wrapped descriptions readable in narrow terminals.
const minMarkdownWidth = 24

// markdownRenderer renders task descriptions and rebuilds the glamour renderer when the wrap width changes.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// newMarkdownRenderer constructs a renderer for one glamour standard style.
func newMarkdownRenderer(style string) *markdownRenderer {
	if strings.TrimSpace(style) == "" {
		style = "dark"
	}
	return &markdownRenderer{style: style}
}

// render converts markdown into styled terminal text, falling back to the raw input on failure.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	wrapWidth := max(width, minMarkdownWidth)

	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.Trim(rendered, "\n")
}
