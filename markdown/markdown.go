// Package markdown renders agent narrative text to ANSI-styled terminal
// output using goldmark for parsing and lipgloss for styling. Insight
// narratives are prose with occasional emphasis, lists, and headings, so
// the renderer covers that subset and passes everything else through.
package markdown

import "github.com/ElevenAndOne/mia"

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width.
func Render(source string, width int, theme mia.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}
