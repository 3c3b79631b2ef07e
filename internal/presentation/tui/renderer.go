// Package tui holds the terminal presentation pieces of the interactive chat.
package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders an assistant answer as markdown
// using glamour. When the renderer cannot be built (no usable terminal), the
// answer passes through verbatim.
func NewRenderer() func(string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(answer string) string { return answer + "\n" }
	}

	return func(answer string) string {
		out, err := r.Render(answer)
		if err != nil {
			return answer + "\n"
		}
		return out
	}
}
