package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the chat greeting banner with the running version.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	title := termenv.String("Empassist").Foreground(p.Color("#a78bfa")).Bold()
	sub := termenv.String("employee self-service assistant").Foreground(p.Color("#818cf8"))
	ver := termenv.String("v" + strings.TrimSpace(version)).Foreground(p.Color("#6b7280"))

	fmt.Println()
	fmt.Printf("  %s  %s  %s\n", title, sub, ver)
	fmt.Println("  Type 'quit', 'exit' or 'q' to leave.")
	fmt.Println()
}

// Prompt returns the styled input prompt.
func Prompt() string {
	p := termenv.ColorProfile()
	return termenv.String("you> ").Foreground(p.Color("#818cf8")).Bold().String()
}
