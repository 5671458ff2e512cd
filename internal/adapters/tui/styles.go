// Package tui implements the interactive terminal views: a live watch on
// the active timer and a fuzzy task picker. Both are thin Bubbletea
// programs over the daemon's RPC client; all state lives in the daemon.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

// palette is the fixed color scheme of the terminal views.
type palette struct {
	title  lipgloss.Style
	active lipgloss.Style
	dim    lipgloss.Style
	warn   lipgloss.Style
	accent lipgloss.Color
	paused lipgloss.Color
}

func defaultPalette() palette {
	accent := lipgloss.Color("#fab387")
	return palette{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cba6f7")),
		active: lipgloss.NewStyle().Bold(true).Foreground(accent),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
		accent: accent,
		paused: lipgloss.Color("#f9e2af"),
	}
}

// terminalWidth returns the current terminal width, defaulting to 80 when
// stdout is not a terminal or is implausibly narrow.
func terminalWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w < 40 {
		return 80
	}
	return w
}
