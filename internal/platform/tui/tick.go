// Package tui hosts a bridged session in a terminal, locally or over SSH.
// Bubble Tea plays the host: its lifecycle, window and input messages are
// forwarded to the session, and the core's character frames are drawn.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to trigger a redraw.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends tick messages at the specified rate.
func tickCmd(tickRate int) tea.Cmd {
	interval := time.Second / time.Duration(tickRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// releaseMsg ends a synthesized key hold. gen must match the latest press
// of the key, so repeats extend the hold.
type releaseMsg struct {
	keyCode int
	gen     int
}

// releaseCmd schedules the key-up a terminal never sends.
func releaseCmd(keyCode, gen int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return releaseMsg{keyCode: keyCode, gen: gen}
	})
}
