package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/retrobridge/internal/input"
)

// KeyMapper translates Bubble Tea key messages to host controller keys.
// This centralizes key bindings and makes them testable.
type KeyMapper struct{}

// NewKeyMapper creates a new key mapper with default bindings.
func NewKeyMapper() *KeyMapper {
	return &KeyMapper{}
}

// MapKey translates a key message to a host keycode.
// Returns false for keys that are not controller keys.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (int, bool) {
	switch msg.String() {
	case "w", "up":
		return input.KeyDPadUp, true
	case "s", "down":
		return input.KeyDPadDown, true
	case "a", "left":
		return input.KeyDPadLeft, true
	case "d", "right":
		return input.KeyDPadRight, true
	case "j", "x":
		return input.KeyButtonA, true
	case "k", "z":
		return input.KeyButtonB, true
	case "u":
		return input.KeyButtonX, true
	case "i":
		return input.KeyButtonY, true
	case "[":
		return input.KeyButtonL1, true
	case "]":
		return input.KeyButtonR1, true
	case "enter":
		return input.KeyButtonStart, true
	case "tab":
		return input.KeyButtonSelect, true
	}
	return 0, false
}

// HostKeyMap defines the bindings that control the bridge rather than the
// game.
type HostKeyMap struct {
	Quit      key.Binding
	Pause     key.Binding
	SaveState key.Binding
	NextSlot  key.Binding
	LoadState key.Binding
	Reset     key.Binding
	NextDisk  key.Binding
	Help      key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k HostKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.SaveState, k.LoadState, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k HostKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Reset, k.NextDisk},
		{k.SaveState, k.NextSlot, k.LoadState},
		{k.Help, k.Quit},
	}
}

// DefaultHostKeyMap returns default key bindings.
func DefaultHostKeyMap() HostKeyMap {
	return HostKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause"),
		),
		SaveState: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "save state"),
		),
		NextSlot: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("F3", "next slot"),
		),
		LoadState: key.NewBinding(
			key.WithKeys("f4"),
			key.WithHelp("F4", "load state"),
		),
		Reset: key.NewBinding(
			key.WithKeys("f5"),
			key.WithHelp("F5", "reset"),
		),
		NextDisk: key.NewBinding(
			key.WithKeys("f6"),
			key.WithHelp("F6", "next disk"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
