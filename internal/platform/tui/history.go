package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/retrobridge/internal/storage"
)

// History layout constants
const (
	maxSessions = 100 // Max sessions to load
	minHeight   = 10
)

// HistoryKeyMap defines the key bindings for the history browser.
type HistoryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Delete key.Binding
	Quit   key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k HistoryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Delete, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k HistoryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Toggle}, {k.Delete, k.Quit}}
}

// DefaultHistoryKeyMap returns default key bindings.
func DefaultHistoryKeyMap() HistoryKeyMap {
	return HistoryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("tab", "enter"),
			key.WithHelp("tab", "sessions/slots"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "delete slot"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// HistoryModel browses recorded sessions and the state slots of the game
// each one ran.
type HistoryModel struct {
	store     *storage.Store
	sessions  []storage.SessionRecord
	slots     []storage.StateSlot
	selected  storage.SessionRecord // session whose slots are shown
	showSlots bool
	table     table.Model
	help      help.Model
	keys      HistoryKeyMap
	width     int
	height    int
	err       error
}

// NewHistoryModel creates a new history model.
func NewHistoryModel(store *storage.Store, width, height int) HistoryModel {
	m := HistoryModel{
		store:  store,
		keys:   DefaultHistoryKeyMap(),
		help:   help.New(),
		width:  width,
		height: max(height, minHeight),
	}
	m.sessions, m.err = store.RecentSessions(maxSessions)
	m.table = m.createTable()
	m.updateTableRows()
	return m
}

// createTable creates a table with the columns of the current view.
func (m *HistoryModel) createTable() table.Model {
	var columns []table.Column
	if m.showSlots {
		columns = []table.Column{
			{Title: "Slot", Width: 6},
			{Title: "Frame", Width: 10},
			{Title: "Size", Width: 10},
			{Title: "Saved", Width: 14},
		}
	} else {
		columns = []table.Column{
			{Title: "Started", Width: 14},
			{Title: "Game", Width: 24},
			{Title: "Core", Width: 10},
			{Title: "Frames", Width: 10},
			{Title: "End", Width: 10},
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(m.height-6), // Leave room for title and help
	)

	// Table styles
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// updateTableRows fills the table from the loaded records.
func (m *HistoryModel) updateTableRows() {
	var rows []table.Row
	if m.showSlots {
		for _, st := range m.slots {
			rows = append(rows, table.Row{
				fmt.Sprintf("%d", st.Slot),
				fmt.Sprintf("%d", st.Frame),
				fmt.Sprintf("%d B", st.Size),
				st.CreatedAt.Format("Jan 02 15:04"),
			})
		}
	} else {
		for _, r := range m.sessions {
			end := r.EndReason
			if r.EndedAt.IsZero() {
				end = "running"
			}
			rows = append(rows, table.Row{
				r.StartedAt.Format("Jan 02 15:04"),
				r.Game,
				r.Core,
				fmt.Sprintf("%d", r.Frames),
				end,
			})
		}
	}
	m.table.SetRows(rows)
}

// loadSlots loads the slots of the game the highlighted session ran.
func (m *HistoryModel) loadSlots() {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.sessions) {
		return
	}
	m.selected = m.sessions[i]
	m.slots, m.err = m.store.ListStates(m.selected.Core, m.selected.Game)
}

// Init initializes the history model.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history browser.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Toggle):
			if !m.showSlots {
				m.loadSlots()
			}
			m.showSlots = !m.showSlots
			m.table = m.createTable()
			m.updateTableRows()
			return m, nil

		case key.Matches(msg, m.keys.Delete):
			if m.showSlots {
				if i := m.table.Cursor(); i >= 0 && i < len(m.slots) {
					st := m.slots[i]
					if m.err = m.store.DeleteState(st.Core, st.Game, st.Slot); m.err == nil {
						m.slots, m.err = m.store.ListStates(m.selected.Core, m.selected.Game)
						m.updateTableRows()
					}
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = max(msg.Height, minHeight)
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	// Pass other messages to table
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the history browser.
func (m HistoryModel) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)

	title := "SESSIONS"
	if m.showSlots {
		title = fmt.Sprintf("SAVE STATES - %s (%s)", m.selected.Game, m.selected.Core)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	empty := len(m.sessions) == 0
	if m.showSlots {
		empty = len(m.slots) == 0
	}
	if empty {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(1, 4)
		b.WriteString(tableStyle.Render(emptyStyle.Render("Nothing recorded yet.")))
	} else {
		b.WriteString(tableStyle.Render(m.table.View()))
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(m.err.Error()))
	}

	// Help bar
	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// RunHistory runs the history browser.
func RunHistory(store *storage.Store, width, height int) error {
	p := tea.NewProgram(
		NewHistoryModel(store, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
