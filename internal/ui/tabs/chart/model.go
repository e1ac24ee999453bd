// Package chart provides the chart tab that plots the rows of the last
// previewed window.
package chart

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/ha-stats-fixer/internal/app"
	"github.com/j-veylop/ha-stats-fixer/internal/ui/components"
)

// seriesMode selects which columns are plotted.
type seriesMode int

const (
	modeBoth seriesMode = iota
	modeState
	modeSum
)

// String returns the label shown in the mode selector.
func (s seriesMode) String() string {
	switch s {
	case modeState:
		return "state"
	case modeSum:
		return "sum"
	default:
		return "state + sum"
	}
}

// next cycles both → state → sum → both.
func (s seriesMode) next() seriesMode {
	return (s + 1) % 3
}

// keyMap defines the key bindings specific to the chart tab.
type keyMap struct {
	ToggleSeries key.Binding
	Up           key.Binding
	Down         key.Binding
}

// defaultKeyMap returns the default key bindings for the chart tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleSeries: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "toggle series"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the chart tab state.
type Model struct {
	state    *app.State
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
	spinner  components.LoadingSpinner
	mode     seriesMode
}

// New creates a new chart model.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		spinner:  components.NewSpinner("Loading rows..."),
	}
}

// Init initializes the chart tab.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick()
}

// Update handles messages for the chart tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tick)
		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.ToggleSeries):
		m.mode = m.mode.next()
	case key.Matches(keyMsg, m.keys.Up):
		m.viewport.ScrollUp(1)
	case key.Matches(keyMsg, m.keys.Down):
		m.viewport.ScrollDown(1)
	}
	return m, nil
}

// loading reports whether the rows for the chart are being loaded.
func (m *Model) loading() bool {
	op, busy := m.state.Busy()
	return busy && op == app.OpSeries
}

// SetSize sets the available size for the chart tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleSeries,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleSeries},
		{m.keys.Up, m.keys.Down},
	}
}
