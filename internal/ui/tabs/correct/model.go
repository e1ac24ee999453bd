// Package correct provides the correction form tab: the request fields, the
// preview/diagnose/apply actions and the accumulated transcript.
package correct

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/ha-stats-fixer/internal/app"
	"github.com/j-veylop/ha-stats-fixer/internal/config"
	"github.com/j-veylop/ha-stats-fixer/internal/models"
	"github.com/j-veylop/ha-stats-fixer/internal/services/fixer"
	"github.com/j-veylop/ha-stats-fixer/internal/ui/styles"
)

// field identifies one row of the form.
type field int

const (
	fieldDatabase field = iota
	fieldEntity
	fieldStart
	fieldEnd
	fieldTimezone
	fieldOffset
	fieldColumns
	fieldShortTerm
	fieldCount
)

// textFields is the number of fields backed by a text input.
const textFields = int(fieldColumns)

// formHeight is the number of lines the form and its chrome take.
const formHeight = 15

var fieldLabels = [...]string{
	fieldDatabase:  "Database",
	fieldEntity:    "Entity ID",
	fieldStart:     "Start",
	fieldEnd:       "End",
	fieldTimezone:  "Timezone",
	fieldOffset:    "Offset",
	fieldColumns:   "Columns",
	fieldShortTerm: "Short-term",
}

// keyMap defines the key bindings specific to the correct tab.
type keyMap struct {
	Preview  key.Binding
	Diagnose key.Binding
	Apply    key.Binding
	Clear    key.Binding
	Next     key.Binding
	Prev     key.Binding
	Toggle   key.Binding
	Left     key.Binding
	Right    key.Binding
	Release  key.Binding
	Edit     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

// defaultKeyMap returns the default key bindings for the correct tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Preview: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "preview"),
		),
		Diagnose: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "diagnose"),
		),
		Apply: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "apply offset"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear transcript"),
		),
		Next: key.NewBinding(
			key.WithKeys("down", "enter", "tab"),
			key.WithHelp("↓/enter", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("up", "shift+tab"),
			key.WithHelp("↑", "previous field"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "cycle/toggle"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
		),
		Release: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "leave form"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter", "i", "e"),
			key.WithHelp("enter/i", "edit form"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
	}
}

// Model represents the correct tab state.
type Model struct {
	state     *app.State
	inputs    []textinput.Model
	columns   models.Columns
	shortTerm bool
	focus     field
	editing   bool

	viewport  viewport.Model
	lineCount int

	width  int
	height int
	keys   keyMap
}

// New creates a new correct model with the form prefilled from cfg.
func New(state *app.State, cfg *config.Config) *Model {
	m := &Model{
		state:    state,
		inputs:   make([]textinput.Model, textFields),
		columns:  models.ColumnsSum,
		editing:  true,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}

	placeholders := [...]string{
		fieldDatabase: "/config/home-assistant_v2.db",
		fieldEntity:   "sensor.energy_meter",
		fieldStart:    "YYYY-MM-DD HH:MM",
		fieldEnd:      "YYYY-MM-DD HH:MM (optional, exclusive)",
		fieldTimezone: fixer.DefaultTimezone,
		fieldOffset:   "-50 or 12,5",
	}
	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[i]
		in.PlaceholderStyle = styles.BlurredStyle
		in.CharLimit = 512
		m.inputs[i] = in
	}

	if cfg != nil {
		m.inputs[fieldDatabase].SetValue(cfg.DatabasePath)
		m.inputs[fieldTimezone].SetValue(cfg.Timezone)
		m.columns = cfg.Columns
		m.shortTerm = cfg.IncludeShortTerm
	}

	m.inputs[fieldDatabase].Focus()
	return m
}

// Init initializes the correct tab.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// CapturesInput reports whether keys are typed into the form.
func (m *Model) CapturesInput() bool {
	return m.editing
}

// Request builds the operation request from the form.
func (m *Model) Request() fixer.Request {
	return fixer.Request{
		DatabasePath:     m.value(fieldDatabase),
		EntityID:         m.value(fieldEntity),
		Start:            m.value(fieldStart),
		End:              m.value(fieldEnd),
		Timezone:         m.value(fieldTimezone),
		Columns:          m.columns,
		IncludeShortTerm: m.shortTerm,
	}
}

func (m *Model) value(f field) string {
	return strings.TrimSpace(m.inputs[f].Value())
}

// SetValue sets a text field by its label. It is a no-op for unknown labels.
func (m *Model) SetValue(label, value string) {
	for f := field(0); f < field(textFields); f++ {
		if fieldLabels[f] == label {
			m.inputs[f].SetValue(value)
			return
		}
	}
}

// Update handles messages for the correct tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	m.syncTranscript()

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, m.updateFocusedInput(msg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.Preview):
		return m, app.RunOperation(app.OpPreview, m.Request(), "")
	case key.Matches(keyMsg, m.keys.Diagnose):
		return m, app.RunOperation(app.OpDiagnose, m.Request(), "")
	case key.Matches(keyMsg, m.keys.Apply):
		return m, app.RunOperation(app.OpApply, m.Request(), m.value(fieldOffset))
	case key.Matches(keyMsg, m.keys.Clear):
		return m, func() tea.Msg { return app.ClearTranscriptMsg{} }
	case key.Matches(keyMsg, m.keys.PageUp):
		m.viewport.PageUp()
		return m, nil
	case key.Matches(keyMsg, m.keys.PageDown):
		m.viewport.PageDown()
		return m, nil
	}

	if !m.editing {
		return m, m.handleBrowseKey(keyMsg)
	}
	return m, m.handleEditKey(keyMsg)
}

// handleBrowseKey handles keys while the form is released.
func (m *Model) handleBrowseKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		m.viewport.ScrollUp(1)
		return nil
	case "down", "j":
		m.viewport.ScrollDown(1)
		return nil
	}

	if key.Matches(msg, m.keys.Edit) {
		m.editing = true
		return m.setFocus(m.focus)
	}
	return nil
}

// handleEditKey handles keys while the form has focus.
func (m *Model) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Release):
		m.editing = false
		m.blurAll()
		return nil
	case key.Matches(msg, m.keys.Next):
		return m.setFocus((m.focus + 1) % fieldCount)
	case key.Matches(msg, m.keys.Prev):
		return m.setFocus((m.focus - 1 + fieldCount) % fieldCount)
	}

	switch m.focus {
	case fieldColumns:
		switch {
		case key.Matches(msg, m.keys.Toggle), key.Matches(msg, m.keys.Right):
			m.columns = m.columns.Next()
		case key.Matches(msg, m.keys.Left):
			m.columns = m.columns.Prev()
		}
		return nil
	case fieldShortTerm:
		if key.Matches(msg, m.keys.Toggle, m.keys.Left, m.keys.Right) {
			m.shortTerm = !m.shortTerm
		}
		return nil
	}

	return m.updateFocusedInput(msg)
}

func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	if !m.editing || int(m.focus) >= textFields {
		return nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m *Model) setFocus(f field) tea.Cmd {
	m.blurAll()
	m.focus = f
	if int(f) < textFields {
		return m.inputs[f].Focus()
	}
	return nil
}

func (m *Model) blurAll() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

// syncTranscript refreshes the viewport when the transcript grew or shrank
// and keeps the newest lines in view.
func (m *Model) syncTranscript() {
	lines := m.state.Transcript()
	if len(lines) == m.lineCount {
		return
	}
	m.lineCount = len(lines)

	styled := make([]string, len(lines))
	for i, line := range lines {
		styled[i] = styles.TranscriptLineStyle(line).Render(line)
	}
	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// SetSize sets the dimensions of the correct tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	inputWidth := max(width-24, 20)
	for i := range m.inputs {
		m.inputs[i].Width = inputWidth
	}

	m.viewport.Width = max(width-8, 20)
	m.viewport.Height = max(height-formHeight, 3)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Preview,
		m.keys.Diagnose,
		m.keys.Apply,
		m.keys.Next,
		m.keys.Toggle,
		m.keys.Release,
		m.keys.Edit,
		m.keys.Clear,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Preview, m.keys.Diagnose, m.keys.Apply},
		{m.keys.Next, m.keys.Prev, m.keys.Toggle},
		{m.keys.Release, m.keys.Edit, m.keys.PageUp, m.keys.PageDown, m.keys.Clear},
	}
}
