package correct

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/ha-stats-fixer/internal/app"
	"github.com/j-veylop/ha-stats-fixer/internal/config"
	"github.com/j-veylop/ha-stats-fixer/internal/models"
)

func newTestModel() (*Model, *app.State) {
	state := app.NewState()
	cfg := &config.Config{
		DatabasePath:     "/config/home-assistant_v2.db",
		Timezone:         "Europe/Berlin",
		Columns:          models.ColumnsBoth,
		IncludeShortTerm: true,
	}
	m := New(state, cfg)
	m.SetSize(100, 40)
	return m, state
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNew_PrefillsFromConfig(t *testing.T) {
	m, _ := newTestModel()

	req := m.Request()
	if req.DatabasePath != "/config/home-assistant_v2.db" {
		t.Errorf("DatabasePath = %q", req.DatabasePath)
	}
	if req.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q", req.Timezone)
	}
	if req.Columns != models.ColumnsBoth {
		t.Errorf("Columns = %v, want both", req.Columns)
	}
	if !req.IncludeShortTerm {
		t.Error("IncludeShortTerm should be prefilled")
	}
	if !m.CapturesInput() {
		t.Error("form should capture input initially")
	}
}

func TestNew_NilConfig(t *testing.T) {
	m := New(app.NewState(), nil)
	req := m.Request()
	if req.DatabasePath != "" || req.Columns != models.ColumnsSum || req.IncludeShortTerm {
		t.Errorf("unexpected defaults: %+v", req)
	}
}

func TestModel_Init(t *testing.T) {
	m, _ := newTestModel()
	if m.Init() == nil {
		t.Error("Init should start the cursor blink")
	}
}

func TestModel_TypingFillsFocusedField(t *testing.T) {
	m, _ := newTestModel()

	// Database -> Entity
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(runes("sensor.pv_meter"))

	if got := m.Request().EntityID; got != "sensor.pv_meter" {
		t.Errorf("EntityID = %q, want sensor.pv_meter", got)
	}
}

func TestModel_SetValueTrimsOnRequest(t *testing.T) {
	m, _ := newTestModel()
	m.SetValue("Start", "  2025-09-01 00:00 ")
	m.SetValue("Unknown", "ignored")

	if got := m.Request().Start; got != "2025-09-01 00:00" {
		t.Errorf("Start = %q", got)
	}
}

func TestModel_ColumnsAndShortTerm(t *testing.T) {
	m, _ := newTestModel()

	for m.focus != fieldColumns {
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if m.columns != models.ColumnsBoth.Next() {
		t.Errorf("space should cycle columns, got %v", m.columns)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.columns != models.ColumnsBoth {
		t.Errorf("left should cycle back, got %v", m.columns)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.focus != fieldShortTerm {
		t.Fatalf("focus = %d, want short-term", m.focus)
	}
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if m.shortTerm {
		t.Error("space should toggle short-term off")
	}

	// Wraps to the first field.
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.focus != fieldDatabase {
		t.Errorf("focus = %d, want database after wrap", m.focus)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.focus != fieldShortTerm {
		t.Errorf("focus = %d, want short-term after reverse wrap", m.focus)
	}
}

func TestModel_ActionKeys(t *testing.T) {
	m, _ := newTestModel()
	m.SetValue("Entity ID", "sensor.pv_meter")
	m.SetValue("Offset", "-50")

	tests := []struct {
		key    tea.KeyType
		op     app.Operation
		offset string
	}{
		{tea.KeyCtrlP, app.OpPreview, ""},
		{tea.KeyCtrlD, app.OpDiagnose, ""},
		{tea.KeyCtrlA, app.OpApply, "-50"},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			_, cmd := m.Update(tea.KeyMsg{Type: tt.key})
			if cmd == nil {
				t.Fatal("expected a command")
			}
			msg, ok := cmd().(app.RunOperationMsg)
			if !ok {
				t.Fatalf("expected RunOperationMsg, got %T", cmd())
			}
			if msg.Op != tt.op {
				t.Errorf("Op = %v, want %v", msg.Op, tt.op)
			}
			if msg.Offset != tt.offset {
				t.Errorf("Offset = %q, want %q", msg.Offset, tt.offset)
			}
			if msg.Request.EntityID != "sensor.pv_meter" {
				t.Errorf("EntityID = %q", msg.Request.EntityID)
			}
		})
	}
}

func TestModel_ClearKey(t *testing.T) {
	m, _ := newTestModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(app.ClearTranscriptMsg); !ok {
		t.Error("ctrl+l should clear the transcript")
	}
}

func TestModel_ReleaseAndRefocus(t *testing.T) {
	m, _ := newTestModel()

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.CapturesInput() {
		t.Fatal("esc should release the form")
	}

	// Typing while released must not edit a field.
	m.Update(runes("x"))
	if got := m.Request().DatabasePath; got != "/config/home-assistant_v2.db" {
		t.Errorf("DatabasePath changed while released: %q", got)
	}

	m.Update(runes("i"))
	if !m.CapturesInput() {
		t.Error("i should refocus the form")
	}
}

func TestModel_TranscriptSync(t *testing.T) {
	m, state := newTestModel()

	view := m.View()
	if !strings.Contains(view, "Run a preview") {
		t.Error("empty transcript should show a hint")
	}

	state.AppendTranscript(app.OpPreview, time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
		[]string{"Found 30 row(s) in `statistics`."})
	view = m.View()
	if !strings.Contains(view, "Found 30 row(s)") {
		t.Error("view should show the transcript")
	}
	if !strings.Contains(view, "preview 12:00:00") {
		t.Error("view should show the operation header")
	}

	state.ClearTranscript()
	view = m.View()
	if !strings.Contains(view, "Run a preview") {
		t.Error("cleared transcript should show the hint again")
	}
}

func TestModel_ViewShowsFields(t *testing.T) {
	m, _ := newTestModel()
	view := m.View()

	for _, label := range fieldLabels {
		if !strings.Contains(view, label) {
			t.Errorf("view missing field %q", label)
		}
	}
	if !strings.Contains(view, "[both]") {
		t.Error("view should mark the selected columns")
	}
}

func TestModel_Help(t *testing.T) {
	m, _ := newTestModel()
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp should not be empty")
	}
	if len(m.FullHelp()) != 3 {
		t.Errorf("FullHelp groups = %d, want 3", len(m.FullHelp()))
	}
}
