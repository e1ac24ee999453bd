package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("Loading")
	if s.label != "Loading" {
		t.Error("Spinner label mismatch")
	}
}

func TestSpinner_Methods(t *testing.T) {
	s := NewSpinner("Init")

	s.SetLabel("Loading")
	if s.Label() != "Loading" {
		t.Errorf("Label = %s, want Loading", s.Label())
	}

	if s.View() == "" {
		t.Error("View returned empty")
	}
	if !strings.Contains(s.ViewWithLabel(), "Loading") {
		t.Error("ViewWithLabel should contain the label")
	}

	if s.Init() == nil {
		t.Error("Init should return command")
	}
	if s.Tick() == nil {
		t.Error("Tick should return command")
	}

	if _, cmd := s.Update(spinner.TickMsg{ID: s.Spinner().ID()}); cmd == nil {
		t.Error("Update should schedule the next tick")
	}
	if _, cmd := s.Update(spinner.TickMsg{ID: s.Spinner().ID() + 1000}); cmd != nil {
		t.Error("Update should ignore ticks of other spinners")
	}

	if s.Spinner().Spinner.Frames == nil {
		t.Error("Spinner accessor failed")
	}
}

func TestRenderSpinnerCentered(t *testing.T) {
	s := NewSpinner("Loading...")
	view := RenderSpinnerCentered(s, 20, 5)
	if !strings.Contains(view, "Loading...") {
		t.Error("RenderSpinnerCentered should contain the label")
	}
}

func TestRenderLineChart(t *testing.T) {
	if s := RenderLineChart([]float64{1, 2, 3, 4}, 20, 5, "Test"); !strings.Contains(s, "Test") {
		t.Error("RenderLineChart should contain the caption")
	}
	if s := RenderLineChart(nil, 20, 5, "Test"); !strings.Contains(s, "No data") {
		t.Error("RenderLineChart should report missing data")
	}
}

func TestRenderDualLineChart(t *testing.T) {
	tests := []struct {
		name  string
		state []float64
		sum   []float64
		want  string
	}{
		{"both", []float64{1, 2, 3}, []float64{3, 2}, "Title"},
		{"state only", []float64{1, 2, 3}, nil, "Title"},
		{"sum only", nil, []float64{1, 2}, "Title"},
		{"none", nil, nil, "No data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := RenderDualLineChart(tt.state, tt.sum, 20, 5, "Title")
			if !strings.Contains(s, tt.want) {
				t.Errorf("RenderDualLineChart() = %q, want it to contain %q", s, tt.want)
			}
		})
	}
}

func TestPadTo(t *testing.T) {
	got := padTo([]float64{1, 2}, 4)
	want := []float64{1, 2, 2, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("padTo() = %v, want %v", got, want)
		}
	}
}

func TestRenderSparkline(t *testing.T) {
	s := RenderSparkline([]float64{100, 150, 200}, 10)
	if s != "▁▄█" {
		t.Errorf("RenderSparkline() = %q, want ▁▄█", s)
	}

	if RenderSparkline([]float64{5, 5}, 10) != "▁▁" {
		t.Error("flat series should render the lowest bar")
	}
	if RenderSparkline(nil, 10) != "" {
		t.Error("empty series should render nothing")
	}
}

func TestRenderLegend(t *testing.T) {
	items := []LegendItem{
		{Label: "state", Color: lipgloss.Color("208")},
		{Label: "sum", Color: lipgloss.Color("75")},
	}
	s := RenderLegend(items)
	if !strings.Contains(s, "state") || !strings.Contains(s, "sum") {
		t.Errorf("RenderLegend() = %q", s)
	}
}
