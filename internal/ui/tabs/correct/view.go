package correct

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/ha-stats-fixer/internal/models"
	"github.com/j-veylop/ha-stats-fixer/internal/ui/styles"
)

var columnChoices = []models.Columns{models.ColumnsSum, models.ColumnsState, models.ColumnsBoth}

// View renders the correct tab.
func (m *Model) View() string {
	m.syncTranscript()

	form := m.renderForm()
	transcript := m.renderTranscript()

	return lipgloss.JoinVertical(lipgloss.Left, form, transcript)
}

// renderForm renders the request fields and the action hints.
func (m *Model) renderForm() string {
	rows := make([]string, 0, int(fieldCount)+2)

	for f := field(0); f < fieldCount; f++ {
		label := styles.FieldLabelStyle.Render(fieldLabels[f])
		if m.editing && f == m.focus {
			label = styles.FocusedFieldLabelStyle.Render(fieldLabels[f])
		}

		var value string
		switch f {
		case fieldColumns:
			value = m.renderColumns()
		case fieldShortTerm:
			value = m.renderShortTerm()
		default:
			value = m.inputs[f].View()
		}
		rows = append(rows, label+" "+value)
	}

	rows = append(rows, "", m.renderActions())

	return styles.CardStyle.
		Padding(0, 1).
		Width(max(m.width-4, 40)).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderColumns() string {
	parts := make([]string, 0, len(columnChoices))
	for _, c := range columnChoices {
		if c == m.columns {
			parts = append(parts, styles.FocusedStyle.Render("["+c.String()+"]"))
		} else {
			parts = append(parts, styles.BlurredStyle.Render(" "+c.String()+" "))
		}
	}
	return strings.Join(parts, " ")
}

func (m *Model) renderShortTerm() string {
	if m.shortTerm {
		return styles.FocusedStyle.Render("[x]") + " also correct statistics_short_term"
	}
	return styles.BlurredStyle.Render("[ ]") + " statistics only"
}

func (m *Model) renderActions() string {
	style := styles.ButtonActiveStyle
	if _, busy := m.state.Busy(); busy {
		style = styles.ButtonInactiveStyle
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		style.Render("ctrl+p Preview"),
		style.Render("ctrl+d Diagnose"),
		style.Render("ctrl+a Apply"),
	)

	hint := "esc: leave form"
	if !m.editing {
		hint = "enter/i: edit form  •  ↑/↓: scroll"
	}
	return buttons + "  " + styles.HelpStyle.Render(hint)
}

// renderTranscript renders the transcript viewport.
func (m *Model) renderTranscript() string {
	if m.lineCount == 0 {
		empty := styles.HelpStyle.Render("Run a preview to see the rows in the window.")
		return styles.TranscriptStyle.
			Width(max(m.width-4, 40)).
			Render(empty)
	}
	return styles.TranscriptStyle.
		Width(max(m.width-4, 40)).
		Render(m.viewport.View())
}
