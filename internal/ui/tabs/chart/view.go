package chart

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/ha-stats-fixer/internal/db"
	"github.com/j-veylop/ha-stats-fixer/internal/services/fixer"
	"github.com/j-veylop/ha-stats-fixer/internal/ui/components"
	"github.com/j-veylop/ha-stats-fixer/internal/ui/styles"
)

const chartHeight = 12

// View renders the chart tab.
func (m *Model) View() string {
	if m.loading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	series := m.state.GetSeries()
	if series == nil || len(series.Rows) == 0 {
		return m.renderEmpty(series)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(series),
		m.renderChart(series),
		m.renderStats(series),
	)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderEmpty(series *fixer.SeriesResult) string {
	rows := []string{styles.TitleStyle.Render("Chart"), ""}
	if series != nil && series.Window != nil {
		rows = append(rows, styles.HelpStyle.Render("No rows in "+series.Window.String()+"."))
	} else {
		rows = append(rows,
			styles.HelpStyle.Render("No rows loaded yet."),
			styles.HelpStyle.Render("Run a preview on the Correct tab to chart its window."),
		)
	}
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderHeader(series *fixer.SeriesResult) string {
	title := styles.TitleStyle.Render(fmt.Sprintf("Chart: metadata_id %d", series.MetadataID))

	modeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)
	indicator := modeStyle.Render("[s] " + m.mode.String())

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", indicator)

	var subtitle string
	if series.Window != nil {
		subtitle = series.Window.String()
	}
	if series.Truncated {
		subtitle += fmt.Sprintf("  (first %d rows)", db.SeriesRowLimit)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, styles.HelpStyle.Render(subtitle), "")
}

func (m *Model) renderChart(series *fixer.SeriesResult) string {
	cardWidth := max(m.width-6, 40)
	chartWidth := max(cardWidth-16, 30)

	caption := fmt.Sprintf("%d hourly row(s) from statistics", len(series.Rows))

	var chart string
	var legend []components.LegendItem
	switch m.mode {
	case modeState:
		chart = components.RenderLineChart(series.States(), chartWidth, chartHeight, caption)
		legend = []components.LegendItem{{Label: "state", Color: styles.StateColor}}
	case modeSum:
		chart = components.RenderLineChart(series.Sums(), chartWidth, chartHeight, caption)
		legend = []components.LegendItem{{Label: "sum", Color: styles.StateColor}}
	default:
		chart = components.RenderDualLineChart(series.States(), series.Sums(), chartWidth, chartHeight, caption)
		legend = []components.LegendItem{
			{Label: "state", Color: styles.StateColor},
			{Label: "sum", Color: styles.SumColor},
		}
	}

	rows := []string{styles.CardTitleStyle.Render("Values in window")}
	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}
	rows = append(rows, "", "  "+components.RenderLegend(legend))

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderStats(series *fixer.SeriesResult) string {
	cardWidth := max(m.width-6, 40)
	st := summarize(series.Rows)

	loc := time.UTC
	if series.Window != nil && series.Window.Location != nil {
		loc = series.Window.Location
	}

	rows := []string{styles.CardTitleStyle.Render("Sum")}
	if st.Values == 0 {
		rows = append(rows, styles.HelpStyle.Render("Every sum in the window is NULL."))
		return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	rows = append(rows,
		statRow("Rows", fmt.Sprintf("%d (%d with a sum)", st.Rows, st.Values)),
		statRow("First", formatNumber(st.FirstSum)+"  "+styles.HelpStyle.Render(localTime(st.FirstTime, loc))),
		statRow("Last", formatNumber(st.LastSum)+"  "+styles.HelpStyle.Render(localTime(st.LastTime, loc))),
		statRow("Delta", formatSigned(st.Delta())),
		statRow("Range", formatNumber(st.MinSum)+" … "+formatNumber(st.MaxSum)),
		statRow("Trend", components.RenderSparkline(series.Sums(), max(cardWidth-24, 10))),
	)
	if st.HasStep {
		step := formatSigned(st.LargestStep)
		if st.LargestStep < 0 {
			step = styles.WarningTextStyle.Render(step)
		}
		rows = append(rows, statRow("Largest step", step+"  "+styles.HelpStyle.Render("at "+localTime(st.StepAt, loc))))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func statRow(label, value string) string {
	return styles.FieldLabelStyle.Render(label) + " " + value
}

func localTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "?"
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

func formatNumber(v float64) string {
	return humanize.CommafWithDigits(v, 3)
}

func formatSigned(v float64) string {
	if v >= 0 {
		return "+" + formatNumber(v)
	}
	return formatNumber(v)
}
