package info

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/ha-stats-fixer/internal/db"
	"github.com/j-veylop/ha-stats-fixer/internal/ui/styles"
	"github.com/j-veylop/ha-stats-fixer/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderDatabaseCard(),
		m.renderAboutCard(),
	)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, database file and build information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 80)
}

// renderConfigCard renders the effective configuration.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))

	if m.config != nil {
		rows = append(rows,
			m.renderConfigRow("Database", orNone(m.databasePath())),
			m.renderConfigRow("Timezone", m.config.Timezone),
			m.renderConfigRow("Columns", m.config.Columns.String()),
			m.renderConfigRow("Short-term", onOff(m.config.IncludeShortTerm)),
			m.renderConfigRow("Log File", m.config.LogPath),
			m.renderConfigRow("Log Level", m.config.LogLevel),
			m.renderConfigRow("Notifications", onOff(m.config.DesktopNotifications)),
			m.renderConfigRow("Watch Database", onOff(m.config.WatchDatabase)),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderDatabaseCard renders size, age and backups of the database file.
func (m *Model) renderDatabaseCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Database File"))

	path := m.databasePath()
	if path == "" {
		rows = append(rows, styles.HelpStyle.Render("No database selected"))
		return styles.CardStyle.Width(m.cardWidth()).Render(
			lipgloss.JoinVertical(lipgloss.Left, rows...),
		)
	}

	info, err := os.Stat(path)
	switch {
	case err != nil:
		rows = append(rows, styles.ErrorTextStyle.Render("Cannot read "+path+": "+err.Error()))
	default:
		rows = append(rows,
			m.renderConfigRow("Size", humanize.Bytes(uint64(info.Size()))),
			m.renderConfigRow("Modified", humanize.Time(info.ModTime())),
		)

		wal := "none"
		if n := db.PendingWAL(path); n > 0 {
			wal = styles.WarningTextStyle.Render(humanize.Bytes(uint64(n)) + " not yet checkpointed")
		}
		rows = append(rows, m.renderConfigRow("Write-ahead log", wal))
	}

	backups, err := db.ListBackups(path)
	switch {
	case err != nil:
		rows = append(rows, m.renderConfigRow("Backups", styles.ErrorTextStyle.Render(err.Error())))
	case len(backups) == 0:
		rows = append(rows, m.renderConfigRow("Backups", "none"))
	default:
		rows = append(rows,
			m.renderConfigRow("Backups", strconv.Itoa(len(backups))),
			m.renderConfigRow("Latest Backup", filepath.Base(backups[len(backups)-1])),
		)
	}

	if changed := m.state.DatabaseChanged(); !changed.IsZero() {
		rows = append(rows, m.renderConfigRow("Outside Write", humanize.Time(changed)))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About "+version.Name))

	rows = append(rows,
		m.renderConfigRow("Version", version.GetVersion()),
		m.renderConfigRow("Build Date", version.GetDate()),
		m.renderConfigRow("Git Commit", version.GetCommit()),
		m.renderConfigRow("Go Version", runtime.Version()),
		m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func orNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
