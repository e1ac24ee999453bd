package fixer

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/ha-stats-fixer/internal/db"
	"github.com/j-veylop/ha-stats-fixer/internal/logger"
	"github.com/j-veylop/ha-stats-fixer/internal/models"
)

// Request holds the fields shared by every operation. Start and End are
// local wall-clock times in "YYYY-MM-DD HH:MM"; End may be empty.
type Request struct {
	DatabasePath     string
	EntityID         string
	Start            string
	End              string
	Timezone         string
	Columns          models.Columns
	IncludeShortTerm bool
}

func (r Request) timezone() string {
	if tz := strings.TrimSpace(r.Timezone); tz != "" {
		return tz
	}
	return DefaultTimezone
}

// ApplyRequest adds the correction offset and the backup decision to a Request.
type ApplyRequest struct {
	Request
	// Offset is a decimal number; "," is accepted as decimal separator.
	Offset string
	// ConfirmWithoutBackup is asked whether to continue after a failed
	// backup. A nil callback aborts.
	ConfirmWithoutBackup func(error) bool
}

// Report is what every operation returns, successful or not.
type Report struct {
	Transcript []string
	// Window is nil when the timestamps could not be resolved.
	Window     *models.Window
	MetadataID int64
	Candidates []models.MetadataCandidate
}

// Text joins the transcript lines.
func (r *Report) Text() string {
	return strings.Join(r.Transcript, "\n")
}

func (r *Report) logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.Transcript = append(r.Transcript, line)
	logger.Debug("transcript", "line", line)
}

// logWindow writes the local and UTC boundaries as compared by variant.
func (r *Report) logWindow(w models.Window, variant db.TimestampVariant) {
	r.logf("Local START: %s %s", w.Start.Input, w.Timezone)
	if w.End != nil {
		r.logf("Local END (exclusive): %s %s", w.End.Input, w.Timezone)
	}

	if variant == db.EpochTimestamp {
		line := fmt.Sprintf("UTC START epoch: %d", w.Start.Epoch)
		if w.End != nil {
			line += fmt.Sprintf(", END epoch: %d", w.End.Epoch)
		}
		r.logf("%s", line)
		return
	}

	line := "UTC START: " + w.Start.Text
	if w.End != nil {
		line += ", END: " + w.End.Text
	}
	r.logf("%s", line)
}

// logRows writes a header followed by one "time | col..." line per row.
func (r *Report) logRows(header string, rows []models.StatRow, cols []string) {
	r.logf("%s (%s):", header, strings.Join(append([]string{"time"}, cols...), " | "))
	for _, row := range rows {
		r.logf("  %s", formatRow(row, cols))
	}
}

func formatRow(row models.StatRow, cols []string) string {
	parts := []string{row.TimeLabel()}
	for _, col := range cols {
		parts = append(parts, models.FormatValue(row.Value(col)))
	}
	return strings.Join(parts, " | ")
}

// PreviewResult is the structured outcome of Preview.
type PreviewResult struct {
	Report
	Variant   db.TimestampVariant
	Counts    models.TableCounts
	Rows      []models.StatRow
	ShortTerm *ShortTermPreview
}

// ShortTermPreview holds the short-term counts when they were requested.
type ShortTermPreview struct {
	Variant db.TimestampVariant
	Counts  models.TableCounts
}

// DiagnoseResult is the structured outcome of Diagnose.
type DiagnoseResult struct {
	Report
	Variant db.TimestampVariant
	Summary models.TableSummary
	Latest  []models.StatRow
	Before  []models.StatRow
	InRange []models.StatRow
	// After is empty for unbounded windows.
	After []models.StatRow
}

// ApplyResult is the structured outcome of Apply.
type ApplyResult struct {
	Report
	Offset decimal.Decimal
	// BackupPath is empty when the caller chose to continue without a backup.
	BackupPath string
	BackupSize uint64
	Updated    []models.ColumnCount
	// ShortTermUpdated sums the rows touched in every selected short-term column.
	ShortTermUpdated int64
	Committed        bool
}

// UpdatedRows returns the primary table count for column, or 0.
func (r *ApplyResult) UpdatedRows(column string) int64 {
	for _, c := range r.Updated {
		if c.Column == column {
			return c.Rows
		}
	}
	return 0
}

func formatBytes(n uint64) string {
	return humanize.Bytes(n)
}
