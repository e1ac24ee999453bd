package fixer

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/ha-stats-fixer/internal/db"
	"github.com/j-veylop/ha-stats-fixer/internal/models"
)

func TestPreview_MonthWindow(t *testing.T) {
	rec := newRecorder(t, epochCol, epochCol)
	rec.meta(1, "sensor.pv_meter_monthly")
	rec.month("statistics", epochCol, 1)

	req := september(rec.path)
	req.Columns = models.ColumnsBoth
	res, err := New().Preview(req)
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.MetadataID)
	assert.Equal(t, db.EpochTimestamp, res.Variant)
	assert.Equal(t, models.TableCounts{Table: "statistics", Total: 32, InRange: 30}, res.Counts)
	require.Len(t, res.Rows, db.PreviewRowLimit)
	assert.True(t, res.Rows[0].Start.Equal(berlin(t, "2025-09-01 00:00")))
	assert.Nil(t, res.ShortTerm)

	require.NotNil(t, res.Window)
	assert.Equal(t, int64(1756677600), res.Window.Start.Epoch)
	assert.Equal(t, int64(1759269600), res.Window.End.Epoch)

	text := res.Text()
	assert.Contains(t, text, "Entity metadata_id: 1")
	assert.Contains(t, text, "Local END (exclusive): 2025-10-01 00:00 Europe/Berlin")
	assert.Contains(t, text, "UTC START epoch: 1756677600, END epoch: 1759269600")
	assert.Contains(t, text, "Using start_ts for comparisons.")
	assert.Contains(t, text, "Rows in `statistics` within range: 30")
	assert.Contains(t, text, "First rows inside range (time | state | sum):")
	assert.Contains(t, text, "  2025-08-31 22:00:00+00:00 | 110 | 110")
}

func TestPreview_TextVariantAndShortTerm(t *testing.T) {
	rec := newRecorder(t, textCol, epochCol)
	rec.meta(1, "sensor.pv_meter_monthly")
	rec.month("statistics", textCol, 1)
	rec.row("statistics_short_term", epochCol, 1, berlin(t, "2025-09-30 23:55"), 1)
	rec.row("statistics_short_term", epochCol, 1, berlin(t, "2025-10-01 00:00"), 1)

	req := september(rec.path)
	req.IncludeShortTerm = true
	res, err := New().Preview(req)
	require.NoError(t, err)

	assert.Equal(t, db.TextTimestamp, res.Variant)
	assert.Equal(t, int64(30), res.Counts.InRange)
	require.NotNil(t, res.ShortTerm)
	assert.Equal(t, db.EpochTimestamp, res.ShortTerm.Variant)
	assert.Equal(t, models.TableCounts{Table: "statistics_short_term", Total: 2, InRange: 1}, res.ShortTerm.Counts)
	assert.Contains(t, res.Text(), "UTC START: 2025-08-31 22:00:00, END: 2025-09-30 22:00:00")
	assert.Contains(t, res.Text(), "Rows in `statistics_short_term` within range: 1")
}

func TestPreview_Unbounded(t *testing.T) {
	rec := newRecorder(t, epochCol, epochCol)
	rec.meta(1, "sensor.pv_meter_monthly")
	rec.month("statistics", epochCol, 1)

	req := september(rec.path)
	req.End = ""
	res, err := New().Preview(req)
	require.NoError(t, err)

	assert.Equal(t, int64(31), res.Counts.InRange)
	assert.NotContains(t, res.Text(), "Local END")
}

func TestPreview_EmptyRange(t *testing.T) {
	rec := newRecorder(t, epochCol, epochCol)
	rec.meta(1, "sensor.pv_meter_monthly")

	res, err := New().Preview(september(rec.path))
	require.NoError(t, err)
	assert.Zero(t, res.Counts.InRange)
	assert.Empty(t, res.Rows)
	assert.Contains(t, res.Text(), "No rows inside the selected range.")
}

func TestPreview_Deterministic(t *testing.T) {
	rec := newRecorder(t, epochCol, epochCol)
	rec.meta(1, "sensor.pv_meter_monthly")
	rec.month("statistics", epochCol, 1)

	svc := New()
	first, err := svc.Preview(september(rec.path))
	require.NoError(t, err)
	second, err := svc.Preview(september(rec.path))
	require.NoError(t, err)

	assert.Equal(t, first.Transcript, second.Transcript)
	assert.Equal(t, first.Counts, second.Counts)
}

func TestDiagnose(t *testing.T) {
	rec := newRecorder(t, epochCol, epochCol)
	rec.meta(1, "sensor.pv_meter_monthly")
	rec.month("statistics", epochCol, 1)

	res, err := New().Diagnose(september(rec.path))
	require.NoError(t, err)

	assert.Equal(t, "=== Diagnose ===", res.Transcript[0])
	assert.Equal(t, int64(32), res.Summary.RowCount)
	assert.True(t, res.Summary.Min.Start.Equal(berlin(t, "2025-08-31 00:00")))
	assert.True(t, res.Summary.Max.Start.Equal(berlin(t, "2025-10-01 00:00")))

	require.Len(t, res.Latest, db.LatestRowLimit)
	assert.True(t, res.Latest[0].Start.Equal(berlin(t, "2025-10-01 00:00")))

	require.Len(t, res.Before, 1)
	assert.True(t, res.Before[0].Start.Equal(berlin(t, "2025-08-31 00:00")))

	require.Len(t, res.InRange, db.InRangeRowLimit)
	assert.True(t, res.InRange[0].Start.Equal(berlin(t, "2025-09-01 00:00")))

	require.Len(t, res.After, 1)
	assert.True(t, res.After[0].Start.Equal(berlin(t, "2025-10-01 00:00")))

	text := res.Text()
	assert.Contains(t, text, "Range in `statistics` (start_ts): min=2025-08-30 22:00:00+00:00, max=2025-09-30 22:00:00+00:00, total_rows=32")
	assert.Contains(t, text, "Rows just BEFORE start (time | sum):")
	assert.Contains(t, text, "Rows just AFTER end (time | sum):")
}

func TestDiagnose_UnboundedSkipsAfter(t *testing.T) {
	rec := newRecorder(t, textCol, textCol)
	rec.meta(1, "sensor.pv_meter_monthly")
	rec.month("statistics", textCol, 1)

	req := september(rec.path)
	req.End = ""
	res, err := New().Diagnose(req)
	require.NoError(t, err)

	assert.Empty(t, res.After)
	assert.NotContains(t, res.Text(), "Rows just AFTER end")
	assert.Len(t, res.InRange, db.InRangeRowLimit)
}

func TestOperations_NotFound(t *testing.T) {
	rec := newRecorder(t, epochCol, epochCol)
	rec.meta(1, "sensor.pv_meter_monthly")
	rec.meta(2, "sensor.pv_meter_daily")
	rec.month("statistics", epochCol, 1)

	req := september(rec.path)
	req.EntityID = "pv_meter"
	svc := New(WithClock(fixedClock))

	preview, err := svc.Preview(req)
	assertNotFound(t, err, preview.Report)

	diagnose, err := svc.Diagnose(req)
	assertNotFound(t, err, diagnose.Report)

	apply, err := svc.Apply(ApplyRequest{Request: req, Offset: "-50"})
	assertNotFound(t, err, apply.Report)
	assert.Empty(t, apply.BackupPath)
	_, statErr := os.Stat(db.BackupPath(rec.path, fixedClock()))
	assert.True(t, os.IsNotExist(statErr), "no backup for an unknown entity")

	_, sum := rec.values("statistics", epochCol, 1, berlin(t, "2025-09-01 00:00"))
	assert.Equal(t, 110.0, sum)
}

func assertNotFound(t *testing.T, err error, r Report) {
	t.Helper()
	require.ErrorIs(t, err, models.ErrNotFound)

	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Len(t, nf.Candidates, 2)
	assert.Equal(t, nf.Candidates, r.Candidates)
	assert.Equal(t, "sensor.pv_meter_daily", r.Candidates[0].StatisticID)

	text := r.Text()
	assert.Contains(t, text, "Entity not found in statistics_meta: pv_meter")
	assert.Contains(t, text, "  metadata_id=2  statistic_id=sensor.pv_meter_daily")
	assert.Contains(t, text, "(NotFound)")
}

func TestOperations_InvalidInput(t *testing.T) {
	rec := newRecorder(t, epochCol, epochCol)
	rec.meta(1, "sensor.pv_meter_monthly")

	tests := []struct {
		name   string
		mutate func(*ApplyRequest)
	}{
		{"BadStart", func(r *ApplyRequest) { r.Start = "01.09.2025 00:00" }},
		{"MissingStart", func(r *ApplyRequest) { r.Start = " " }},
		{"BadEnd", func(r *ApplyRequest) { r.End = "2025-10-01" }},
		{"InvertedWindow", func(r *ApplyRequest) { r.End = "2025-08-01 00:00" }},
		{"UnknownTimezone", func(r *ApplyRequest) { r.Timezone = "Europe/Atlantis" }},
		{"MissingEntity", func(r *ApplyRequest) { r.EntityID = "" }},
		{"MissingDatabase", func(r *ApplyRequest) { r.DatabasePath = rec.path + ".missing" }},
		{"BadOffset", func(r *ApplyRequest) { r.Offset = "fifty" }},
	}

	svc := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ApplyRequest{Request: september(rec.path), Offset: "-50"}
			tt.mutate(&req)

			res, err := svc.Apply(req)
			require.ErrorIs(t, err, models.ErrInvalidInput)
			require.NotNil(t, res)
			require.NotEmpty(t, res.Transcript)
			assert.True(t, strings.HasPrefix(res.Transcript[len(res.Transcript)-1], "ERROR during apply (InvalidInput)"))

			if tt.name != "BadOffset" {
				_, err := svc.Preview(req.Request)
				assert.ErrorIs(t, err, models.ErrInvalidInput)
			}
		})
	}
}

func TestRequest_DefaultTimezone(t *testing.T) {
	rec := newRecorder(t, epochCol, epochCol)
	rec.meta(1, "sensor.pv_meter_monthly")

	req := september(rec.path)
	req.Timezone = ""
	res, err := New().Preview(req)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", res.Window.Timezone)
}

func TestApply_MonthWindow(t *testing.T) {
	rec := newRecorder(t, epochCol, epochCol)
	rec.meta(1, "sensor.pv_meter_monthly")
	rec.month("statistics", epochCol, 1)

	req := ApplyRequest{Request: september(rec.path), Offset: "-50"}
	req.Columns = models.ColumnsBoth

	res, err := New(WithClock(fixedClock)).Apply(req)
	require.NoError(t, err)

	assert.True(t, res.Committed)
	assert.Equal(t, []models.ColumnCount{{Column: "state", Rows: 30}, {Column: "sum", Rows: 30}}, res.Updated)
	assert.Equal(t, int64(30), res.UpdatedRows("sum"))
	assert.Equal(t, "-50", res.Offset.String())

	assert.Equal(t, db.BackupPath(rec.path, fixedClock()), res.BackupPath)
	info, err := os.Stat(res.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, uint64(info.Size()), res.BackupSize)

	state, sum := rec.values("statistics", epochCol, 1, berlin(t, "2025-09-01 00:00"))
	assert.Equal(t, 60.0, state)
	assert.Equal(t, 60.0, sum)
	_, sum = rec.values("statistics", epochCol, 1, berlin(t, "2025-08-31 00:00"))
	assert.Equal(t, 100.0, sum, "row before the window")
	_, sum = rec.values("statistics", epochCol, 1, berlin(t, "2025-10-01 00:00"))
	assert.Equal(t, 410.0, sum, "row on the exclusive end")

	text := res.Text()
	assert.Contains(t, text, "Backup created: "+res.BackupPath)
	assert.Contains(t, text, "Applied offset -50 to state, sum for range 2025-09-01 00:00 → 2025-10-01 00:00 (Europe/Berlin).")
	assert.Contains(t, text, "Updated rows (statistics): state=30, sum=30")
	assert.NotContains(t, text, "statistics_short_term")
}

func TestApply_ZeroOffset(t *testing.T) {
	rec := newRecorder(t, epochCol, epochCol)
	rec.meta(1, "sensor.pv_meter_monthly")
	rec.month("statistics", epochCol, 1)

	res, err := New().Apply(ApplyRequest{Request: september(rec.path), Offset: "0"})
	require.NoError(t, err)
	assert.Equal(t, int64(30), res.UpdatedRows("sum"))

	_, sum := rec.values("statistics", epochCol, 1, berlin(t, "2025-09-15 00:00"))
	assert.Equal(t, 250.0, sum)
}

func TestApply_RoundTrip(t *testing.T) {
	rec := newRecorder(t, textCol, textCol)
	rec.meta(1, "sensor.pv_meter_monthly")
	rec.month("statistics", textCol, 1)

	// Both applies share one backup timestamp.
	svc := New(WithClock(fixedClock))

	for _, offset := range []string{"-12,5", "12.5"} {
		req := ApplyRequest{Request: september(rec.path), Offset: offset}
		req.Columns = models.ColumnsBoth
		res, err := svc.Apply(req)
		require.NoError(t, err, offset)
		require.NotEmpty(t, res.BackupPath, offset)
	}

	backups, err := db.ListBackups(rec.path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		db.BackupPath(rec.path, fixedClock()),
		rec.path + "." + fixedClock().Format("20060102-150405") + "-2.bak",
	}, backups)

	day := berlin(t, "2025-08-31 00:00")
	for i := 0; i < 32; i++ {
		state, sum := rec.values("statistics", textCol, 1, day)
		want := float64(100 + i*10)
		assert.Equal(t, want, state, day.String())
		assert.Equal(t, want, sum, day.String())
		day = day.AddDate(0, 0, 1)
	}
}

func TestApply_RoundTripInexactOffset(t *testing.T) {
	rec := newRecorder(t, epochCol, epochCol)
	rec.meta(1, "sensor.pv_meter_monthly")
	start := berlin(t, "2025-09-01 00:00")
	rec.row("statistics", epochCol, 1, start, 0.1)

	svc := New(WithClock(fixedClock))
	for _, offset := range []string{"0.2", "-0.2"} {
		req := ApplyRequest{Request: september(rec.path), Offset: offset}
		req.Columns = models.ColumnsSum
		_, err := svc.Apply(req)
		require.NoError(t, err, offset)
	}

	// REAL arithmetic: only offsets exactly representable in binary restore
	// the original value bit for bit.
	want := 0.1
	want += 0.2
	want -= 0.2

	_, sum := rec.values("statistics", epochCol, 1, start)
	assert.Equal(t, want, sum)
	assert.NotEqual(t, 0.1, sum)
	assert.InDelta(t, 0.1, sum, 1e-12)
}

func TestApply_ShortTerm(t *testing.T) {
	rec := newRecorder(t, epochCol, textCol)
	rec.meta(1, "sensor.pv_meter_monthly")
	rec.month("statistics", epochCol, 1)
	rec.row("statistics_short_term", textCol, 1, berlin(t, "2025-09-30 23:50"), 5)
	rec.row("statistics_short_term", textCol, 1, berlin(t, "2025-09-30 23:55"), 5)
	rec.row("statistics_short_term", textCol, 1, berlin(t, "2025-10-01 00:00"), 5)

	req := ApplyRequest{Request: september(rec.path), Offset: "-50"}
	req.Columns = models.ColumnsBoth
	req.IncludeShortTerm = true

	res, err := New().Apply(req)
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.ShortTermUpdated, "two rows, two columns")
	assert.Contains(t, res.Text(), "Updated rows (statistics_short_term): 4")

	state, sum := rec.values("statistics_short_term", textCol, 1, berlin(t, "2025-09-30 23:55"))
	assert.Equal(t, -45.0, state)
	assert.Equal(t, -45.0, sum)
	_, sum = rec.values("statistics_short_term", textCol, 1, berlin(t, "2025-10-01 00:00"))
	assert.Equal(t, 5.0, sum)
}

func TestApply_BackupFailure(t *testing.T) {
	rec := newRecorder(t, epochCol, epochCol)
	rec.meta(1, "sensor.pv_meter_monthly")
	rec.month("statistics", epochCol, 1)

	svc := New(WithClock(fixedClock))
	svc.copyDB = func(string, time.Time) (string, error) {
		return "", fmt.Errorf("failed to create backup file: %w", os.ErrPermission)
	}
	req := ApplyRequest{Request: september(rec.path), Offset: "-50"}

	t.Run("Aborted", func(t *testing.T) {
		res, err := svc.Apply(req)
		require.ErrorIs(t, err, models.ErrBackupFailed)
		assert.False(t, res.Committed)
		assert.Contains(t, res.Text(), "Aborted: no backup was made.")

		_, sum := rec.values("statistics", epochCol, 1, berlin(t, "2025-09-01 00:00"))
		assert.Equal(t, 110.0, sum)
	})

	t.Run("Declined", func(t *testing.T) {
		req := req
		var asked error
		req.ConfirmWithoutBackup = func(err error) bool {
			asked = err
			return false
		}
		_, err := svc.Apply(req)
		require.ErrorIs(t, err, models.ErrBackupFailed)
		require.ErrorIs(t, asked, models.ErrBackupFailed)
		require.ErrorIs(t, asked, os.ErrPermission)
	})

	t.Run("Confirmed", func(t *testing.T) {
		req := req
		req.ConfirmWithoutBackup = func(error) bool { return true }

		res, err := svc.Apply(req)
		require.NoError(t, err)
		assert.True(t, res.Committed)
		assert.Empty(t, res.BackupPath)
		assert.Contains(t, res.Text(), "Proceeding without backup.")

		_, sum := rec.values("statistics", epochCol, 1, berlin(t, "2025-09-01 00:00"))
		assert.Equal(t, 60.0, sum)
	})

	backups, err := db.ListBackups(rec.path)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestApply_RollsBackBothColumns(t *testing.T) {
	rec := newRecorder(t, epochCol, epochCol)
	rec.meta(1, "sensor.pv_meter_monthly")
	rec.month("statistics", epochCol, 1)
	rec.exec(`CREATE TRIGGER reject_sum BEFORE UPDATE OF sum ON statistics
		BEGIN SELECT RAISE(ABORT, 'sum is read-only'); END;`)

	req := ApplyRequest{Request: september(rec.path), Offset: "-50"}
	req.Columns = models.ColumnsBoth

	res, err := New().Apply(req)
	require.ErrorIs(t, err, models.ErrStorage)
	assert.False(t, errors.Is(err, models.ErrInvalidInput))
	assert.False(t, res.Committed)
	assert.Empty(t, res.Updated)
	assert.Contains(t, res.Text(), "Transaction rolled back; no rows were changed.")
	assert.NotEmpty(t, res.BackupPath, "backup happens before the transaction")

	state, sum := rec.values("statistics", epochCol, 1, berlin(t, "2025-09-01 00:00"))
	assert.Equal(t, 110.0, state, "state update must be rolled back")
	assert.Equal(t, 110.0, sum)
}

func TestApply_UnsupportedSchema(t *testing.T) {
	rec := newRecorder(t, epochCol, "recorded_at FLOAT")
	rec.meta(1, "sensor.pv_meter_monthly")
	rec.month("statistics", epochCol, 1)

	req := ApplyRequest{Request: september(rec.path), Offset: "-50"}
	req.IncludeShortTerm = true

	res, err := New().Apply(req)
	require.ErrorIs(t, err, models.ErrStorage)
	assert.Empty(t, res.BackupPath)

	_, sum := rec.values("statistics", epochCol, 1, berlin(t, "2025-09-01 00:00"))
	assert.Equal(t, 110.0, sum)
}
