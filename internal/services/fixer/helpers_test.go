package fixer

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const recorderSchema = `
CREATE TABLE statistics_meta (
	id INTEGER PRIMARY KEY,
	statistic_id VARCHAR(255),
	source VARCHAR(32),
	has_sum BOOLEAN
);
CREATE TABLE statistics (
	id INTEGER PRIMARY KEY,
	metadata_id INTEGER,
	%s,
	state FLOAT,
	sum FLOAT
);
CREATE TABLE statistics_short_term (
	id INTEGER PRIMARY KEY,
	metadata_id INTEGER,
	%s,
	state FLOAT,
	sum FLOAT
);
`

const (
	epochCol = "start_ts FLOAT"
	textCol  = "start DATETIME"
)

// recorder is a temporary Home Assistant database for one test.
type recorder struct {
	t    *testing.T
	path string
}

func newRecorder(t *testing.T, statisticsCol, shortTermCol string) *recorder {
	t.Helper()
	r := &recorder{t: t, path: filepath.Join(t.TempDir(), "home-assistant_v2.db")}
	r.exec(fmt.Sprintf(recorderSchema, statisticsCol, shortTermCol))
	return r
}

func (r *recorder) exec(query string, args ...any) {
	r.t.Helper()
	conn, err := sql.Open("sqlite", r.path)
	require.NoError(r.t, err)
	defer func() { _ = conn.Close() }()

	_, err = conn.ExecContext(context.Background(), query, args...)
	require.NoError(r.t, err)
}

func (r *recorder) meta(id int64, statisticID string) {
	r.t.Helper()
	r.exec("INSERT INTO statistics_meta (id, statistic_id, source, has_sum) VALUES (?, ?, 'recorder', 1)", id, statisticID)
}

func (r *recorder) row(table, col string, metadataID int64, start time.Time, value float64) {
	r.t.Helper()
	if col == textCol {
		r.exec("INSERT INTO "+table+" (metadata_id, start, state, sum) VALUES (?, ?, ?, ?)",
			metadataID, start.UTC().Format("2006-01-02 15:04:05.000000"), value, value)
		return
	}
	r.exec("INSERT INTO "+table+" (metadata_id, start_ts, state, sum) VALUES (?, ?, ?, ?)",
		metadataID, float64(start.Unix()), value, value)
}

// month seeds one row per local midnight from Aug 31 to Oct 1, 2025 with
// values 100, 110, 120 and so on.
func (r *recorder) month(table, col string, metadataID int64) {
	r.t.Helper()
	day := berlin(r.t, "2025-08-31 00:00")
	for i := 0; i < 32; i++ {
		r.row(table, col, metadataID, day, float64(100+i*10))
		day = day.AddDate(0, 0, 1)
	}
}

// values returns state and sum of the row starting at start.
func (r *recorder) values(table, col string, metadataID int64, start time.Time) (state, sum float64) {
	r.t.Helper()
	conn, err := sql.Open("sqlite", r.path)
	require.NoError(r.t, err)
	defer func() { _ = conn.Close() }()

	query := "SELECT state, sum FROM " + table + " WHERE metadata_id = ? AND start_ts = ?"
	var arg any = float64(start.Unix())
	if col == textCol {
		query = "SELECT state, sum FROM " + table + " WHERE metadata_id = ? AND datetime(start) = datetime(?)"
		arg = start.UTC().Format("2006-01-02 15:04:05")
	}
	require.NoError(r.t, conn.QueryRowContext(context.Background(), query, metadataID, arg).Scan(&state, &sum))
	return state, sum
}

func berlin(t *testing.T, value string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	v, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	require.NoError(t, err)
	return v
}

// september is the monthly correction window used throughout the tests.
func september(path string) Request {
	return Request{
		DatabasePath: path,
		EntityID:     "sensor.pv_meter_monthly",
		Start:        "2025-09-01 00:00",
		End:          "2025-10-01 00:00",
		Timezone:     "Europe/Berlin",
	}
}

func fixedClock() time.Time {
	return time.Date(2025, 10, 2, 8, 30, 0, 0, time.Local)
}
