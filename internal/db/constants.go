package db

// Recorder tables this tool reads and corrects.
const (
	MetaTable       = "statistics_meta"
	StatisticsTable = "statistics"
	ShortTermTable  = "statistics_short_term"
)

// Timestamp columns, one per schema generation.
const (
	epochColumn = "start_ts"
	textColumn  = "start"
)

// Row limits used by preview and diagnose listings.
const (
	PreviewRowLimit  = 10
	LatestRowLimit   = 5
	BoundaryRowLimit = 5
	InRangeRowLimit  = 12
	CandidateLimit   = 50
)

// SeriesRowLimit caps the rows loaded for charting: a month of hourly rows.
const SeriesRowLimit = 31 * 24
