package models

import (
	"strings"
)

// Columns selects which value columns are read and corrected.
type Columns int

const (
	// ColumnsSum targets the running total only.
	ColumnsSum Columns = iota
	// ColumnsState targets the meter reading only.
	ColumnsState
	// ColumnsBoth targets state and sum, each counted independently.
	ColumnsBoth
)

// Value column names.
const (
	ColumnState = "state"
	ColumnSum   = "sum"
)

// String returns the selector name as typed by the user.
func (c Columns) String() string {
	switch c {
	case ColumnsSum:
		return "sum"
	case ColumnsState:
		return "state"
	case ColumnsBoth:
		return "both"
	default:
		return "unknown"
	}
}

// Names returns the ordered column names to project or mutate.
func (c Columns) Names() []string {
	switch c {
	case ColumnsState:
		return []string{ColumnState}
	case ColumnsBoth:
		return []string{ColumnState, ColumnSum}
	default:
		return []string{ColumnSum}
	}
}

// Includes reports whether the named column is part of the selection.
func (c Columns) Includes(name string) bool {
	for _, n := range c.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Next cycles sum → state → both → sum.
func (c Columns) Next() Columns {
	return (c + 1) % 3
}

// Prev cycles in the opposite direction of Next.
func (c Columns) Prev() Columns {
	return (c + 2) % 3
}

// ParseColumns parses "sum", "state" or "both". The empty string selects sum.
func ParseColumns(s string) (Columns, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sum":
		return ColumnsSum, nil
	case "state":
		return ColumnsState, nil
	case "both":
		return ColumnsBoth, nil
	default:
		return ColumnsSum, InvalidInputf("columns must be sum, state or both, got %q", s)
	}
}

// ColumnCount is the number of rows an update touched for one column.
type ColumnCount struct {
	Column string
	Rows   int64
}
