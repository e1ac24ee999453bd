package db

import (
	"strings"

	"github.com/j-veylop/ha-stats-fixer/internal/models"
)

// RangeQuery is a composable WHERE predicate plus its bound parameters.
type RangeQuery struct {
	Table   string
	Variant TimestampVariant
	// Predicate has no leading WHERE.
	Predicate string
	// Args are ordered metadata id, start, then end when bounded.
	Args    []any
	Columns []string
}

// BuildRangeQuery restricts table rows of metadataID to the half-open window.
func BuildRangeQuery(table string, variant TimestampVariant, metadataID int64, w models.Window, cols models.Columns) RangeQuery {
	column, param := variant.compareExpr()

	var b strings.Builder
	b.WriteString("metadata_id = ? AND ")
	b.WriteString(column + " >= " + param)
	args := []any{metadataID, boundArg(variant, w.Start)}

	if w.End != nil {
		b.WriteString(" AND " + column + " < " + param)
		args = append(args, boundArg(variant, *w.End))
	}

	return RangeQuery{
		Table:     table,
		Variant:   variant,
		Predicate: b.String(),
		Args:      args,
		Columns:   cols.Names(),
	}
}

// BeforeQuery selects the entity's rows strictly before the window start.
func BeforeQuery(table string, variant TimestampVariant, metadataID int64, w models.Window, cols models.Columns) RangeQuery {
	column, param := variant.compareExpr()
	return RangeQuery{
		Table:     table,
		Variant:   variant,
		Predicate: "metadata_id = ? AND " + column + " < " + param,
		Args:      []any{metadataID, boundArg(variant, w.Start)},
		Columns:   cols.Names(),
	}
}

// AfterQuery selects the entity's rows at or after the window end. It returns
// false for unbounded windows.
func AfterQuery(table string, variant TimestampVariant, metadataID int64, w models.Window, cols models.Columns) (RangeQuery, bool) {
	if w.End == nil {
		return RangeQuery{}, false
	}
	column, param := variant.compareExpr()
	return RangeQuery{
		Table:     table,
		Variant:   variant,
		Predicate: "metadata_id = ? AND " + column + " >= " + param,
		Args:      []any{metadataID, boundArg(variant, *w.End)},
		Columns:   cols.Names(),
	}, true
}

// EntityQuery selects every row of metadataID.
func EntityQuery(table string, variant TimestampVariant, metadataID int64, cols models.Columns) RangeQuery {
	return RangeQuery{
		Table:     table,
		Variant:   variant,
		Predicate: "metadata_id = ?",
		Args:      []any{metadataID},
		Columns:   cols.Names(),
	}
}

func boundArg(variant TimestampVariant, in models.Instant) any {
	if variant == TextTimestamp {
		return in.Text
	}
	return in.Epoch
}
