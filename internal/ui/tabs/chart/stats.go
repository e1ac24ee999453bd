package chart

import (
	"math"
	"time"

	"github.com/j-veylop/ha-stats-fixer/internal/models"
)

// seriesStats summarizes the sum column of a series.
type seriesStats struct {
	Rows      int
	Values    int
	FirstSum  float64
	LastSum   float64
	MinSum    float64
	MaxSum    float64
	FirstTime time.Time
	LastTime  time.Time

	// LargestStep is the biggest absolute change between two consecutive
	// non-NULL sums. StepAt is the start of the later row.
	LargestStep float64
	StepAt      time.Time
	HasStep     bool
}

// summarize computes seriesStats over rows in time order. Rows whose sum is
// NULL are counted but otherwise skipped.
func summarize(rows []models.StatRow) seriesStats {
	st := seriesStats{Rows: len(rows)}

	var prev float64
	for _, row := range rows {
		if !row.Sum.Valid {
			continue
		}
		v := row.Sum.Float64

		if st.Values == 0 {
			st.FirstSum, st.MinSum, st.MaxSum = v, v, v
			st.FirstTime = row.Start
		} else {
			step := v - prev
			if !st.HasStep || math.Abs(step) > math.Abs(st.LargestStep) {
				st.LargestStep = step
				st.StepAt = row.Start
				st.HasStep = true
			}
		}

		st.MinSum = min(st.MinSum, v)
		st.MaxSum = max(st.MaxSum, v)
		st.LastSum = v
		st.LastTime = row.Start
		st.Values++
		prev = v
	}

	return st
}

// Delta is the change of the sum across the series.
func (s seriesStats) Delta() float64 {
	return s.LastSum - s.FirstSum
}
