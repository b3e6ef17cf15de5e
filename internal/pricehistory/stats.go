package pricehistory

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// GapsMinutes returns the elapsed minutes between each pair of adjacent
// points. A series of N points has N-1 gaps; fewer than two points yield nil.
// Gaps come from the epoch seconds, so spans wider than a time.Duration are
// exact.
func GapsMinutes(s Series) []float64 {
	if len(s) < 2 {
		return nil
	}
	gaps := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		gaps = append(gaps, (s[i].Timestamp-s[i-1].Timestamp)/60)
	}
	return gaps
}

// ComputeStatistics summarizes a windowed series. A single-point series is
// valid and reports NoGapsAvailable with zero gap figures.
func ComputeStatistics(ws WindowedSeries) (Statistics, error) {
	series := ws.Series
	if len(series) == 0 {
		return Statistics{}, ErrEmptySeries
	}

	st := Statistics{
		StartDate:   series[0].Date,
		EndDate:     series[len(series)-1].Date,
		TotalPoints: len(series),
		Series:      series.Clone(),
	}

	gaps := GapsMinutes(series)
	if len(gaps) == 0 {
		st.NoGapsAvailable = true
		return st, nil
	}

	var err error
	if st.AvgGapMinutes, err = stats.Mean(gaps); err != nil {
		return Statistics{}, fmt.Errorf("mean gap: %w", err)
	}
	if st.MinGapMinutes, err = stats.Min(gaps); err != nil {
		return Statistics{}, fmt.Errorf("min gap: %w", err)
	}
	if st.MaxGapMinutes, err = stats.Max(gaps); err != nil {
		return Statistics{}, fmt.Errorf("max gap: %w", err)
	}

	return st, nil
}
