package pricehistory

import (
	"log/slog"
	"time"
)

// DefaultWindow is 3 × 365 fixed 24-hour days, not three calendar years.
// Leap days are ignored.
const DefaultWindow = 3 * 365 * 24 * time.Hour

// Cutoff returns the start of the trailing window ending at now.
func Cutoff(now time.Time, window time.Duration) time.Time {
	return now.Add(-window)
}

// FilterWindow keeps the points of a chronologically sorted series whose Date
// is at or after cutoff. If no point qualifies, the whole series is returned
// with UsedFallback set; this is logged, not returned as an error.
func FilterWindow(s Series, cutoff time.Time, logger *slog.Logger) WindowedSeries {
	if logger == nil {
		logger = slog.Default()
	}

	kept := make(Series, 0, len(s))
	for _, p := range s {
		if !p.Date.Before(cutoff) {
			kept = append(kept, p)
		}
	}

	if len(kept) == 0 {
		logger.Warn("no price points inside the trailing window, using the full series",
			slog.Time("cutoff", cutoff),
			slog.Int("points", len(s)))
		return WindowedSeries{Series: s.Clone(), Cutoff: cutoff, UsedFallback: true}
	}

	logger.Info("filtered price points to trailing window",
		slog.Time("cutoff", cutoff),
		slog.Int("kept", len(kept)),
		slog.Int("dropped", len(s)-len(kept)))

	return WindowedSeries{Series: kept, Cutoff: cutoff}
}
