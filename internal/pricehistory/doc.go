// Package pricehistory normalizes raw market price histories and computes
// sampling-density statistics over a trailing window.
//
// # Pipeline
//
// A run is four stages, each consuming the previous stage's output and
// returning a new value:
//
//	[]RawPoint → Normalize → SortChronologically → FilterWindow → ComputeStatistics
//
// Normalize resolves the heterogeneous (number or text) timestamp and price
// fields of every raw record, skipping records that cannot be parsed. Fewer than
// two raw records, or fewer than two surviving points, fail the run with an
// InsufficientDataError. Every other condition is absorbed: unparseable records
// become ParseErrors on the Report, an empty window falls back to the whole
// series, and a single-point window reports NoGapsAvailable.
//
// # Usage
//
//	analyzer := pricehistory.NewAnalyzer(pricehistory.DefaultOptions(), logger)
//	report, err := analyzer.Analyze(ctx, raw)
//	if errors.Is(err, pricehistory.ErrInsufficientData) {
//	    // nothing to chart or export
//	}
//	fmt.Println(report.Statistics.AvgGapMinutes)
//
// # Window
//
// The default trailing window is DefaultWindow: 3 × 365 days of 24 hours,
// a fixed-day approximation of three years. Leap days are not accounted for,
// so the cutoff drifts by one day per leap year relative to calendar years.
//
// # Determinism
//
// The only input besides the raw series is the current instant, used for the
// window cutoff. Tests pass it explicitly through Analyzer.AnalyzeAt or
// Options.Now.
package pricehistory
