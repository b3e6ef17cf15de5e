package pricehistory

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "pricepulse/pricehistory"

// Options configures an Analyzer.
type Options struct {
	// Window is the trailing duration kept by the window filter.
	Window time.Duration
	// Location is the zone text timestamps are parsed in and dates are
	// rendered in. Nil means time.Local.
	Location *time.Location
	// Now supplies the instant the window is measured back from.
	Now func() time.Time
}

// DefaultOptions returns the three-year fixed-day window in local time.
func DefaultOptions() Options {
	return Options{
		Window:   DefaultWindow,
		Location: time.Local,
		Now:      time.Now,
	}
}

// Analyzer runs the normalization and statistics pipeline. It holds no
// per-run state and may be shared.
type Analyzer struct {
	opts   Options
	logger *slog.Logger
	tracer trace.Tracer
}

// NewAnalyzer creates an analyzer; zero fields in opts take their defaults.
func NewAnalyzer(opts Options, logger *slog.Logger) *Analyzer {
	defaults := DefaultOptions()
	if opts.Window <= 0 {
		opts.Window = defaults.Window
	}
	if opts.Location == nil {
		opts.Location = defaults.Location
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		opts:   opts,
		logger: logger.With(slog.String("component", "pricehistory")),
		tracer: otel.Tracer(tracerName),
	}
}

// Window returns the configured trailing window
func (a *Analyzer) Window() time.Duration { return a.opts.Window }

// Location returns the zone dates are resolved in
func (a *Analyzer) Location() *time.Location { return a.opts.Location }

// Analyze runs the pipeline with the window ending at Options.Now().
func (a *Analyzer) Analyze(ctx context.Context, raw []RawPoint) (*Report, error) {
	return a.AnalyzeAt(ctx, raw, a.opts.Now())
}

// AnalyzeAt runs the pipeline with the window ending at now. On an
// InsufficientDataError the returned report is nil.
func (a *Analyzer) AnalyzeAt(ctx context.Context, raw []RawPoint, now time.Time) (*Report, error) {
	ctx, span := a.tracer.Start(ctx, "pricehistory.Analyze",
		trace.WithAttributes(
			attribute.Int("raw_points", len(raw)),
			attribute.String("window", a.opts.Window.String()),
		))
	defer span.End()

	logger := a.logger
	logger.InfoContext(ctx, "analyzing price history",
		slog.Int("raw_points", len(raw)),
		slog.Time("now", now),
		slog.Duration("window", a.opts.Window))

	normalized, skipped, err := Normalize(raw, a.opts.Location, logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.AddEvent("normalized", trace.WithAttributes(
		attribute.Int("valid_points", len(normalized)),
		attribute.Int("skipped", len(skipped))))

	sorted := SortChronologically(normalized)

	cutoff := Cutoff(now, a.opts.Window)
	windowed := FilterWindow(sorted, cutoff, logger)
	span.AddEvent("windowed", trace.WithAttributes(
		attribute.Int("kept", len(windowed.Series)),
		attribute.Bool("used_fallback", windowed.UsedFallback)))

	st, err := ComputeStatistics(windowed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("total_points", st.TotalPoints),
		attribute.Float64("avg_gap_minutes", st.AvgGapMinutes),
		attribute.Bool("no_gaps_available", st.NoGapsAvailable))

	logger.InfoContext(ctx, "price history analysis complete",
		slog.Time("start_date", st.StartDate),
		slog.Time("end_date", st.EndDate),
		slog.Int("total_points", st.TotalPoints),
		slog.Float64("avg_gap_minutes", st.AvgGapMinutes),
		slog.Float64("min_gap_minutes", st.MinGapMinutes),
		slog.Float64("max_gap_minutes", st.MaxGapMinutes),
		slog.Bool("used_fallback", windowed.UsedFallback))

	return &Report{
		Statistics:   st,
		RawPoints:    len(raw),
		Normalized:   len(normalized),
		Skipped:      skipped,
		Cutoff:       cutoff,
		Window:       a.opts.Window,
		UsedFallback: windowed.UsedFallback,
	}, nil
}
