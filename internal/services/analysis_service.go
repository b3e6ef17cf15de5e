package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pricepulse/internal/chart"
	apperrors "pricepulse/internal/errors"
	"pricepulse/internal/exporter"
	"pricepulse/internal/infrastructure"
	"pricepulse/internal/pricehistory"
	"pricepulse/internal/scraper"
)

// Source labels for runs that did not come from a scraper.Source
const SourceRequest = "request"

// Exporter writes the tabular projections of a report
type Exporter interface {
	Export(ctx context.Context, itemName string, report *pricehistory.Report, opts exporter.ExportOptions) (*exporter.Files, error)
}

// SourceFactory builds a listing source for a URL. itemName may be empty.
type SourceFactory func(listingURL, itemName string) scraper.Source

// RunOptions tunes a single run. Zero values take the service defaults.
type RunOptions struct {
	// Window overrides the analyzer's trailing window
	Window time.Duration
	// Export forces the export step on or off; nil uses the configured default
	Export *bool
}

// AnalysisResult is everything one run produced
type AnalysisResult struct {
	RunID     string
	ItemName  string
	Source    string
	Report    *pricehistory.Report
	Chart     chart.Dataset
	Files     *exporter.Files
	StartedAt time.Time
	Duration  time.Duration
}

// AnalysisServiceConfig wires an AnalysisService
type AnalysisServiceConfig struct {
	Analyzer      *pricehistory.Analyzer
	Exporter      Exporter
	ExportOptions exporter.ExportOptions
	ExportEnabled bool
	NewSource     SourceFactory
	Metrics       *infrastructure.BusinessMetrics
	Logger        *slog.Logger
}

// AnalysisService runs acquisition, analysis and export for one price history
type AnalysisService struct {
	analyzer      *pricehistory.Analyzer
	exporter      Exporter
	exportOptions exporter.ExportOptions
	exportEnabled bool
	newSource     SourceFactory
	metrics       *infrastructure.BusinessMetrics
	logger        *slog.Logger
	baseLogger    *slog.Logger
	now           func() time.Time

	mu   sync.RWMutex
	last *AnalysisResult
}

// NewAnalysisService creates the service. A nil analyzer uses the default
// three-year window in local time.
func NewAnalysisService(cfg AnalysisServiceConfig) *AnalysisService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	analyzer := cfg.Analyzer
	if analyzer == nil {
		analyzer = pricehistory.NewAnalyzer(pricehistory.DefaultOptions(), logger)
	}
	return &AnalysisService{
		analyzer:      analyzer,
		exporter:      cfg.Exporter,
		exportOptions: cfg.ExportOptions,
		exportEnabled: cfg.ExportEnabled && cfg.Exporter != nil,
		newSource:     cfg.NewSource,
		metrics:       cfg.Metrics,
		logger:        infrastructure.WithComponent(logger, "analysis_service"),
		baseLogger:    logger,
		now:           time.Now,
	}
}

// AnalyzeListing fetches listingURL through the configured source factory
// and analyzes it.
func (s *AnalysisService) AnalyzeListing(ctx context.Context, listingURL, itemName string, opts RunOptions) (*AnalysisResult, error) {
	if s.newSource == nil {
		return nil, apperrors.NewConfigError("analyze listing", ErrNoSource)
	}
	return s.AnalyzeSource(ctx, s.newSource(listingURL, itemName), opts)
}

// AnalyzeSource acquires a listing from src and runs the pipeline over it.
func (s *AnalysisService) AnalyzeSource(ctx context.Context, src scraper.Source, opts RunOptions) (*AnalysisResult, error) {
	if src == nil {
		return nil, apperrors.NewConfigError("analyze source", ErrNoSource)
	}

	ctx, runID := s.startRun(ctx)
	logger := s.runLogger(ctx)

	fetchStart := s.now()
	listing, err := src.Fetch(ctx)
	fetchDuration := time.Since(fetchStart)
	sourceName := sourceLabel(listing, src)
	infrastructure.RecordAcquisition(ctx, s.metrics, sourceName, fetchDuration, err)
	if err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "acquisition failed",
			slog.String("source", sourceName),
			slog.Duration("duration", fetchDuration))
		return nil, err
	}

	logger.InfoContext(ctx, "listing acquired",
		slog.String("item_name", listing.ItemName),
		slog.String("source", sourceName),
		slog.Int("raw_points", len(listing.Points)),
		slog.Any("strategies", listing.Strategies),
		slog.Duration("duration", fetchDuration))

	return s.run(ctx, runID, fetchStart, listing.ItemName, sourceName, listing.Points, opts)
}

// AnalyzePoints runs the pipeline over points supplied directly by a caller.
func (s *AnalysisService) AnalyzePoints(ctx context.Context, itemName string, raw []pricehistory.RawPoint, opts RunOptions) (*AnalysisResult, error) {
	ctx, runID := s.startRun(ctx)
	return s.run(ctx, runID, s.now(), itemName, SourceRequest, raw, opts)
}

// Last returns the most recent successful result
func (s *AnalysisService) Last() (*AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, ErrNothingAnalyzed
	}
	return s.last, nil
}

func (s *AnalysisService) startRun(ctx context.Context) (context.Context, string) {
	runID := uuid.New().String()
	ctx = infrastructure.EnsureTraceID(ctx)
	return infrastructure.WithRunID(ctx, runID), runID
}

// runLogger tags the service logger with the run id; trace_id is added by
// the handler from the context.
func (s *AnalysisService) runLogger(ctx context.Context) *slog.Logger {
	return s.logger.With(slog.String("run_id", infrastructure.GetRunID(ctx)))
}

func (s *AnalysisService) run(ctx context.Context, runID string, started time.Time, itemName, source string, raw []pricehistory.RawPoint, opts RunOptions) (*AnalysisResult, error) {
	logger := s.runLogger(ctx)
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"pricepulse.run_id":    runID,
		"pricepulse.item_name": itemName,
		"pricepulse.source":    source,
	})

	analyzer, err := s.analyzerFor(opts)
	if err != nil {
		return nil, err
	}

	analysisStart := s.now()
	report, err := analyzer.AnalyzeAt(ctx, raw, analysisStart)
	analysisDuration := time.Since(analysisStart)
	infrastructure.RecordAnalysisMetrics(ctx, s.metrics, source, report, analysisDuration, err)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, pricehistory.ErrInsufficientData) {
			level = slog.LevelWarn
		}
		infrastructure.RecordError(ctx, err)
		logger.Log(ctx, level, "analysis failed",
			slog.String("item_name", itemName),
			slog.Int("raw_points", len(raw)),
			slog.String("error", err.Error()))
		return nil, err
	}

	result := &AnalysisResult{
		RunID:     runID,
		ItemName:  itemName,
		Source:    source,
		Report:    report,
		Chart:     chart.NewDataset(itemName, report.Statistics),
		StartedAt: started,
	}

	if s.shouldExport(opts) {
		files, err := s.exporter.Export(ctx, itemName, report, s.exportOptions)
		if files != nil {
			infrastructure.RecordExport(ctx, s.metrics, len(files.All()))
		}
		if err != nil {
			infrastructure.RecordError(ctx, err)
			infrastructure.WithError(logger, err).ErrorContext(ctx, "export failed",
				slog.String("item_name", itemName))
			return nil, err
		}
		result.Files = files
		infrastructure.AddSpanEvent(ctx, "export.done", map[string]interface{}{"files": len(files.All())})
	}

	result.Duration = time.Since(started)

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	logger.InfoContext(ctx, "analysis completed",
		slog.String("item_name", itemName),
		slog.String("source", source),
		slog.Int("total_points", report.Statistics.TotalPoints),
		slog.Int("skipped", report.SkippedCount()),
		slog.Bool("used_fallback", report.UsedFallback),
		slog.Duration("duration", result.Duration))

	return result, nil
}

func (s *AnalysisService) analyzerFor(opts RunOptions) (*pricehistory.Analyzer, error) {
	switch {
	case opts.Window < 0:
		return nil, apperrors.NewAppValidationError(ErrInvalidWindow.Error())
	case opts.Window == 0 || opts.Window == s.analyzer.Window():
		return s.analyzer, nil
	}
	return pricehistory.NewAnalyzer(pricehistory.Options{
		Window:   opts.Window,
		Location: s.analyzer.Location(),
	}, s.baseLogger), nil
}

func (s *AnalysisService) shouldExport(opts RunOptions) bool {
	if s.exporter == nil {
		return false
	}
	if opts.Export != nil {
		return *opts.Export
	}
	return s.exportEnabled
}

func sourceLabel(listing *scraper.Listing, src scraper.Source) string {
	if listing != nil && listing.Source != "" {
		return listing.Source
	}
	name := fmt.Sprintf("%T", src)
	name = strings.TrimPrefix(name, "*scraper.")
	return strings.ToLower(strings.TrimSuffix(name, "Source"))
}
