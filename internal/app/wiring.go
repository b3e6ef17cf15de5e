package app

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"pricepulse/internal/config"
	"pricepulse/internal/exporter"
	"pricepulse/internal/infrastructure"
	"pricepulse/internal/pricehistory"
	"pricepulse/internal/scraper"
	"pricepulse/internal/services"
)

// NewAnalyzer builds the analyzer for the configured window and time zone.
func NewAnalyzer(cfg config.AnalysisConfig, logger *slog.Logger) (*pricehistory.Analyzer, error) {
	loc, err := cfg.LoadLocation()
	if err != nil {
		return nil, config.NewLoadError("analysis location", err)
	}
	return pricehistory.NewAnalyzer(pricehistory.Options{
		Window:   cfg.Window(),
		Location: loc,
	}, logger), nil
}

// NewSourceFactory returns a factory that opens a browser source per listing.
// An empty URL or item name falls back to the configured default.
func NewSourceFactory(cfg config.ScraperConfig, paths *config.Paths, logger *slog.Logger) services.SourceFactory {
	base := scraper.BrowserOptions{
		URL:             cfg.URL,
		DefaultItemName: cfg.DefaultItemName,
		Headless:        cfg.Headless,
		Timeout:         cfg.Timeout,
		ReadyTimeout:    cfg.ReadyTimeout,
		UserAgent:       cfg.UserAgent,
	}
	if cfg.Screenshot && paths != nil {
		base.ScreenshotDir = paths.ScreenshotsDir
	}

	return func(listingURL, itemName string) scraper.Source {
		opts := base
		if listingURL != "" {
			opts.URL = listingURL
		}
		if itemName != "" {
			opts.DefaultItemName = itemName
		}
		return scraper.NewBrowserSource(opts, logger)
	}
}

// NewAnalysisService wires the analyzer, the history exporter and the
// browser source factory from configuration. metrics may be nil.
func NewAnalysisService(cfg *config.Config, paths *config.Paths, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*services.AnalysisService, error) {
	analyzer, err := NewAnalyzer(cfg.Analysis, logger)
	if err != nil {
		return nil, err
	}

	return services.NewAnalysisService(services.AnalysisServiceConfig{
		Analyzer: analyzer,
		Exporter: exporter.NewHistoryExporter(paths, logger),
		ExportOptions: exporter.ExportOptions{
			JSON:  cfg.Export.JSON,
			Excel: cfg.Export.Excel,
		},
		ExportEnabled: cfg.Export.Enabled,
		NewSource:     NewSourceFactory(cfg.Scraper, paths, logger),
		Metrics:       metrics,
		Logger:        logger,
	}), nil
}

// meterFor falls back to the global (no-op) meter when metrics are disabled.
func meterFor(providers *infrastructure.OTelProviders) metric.Meter {
	if providers != nil && providers.Meter != nil {
		return providers.Meter
	}
	return otel.Meter(infrastructure.MeterName)
}

// NewMetrics creates the business metrics on the providers' meter.
func NewMetrics(providers *infrastructure.OTelProviders) (*infrastructure.BusinessMetrics, error) {
	metrics, err := infrastructure.CreateBusinessMetrics(meterFor(providers))
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return metrics, nil
}
