package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"pricepulse/internal/config"
	apierrors "pricepulse/internal/errors"
	"pricepulse/internal/infrastructure"
	customMiddleware "pricepulse/internal/middleware"
	"pricepulse/internal/scheduler"
	"pricepulse/internal/services"
	transporthttp "pricepulse/internal/transport/http"
	"pricepulse/pkg/contracts"
)

// ListingJobName is the scheduler entry that re-analyzes the configured listing
const ListingJobName = "listing-analysis"

// Application is the wired web service
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        chi.Router
	Server        *http.Server
	Logger        *slog.Logger
	Services      *ServiceContainer
	Scheduler     *scheduler.Scheduler
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	ErrorHandler  *apierrors.ErrorHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Analysis *services.AnalysisService
	Health   *services.HealthService
}

// NewApplication loads configuration, resolves paths next to the executable
// and wires every component.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	paths = paths.Apply(cfg.Paths)

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(infrastructure.ResolveLogConfig(cfg.Logging, paths))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))
	paths.LogPathResolution(logger)

	return newApplication(cfg, paths, logger)
}

// newApplication wires the application from already resolved inputs
func newApplication(cfg *config.Config, paths *config.Paths, logger *slog.Logger) (*Application, error) {
	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := NewMetrics(providers)
	if err != nil {
		return nil, err
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := app.initializeScheduler(); err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	analysis, err := NewAnalysisService(a.Config, a.Paths, a.Metrics, a.Logger)
	if err != nil {
		return err
	}

	systemMetrics, err := infrastructure.NewSystemMetrics(a.OTelProviders.Meter, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create system metrics: %w", err)
	}

	a.Services = &ServiceContainer{
		Analysis: analysis,
		Health:   services.NewHealthService(a.Paths, systemMetrics, analysis, a.Logger),
	}
	return nil
}

// initializeScheduler registers the periodic listing analysis when enabled
func (a *Application) initializeScheduler() error {
	if !a.Config.Schedule.Enabled {
		return nil
	}

	a.Scheduler = scheduler.New(a.Logger, a.Metrics)
	return a.Scheduler.Register(ListingJobName, a.Config.Schedule.Spec, a.analyzeConfiguredListing)
}

func (a *Application) analyzeConfiguredListing(ctx context.Context) error {
	_, err := a.Services.Analysis.AnalyzeListing(ctx, a.Config.Scraper.URL, a.Config.Scraper.DefaultItemName, services.RunOptions{})
	return err
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(a.getCORSConfig()))

	if rl := a.Config.Security.RateLimit; rl.Enabled {
		r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, a.ErrorHandler).Handler)
	}
	r.Use(customMiddleware.MaxBodySize(a.Config.Server.MaxBodyBytes))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	health := transporthttp.NewHealthHandler(a.Services.Health, a.Logger)
	r.Get(config.HealthEndpoint, health.HealthCheck)
	r.Get(config.ReadinessEndpoint, health.ReadinessCheck)
	r.Get(config.LivenessEndpoint, health.LivenessCheck)

	validation := customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler, a.Config.Server.MaxBodyBytes)
	analysis := transporthttp.NewAnalysisHandler(a.Services.Analysis, validation, a.Logger, a.ErrorHandler, a.Config.Server.FetchTimeout)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Get("/version", health.Version)
		r.Mount("/", analysis.Routes())
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	if a.Config.Logging.Development {
		origins = append(origins, "http://localhost:3000")
	}

	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", customMiddleware.RequestIDHeader},
		ExposedHeaders: []string{customMiddleware.RequestIDHeader, "Retry-After"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully. A listener failure is returned.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Server.Addr),
		slog.Bool("schedule_enabled", a.Scheduler != nil))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if a.Scheduler != nil {
		a.Scheduler.Start()
		a.Logger.InfoContext(ctx, "Scheduler started",
			slog.String("spec", a.Config.Schedule.Spec),
			slog.Time("next_run", a.Scheduler.Next(ListingJobName)))

		if a.Config.Schedule.RunOnStart {
			g.Go(func() error {
				if err := a.Scheduler.RunNow(ListingJobName); err != nil {
					a.Logger.WarnContext(gctx, "Initial listing analysis failed", slog.String("error", err.Error()))
				}
				return nil
			})
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("Received shutdown signal")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.Scheduler != nil {
		if err := a.Scheduler.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("scheduler shutdown error: %w", err))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}
