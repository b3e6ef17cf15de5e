package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"pricepulse/internal/config"
	"pricepulse/internal/infrastructure"
	"pricepulse/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version       string
	paths         *config.Paths
	systemMetrics *infrastructure.SystemMetrics
	analysis      *AnalysisService
	startTime     time.Time
	logger        *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a new health service. systemMetrics and analysis
// may be nil.
func NewHealthService(paths *config.Paths, systemMetrics *infrastructure.SystemMetrics, analysis *AnalysisService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	startTime := time.Now()
	if systemMetrics == nil {
		systemMetrics, _ = infrastructure.NewSystemMetrics(nil, startTime)
	}

	logger.Info("HealthService initialized", slog.String("version", contracts.Version))

	return &HealthService{
		version:       contracts.Version,
		paths:         paths,
		systemMetrics: systemMetrics,
		analysis:      analysis,
		startTime:     startTime,
		logger:        logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether the export directories are usable and
// whether an analysis has completed.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"exports":  hs.checkExportsHealth(),
			"analysis": hs.checkAnalysisHealth(),
		},
	}

	if exports, _ := status.Services["exports"].(ServiceHealth); exports.Status != "ready" {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "ReadinessCheck: not ready", slog.String("reason", exports.Message))
	}

	return status
}

// LivenessCheck returns liveness status with runtime stats
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime:   hs.systemMetrics.Collect(ctx).FormatStats(),
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":      info.Version,
		"api_version":  info.APIVersion,
		"data_format":  info.DataFormat,
		"build_time":   info.BuildTime,
		"git_commit":   info.GitCommit,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

// checkExportsHealth verifies the exports directory exists and is writable
func (hs *HealthService) checkExportsHealth() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{Status: "not_ready", Message: "paths not configured"}
	}

	dir := hs.paths.ExportsDir
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Exports directory not found: %s", dir),
		}
	}

	probe, err := os.CreateTemp(dir, ".health-*")
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Cannot write to exports directory: %v", err),
		}
	}
	probe.Close()
	os.Remove(filepath.Clean(probe.Name()))

	return ServiceHealth{Status: "ready", Message: "Exports directory is writable"}
}

// checkAnalysisHealth summarizes the last run; never blocks readiness
func (hs *HealthService) checkAnalysisHealth() ServiceHealth {
	if hs.analysis == nil {
		return ServiceHealth{Status: "ready", Message: "analysis service not attached"}
	}
	last, err := hs.analysis.Last()
	if err != nil {
		return ServiceHealth{Status: "ready", Message: "no analysis run yet", Uptime: time.Since(hs.startTime).String()}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("last run %s analyzed %d points of %s", last.RunID, last.Report.Statistics.TotalPoints, last.ItemName),
		Uptime:  time.Since(hs.startTime).String(),
	}
}
