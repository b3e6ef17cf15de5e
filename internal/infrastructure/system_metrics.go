package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics records Go runtime gauges alongside the business metrics
type SystemMetrics struct {
	startTime time.Time

	goRoutines    metric.Int64Gauge
	memoryUsage   metric.Int64Gauge
	memorySystem  metric.Int64Gauge
	processUptime metric.Float64Gauge
}

// NewSystemMetrics creates the runtime gauges. A nil meter yields a
// collector that only reads stats.
func NewSystemMetrics(meter metric.Meter, startTime time.Time) (*SystemMetrics, error) {
	sm := &SystemMetrics{startTime: startTime}
	if meter == nil {
		return sm, nil
	}

	var err error
	if sm.goRoutines, err = meter.Int64Gauge("system_goroutines",
		metric.WithDescription("Number of active goroutines")); err != nil {
		return nil, err
	}
	if sm.memoryUsage, err = meter.Int64Gauge("system_memory_usage_bytes",
		metric.WithDescription("Heap bytes in use"), metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if sm.memorySystem, err = meter.Int64Gauge("system_memory_system_bytes",
		metric.WithDescription("Memory obtained from the OS"), metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if sm.processUptime, err = meter.Float64Gauge("system_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return sm, nil
}

// SystemStats holds current system statistics
type SystemStats struct {
	GoRoutines    int64
	MemoryUsage   int64
	MemorySystem  int64
	GCCount       uint32
	CPUCount      int
	ProcessUptime time.Duration
	Timestamp     time.Time
}

// Collect reads runtime stats and records them when gauges exist
func (sm *SystemMetrics) Collect(ctx context.Context) *SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &SystemStats{
		GoRoutines:    int64(runtime.NumGoroutine()),
		MemoryUsage:   int64(memStats.Alloc),
		MemorySystem:  int64(memStats.Sys),
		GCCount:       memStats.NumGC,
		CPUCount:      runtime.NumCPU(),
		ProcessUptime: time.Since(sm.startTime),
		Timestamp:     time.Now(),
	}

	if sm.goRoutines != nil {
		sm.goRoutines.Record(ctx, stats.GoRoutines)
		sm.memoryUsage.Record(ctx, stats.MemoryUsage)
		sm.memorySystem.Record(ctx, stats.MemorySystem)
		sm.processUptime.Record(ctx, stats.ProcessUptime.Seconds())
	}

	return stats
}

// FormatStats returns a human-readable representation of system stats
func (stats *SystemStats) FormatStats() map[string]interface{} {
	return map[string]interface{}{
		"goroutines":       stats.GoRoutines,
		"memory_usage_mb":  stats.MemoryUsage / 1024 / 1024,
		"memory_system_mb": stats.MemorySystem / 1024 / 1024,
		"gc_count":         stats.GCCount,
		"cpu_count":        stats.CPUCount,
		"uptime_seconds":   stats.ProcessUptime.Seconds(),
	}
}
