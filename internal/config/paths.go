package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for every file the application writes
type Paths struct {
	ExecutableDir  string
	DataDir        string
	ExportsDir     string
	ScreenshotsDir string
	LogsDir        string
}

// GetPaths returns the application paths relative to the executable location.
// Paths are never resolved against the current working directory.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return NewPaths(filepath.Dir(exe)), nil
}

// NewPaths lays out the default tree under base:
//
//	base/
//	  ├── data/
//	  │   ├── exports/      (CSV, JSON and workbook projections)
//	  │   └── screenshots/  (listing page captures)
//	  └── logs/
func NewPaths(base string) *Paths {
	dataDir := filepath.Join(base, DefaultDataDir)
	return &Paths{
		ExecutableDir:  base,
		DataDir:        dataDir,
		ExportsDir:     filepath.Join(dataDir, "exports"),
		ScreenshotsDir: filepath.Join(dataDir, "screenshots"),
		LogsDir:        filepath.Join(base, DefaultLogsDir),
	}
}

// Apply overlays configured directories. Relative entries resolve against
// the executable directory.
func (p *Paths) Apply(cfg PathsConfig) *Paths {
	resolve := func(current, configured string) string {
		if configured == "" {
			return current
		}
		if filepath.IsAbs(configured) {
			return filepath.Clean(configured)
		}
		return filepath.Join(p.ExecutableDir, configured)
	}

	p.DataDir = resolve(p.DataDir, cfg.DataDir)
	p.ExportsDir = resolve(p.ExportsDir, cfg.ExportsDir)
	p.ScreenshotsDir = resolve(p.ScreenshotsDir, cfg.ScreenshotsDir)
	p.LogsDir = resolve(p.LogsDir, cfg.LogsDir)
	return p
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ExportsDir,
		p.ScreenshotsDir,
		p.LogsDir,
	}

	logger := slog.Default()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetExportPath returns the path for an exported file
func (p *Paths) GetExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// GetScreenshotPath returns the path for a page capture
func (p *Paths) GetScreenshotPath(filename string) string {
	return filepath.Join(p.ScreenshotsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetRelativePath returns a path relative to the executable directory
func (p *Paths) GetRelativePath(subpath string) string {
	return filepath.Join(p.ExecutableDir, subpath)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved directory layout
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("exports", p.ExportsDir),
			slog.String("screenshots", p.ScreenshotsDir),
			slog.String("logs", p.LogsDir),
		))
}
