package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Scraper   ScraperConfig   `yaml:"scraper" envconfig:"SCRAPER"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Schedule  ScheduleConfig  `yaml:"schedule" envconfig:"SCHEDULE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// FetchTimeout bounds requests that drive the browser.
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig overrides the executable-relative directories. Relative values
// are resolved against the executable directory; empty keeps the default.
type PathsConfig struct {
	DataDir        string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ExportsDir     string `yaml:"exports_dir" envconfig:"EXPORTS_DIR"`
	ScreenshotsDir string `yaml:"screenshots_dir" envconfig:"SCREENSHOTS_DIR"`
	LogsDir        string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// AnalysisConfig controls the trailing window and the time zone dates are
// resolved in.
type AnalysisConfig struct {
	WindowDays int    `yaml:"window_days" envconfig:"WINDOW_DAYS"`
	Location   string `yaml:"location" envconfig:"LOCATION"`
}

// Window returns WindowDays as fixed 24-hour days.
func (a AnalysisConfig) Window() time.Duration {
	return time.Duration(a.WindowDays) * 24 * time.Hour
}

// LoadLocation resolves Location; "" and "Local" mean the host zone.
func (a AnalysisConfig) LoadLocation() (*time.Location, error) {
	if a.Location == "" || a.Location == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(a.Location)
}

// ScraperConfig configures the browser source.
type ScraperConfig struct {
	URL             string        `yaml:"url" envconfig:"URL"`
	DefaultItemName string        `yaml:"default_item_name" envconfig:"DEFAULT_ITEM_NAME"`
	Headless        bool          `yaml:"headless" envconfig:"HEADLESS"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	ReadyTimeout    time.Duration `yaml:"ready_timeout" envconfig:"READY_TIMEOUT"`
	UserAgent       string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	Screenshot      bool          `yaml:"screenshot" envconfig:"SCREENSHOT"`
}

// ExportConfig selects which projections are written after an analysis.
type ExportConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED"`
	Excel   bool `yaml:"excel" envconfig:"EXCEL"`
	JSON    bool `yaml:"json" envconfig:"JSON"`
}

// ScheduleConfig drives periodic re-analysis in watch mode.
type ScheduleConfig struct {
	Enabled    bool   `yaml:"enabled" envconfig:"ENABLED"`
	Spec       string `yaml:"spec" envconfig:"SPEC"`
	RunOnStart bool   `yaml:"run_on_start" envconfig:"RUN_ON_START"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracingEnabled bool    `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	SampleRate     float64 `yaml:"sample_rate" envconfig:"SAMPLE_RATE"`
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. A .env file in the working
// directory (or PRICEPULSE_ENV_FILE) is loaded first without overriding
// variables that are already set.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, NewLoadError("read env file", err)
	}

	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := mergeFile(cfg, configFile); err != nil {
			return nil, NewLoadError("load config from file", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, NewLoadError("load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, NewLoadError("config validation failed", err)
	}

	return cfg, nil
}

// LoadFile loads defaults overlaid with a single YAML file, ignoring the
// environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := mergeFile(cfg, path); err != nil {
		return nil, NewLoadError("load config from file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewLoadError("config validation failed", err)
	}
	return cfg, nil
}

func loadDotEnv() error {
	path := os.Getenv(EnvPrefix + "_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// mergeFile decodes YAML onto cfg. Keys absent from the file keep their
// current value.
func mergeFile(cfg *Config, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// Validate checks ranges and normalizes logging settings.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit needs positive rps and burst")
	}

	if c.Analysis.WindowDays <= 0 {
		return fmt.Errorf("analysis window must be at least one day, got %d", c.Analysis.WindowDays)
	}
	if _, err := c.Analysis.LoadLocation(); err != nil {
		return fmt.Errorf("analysis location: %w", err)
	}

	if c.Scraper.URL != "" {
		u, err := url.Parse(c.Scraper.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("scraper url must be absolute: %q", c.Scraper.URL)
		}
	}
	if c.Scraper.Timeout <= 0 || c.Scraper.ReadyTimeout <= 0 {
		return fmt.Errorf("scraper timeouts must be positive")
	}

	if c.Schedule.Enabled && strings.TrimSpace(c.Schedule.Spec) == "" {
		return fmt.Errorf("schedule enabled without a cron spec")
	}

	switch c.Telemetry.TraceExporter {
	case "", "none", "stdout":
	default:
		return fmt.Errorf("unknown trace exporter %q", c.Telemetry.TraceExporter)
	}

	// Logs are always JSON; output is stdout plus file unless file-only.
	c.Logging.Format = "json"
	if c.Logging.Output != "both" && c.Logging.Output != "file" {
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns PRICEPULSE_CONFIG or the first config.yaml
// found in the usual locations.
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			FetchTimeout:    75 * time.Second,
			MaxBodyBytes:    8 << 20,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   "json",
			Output:   "both",
			FilePath: DefaultLogFile,
		},
		Analysis: AnalysisConfig{
			WindowDays: DefaultWindowDays,
			Location:   "Local",
		},
		Scraper: ScraperConfig{
			URL:             DefaultListingURL,
			DefaultItemName: DefaultItemName,
			Headless:        true,
			Timeout:         DefaultScraperTimeout,
			ReadyTimeout:    DefaultReadyTimeout,
			UserAgent:       DefaultUserAgent,
			Screenshot:      false,
		},
		Export: ExportConfig{
			Enabled: true,
			Excel:   false,
			JSON:    true,
		},
		Schedule: ScheduleConfig{
			Spec: DefaultScheduleSpec,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			Environment:    "development",
			TracingEnabled: false,
			TraceExporter:  "none",
			SampleRate:     1.0,
			MetricsEnabled: true,
		},
	}
}

// LoadError wraps any failure to assemble the configuration.
type LoadError struct {
	Op  string
	Err error
}

// NewLoadError creates a LoadError
func NewLoadError(op string, err error) *LoadError {
	return &LoadError{Op: op, Err: err}
}

func (e *LoadError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *LoadError) Unwrap() error { return e.Err }
