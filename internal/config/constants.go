package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "pricepulse"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. PRICEPULSE_SERVER_PORT.
	EnvPrefix = "PRICEPULSE"

	// Rate Limiting
	DefaultRateLimit = 5.0 // requests per second
	DefaultBurstSize = 10

	// File Paths (relative to executable)
	DefaultDataDir = "data"
	DefaultLogsDir = "logs"
	DefaultLogFile = "pricepulse.log"

	// Analysis
	DefaultWindowDays = 3 * 365

	// Scraper
	MarketHost            = "steamcommunity.com"
	DefaultListingURL     = "https://steamcommunity.com/market/listings/730/Chroma%203%20Case"
	DefaultItemName       = "Chroma 3 Case"
	DefaultScraperTimeout = 60 * time.Second
	DefaultReadyTimeout   = 30 * time.Second
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// Schedule (six-field cron: seconds first)
	DefaultScheduleSpec = "0 0 */6 * * *"

	// Log Settings
	DefaultLogLevel = "info"
)

// API Endpoints
const (
	APIBasePath            = "/api"
	AnalyzeEndpoint        = "/api/analyze"
	ListingAnalyzeEndpoint = "/api/listings/analyze"
	HealthEndpoint         = "/health"
	ReadinessEndpoint      = "/health/ready"
	LivenessEndpoint       = "/health/live"
	MetricsEndpoint        = "/metrics"
)
