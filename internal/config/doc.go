// Package config provides centralized configuration management for pricepulse.
// It loads configuration from multiple sources, validates it, and exposes the
// executable-relative directory layout used by exporters and the logger.
//
// # Configuration Sources
//
// Sources are applied in increasing order of precedence:
//
//	1. Default values
//	2. A YAML file (PRICEPULSE_CONFIG, config.yaml or configs/config.yaml)
//	3. Environment variables, including any loaded from .env
//
// # Environment Variables
//
// Variables use the PRICEPULSE prefix followed by the section and field:
//
//	PRICEPULSE_SERVER_PORT=8080
//	PRICEPULSE_ANALYSIS_WINDOW_DAYS=1095
//	PRICEPULSE_ANALYSIS_LOCATION=UTC
//	PRICEPULSE_SCRAPER_HEADLESS=false
//	PRICEPULSE_SCHEDULE_SPEC="0 0 */6 * * *"
//
// # Path Management
//
// Paths are always resolved against the executable directory:
//
//	paths, _ := config.GetPaths()
//	csvPath := paths.GetExportPath("Chroma_3_Case_price_data.csv")
package config
