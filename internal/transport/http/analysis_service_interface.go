package http

import (
	"context"

	"pricepulse/internal/pricehistory"
	"pricepulse/internal/services"
)

// AnalysisServiceInterface defines the analysis operations the API exposes
type AnalysisServiceInterface interface {
	AnalyzePoints(ctx context.Context, itemName string, raw []pricehistory.RawPoint, opts services.RunOptions) (*services.AnalysisResult, error)
	AnalyzeListing(ctx context.Context, listingURL, itemName string, opts services.RunOptions) (*services.AnalysisResult, error)
	Last() (*services.AnalysisResult, error)
}
