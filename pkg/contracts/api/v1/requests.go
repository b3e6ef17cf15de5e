// Package api contains the HTTP contract of the pricepulse API.
// Version v1 represents the current stable API version.
package api

import "encoding/json"

// AnalyzeRequest submits a raw price history for analysis.
type AnalyzeRequest struct {
	ItemName string `json:"item_name" validate:"omitempty,max=255,filename"`
	// Points is a JSON array of [timestamp, price, ...] records. Records are
	// validated individually by the analyzer; malformed ones are skipped.
	Points     json.RawMessage `json:"points" validate:"required"`
	WindowDays int             `json:"window_days,omitempty" validate:"omitempty,gte=1,lte=36500"`

	// Export overrides the server's export setting when present
	Export *bool `json:"export,omitempty"`
}

// ListingAnalyzeRequest asks the server to fetch a market listing in a
// headless browser and analyze its price history.
type ListingAnalyzeRequest struct {
	URL        string `json:"url" validate:"required,listingurl"`
	ItemName   string `json:"item_name,omitempty" validate:"omitempty,max=255,filename"`
	WindowDays int    `json:"window_days,omitempty" validate:"omitempty,gte=1,lte=36500"`
	Export     *bool  `json:"export,omitempty"`
}
