package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"pricepulse/internal/pricehistory"
)

// DefaultListingURL is the listing the CLI falls back to when none is given.
const DefaultListingURL = "https://steamcommunity.com/market/listings/730/Chroma%203%20Case"

// DefaultItemName is used when no strategy can name the item.
const DefaultItemName = "Chroma 3 Case"

var (
	// ErrNoPriceData is returned when a page or file carries no price history.
	ErrNoPriceData = errors.New("no price history found")

	line1Pattern = regexp.MustCompile(`(?s)var line1=(\[.*?\]);`)
)

// Listing is one acquired price history.
type Listing struct {
	ItemName  string
	URL       string
	Points    []pricehistory.RawPoint
	Source    string // "browser" or "file"
	FetchedAt time.Time
	// Strategies records which extraction strategy produced each field.
	Strategies map[string]string
}

// Source acquires a listing.
type Source interface {
	Fetch(ctx context.Context) (*Listing, error)
}

// ParsePriceData decodes a JSON array of [timestamp, price, ...] records.
// Individual malformed records are kept as invalid values for the analyzer
// to skip; only a payload that is not a JSON array fails.
func ParsePriceData(data []byte) ([]pricehistory.RawPoint, error) {
	var points []pricehistory.RawPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("decode price data: %w", err)
	}
	if len(points) == 0 {
		return nil, ErrNoPriceData
	}
	return points, nil
}

// ExtractLine1 finds the `var line1=[...];` assignment in a script body and
// returns the array literal.
func ExtractLine1(script string) (string, bool) {
	if !strings.Contains(script, "var line1=") {
		return "", false
	}
	m := line1Pattern.FindStringSubmatch(script)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ItemNameFromURL derives the item name from the last path segment of a
// listing URL, e.g. ".../730/Chroma%203%20Case" gives "Chroma 3 Case".
func ItemNameFromURL(listingURL string) (string, bool) {
	u, err := url.Parse(listingURL)
	if err != nil {
		return "", false
	}

	segment := path.Base(u.EscapedPath())
	if segment == "." || segment == "/" || segment == "" {
		return "", false
	}

	name, err := url.PathUnescape(segment)
	if err != nil {
		name = strings.NewReplacer("%20", " ", "%3A", ":").Replace(segment)
	}
	name = strings.TrimSpace(name)
	return name, name != ""
}
