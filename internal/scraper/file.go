package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "pricepulse/internal/errors"
)

// savedListing is the on-disk form of a listing.
type savedListing struct {
	ItemName  string          `json:"item_name"`
	URL       string          `json:"url,omitempty"`
	PriceData json.RawMessage `json:"price_data"`
}

// FileSource reads a price history saved as JSON. The file holds either a
// bare array of records or an object with item_name and price_data.
type FileSource struct {
	path     string
	itemName string
	logger   *slog.Logger
}

// NewFileSource creates a file source. itemName overrides any name stored in
// the file; when both are empty the name is derived from the file name.
func NewFileSource(path, itemName string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:     path,
		itemName: itemName,
		logger:   logger.With(slog.String("component", "file_source")),
	}
}

// Fetch reads and decodes the file.
func (f *FileSource) Fetch(ctx context.Context) (*Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("price data file %s", f.path))
		}
		return nil, apperrors.NewStorageError("read price data file", err).WithContext("path", f.path)
	}

	listing, err := decodeListing(data)
	if err != nil {
		return nil, apperrors.NewParsingError("decode price data file", err).WithContext("path", f.path)
	}

	nameStrategy := "file"
	switch {
	case f.itemName != "":
		listing.ItemName, nameStrategy = f.itemName, "override"
	case listing.ItemName == "":
		listing.ItemName, nameStrategy = itemNameFromPath(f.path), "file_name"
	}

	listing.Source = "file"
	listing.FetchedAt = time.Now()
	listing.Strategies = map[string]string{"item_name": nameStrategy, "price_data": "file"}

	f.logger.InfoContext(ctx, "loaded price history from file",
		slog.String("path", f.path),
		slog.String("item", listing.ItemName),
		slog.Int("points", len(listing.Points)))

	return listing, nil
}

func decodeListing(data []byte) (*Listing, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var saved savedListing
		if err := json.Unmarshal(trimmed, &saved); err != nil {
			return nil, err
		}
		points, err := ParsePriceData(saved.PriceData)
		if err != nil {
			return nil, err
		}
		return &Listing{ItemName: strings.TrimSpace(saved.ItemName), URL: saved.URL, Points: points}, nil
	}

	points, err := ParsePriceData(trimmed)
	if err != nil {
		return nil, err
	}
	return &Listing{Points: points}, nil
}

// itemNameFromPath turns "Chroma_3_Case_price_data.json" into "Chroma 3 Case".
func itemNameFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = strings.TrimSuffix(base, "_price_data")
	return strings.ReplaceAll(base, "_", " ")
}

