package chart

import (
	"fmt"
	"strings"
	"time"

	"pricepulse/internal/exporter"
	"pricepulse/internal/pricehistory"
)

const (
	// DayLayout renders period bounds and axis labels.
	DayLayout = "2006-01-02"

	XLabel = "Date"
	YLabel = "Price"
)

// Dataset is the line series handed to a rendering collaborator.
type Dataset struct {
	Title  string      `json:"title"`
	XLabel string      `json:"x_label"`
	YLabel string      `json:"y_label"`
	Labels []string    `json:"labels"`
	Dates  []time.Time `json:"dates"`
	Prices []float64   `json:"prices"`
	// Caption is the statistics block printed under the chart.
	Caption string `json:"caption"`

	// ImageFile is the PNG name derived from the item name.
	ImageFile string `json:"image_file"`
}

// NewDataset projects the statistics of a run into a chart dataset.
func NewDataset(itemName string, stats pricehistory.Statistics) Dataset {
	n := len(stats.Series)
	ds := Dataset{
		Title:   Title(itemName, stats),
		XLabel:  XLabel,
		YLabel:  YLabel,
		Labels:  make([]string, n),
		Dates:   make([]time.Time, n),
		Prices:  make([]float64, n),
		Caption: Caption(stats),

		ImageFile: ImageFileName(itemName),
	}
	for i, p := range stats.Series {
		ds.Labels[i] = p.Date.Format(exporter.DateLayout)
		ds.Dates[i] = p.Date
		ds.Prices[i] = p.Price
	}
	return ds
}

// Title names the item and the covered period.
func Title(itemName string, stats pricehistory.Statistics) string {
	return fmt.Sprintf("Price history for %s (%s to %s)",
		itemName,
		stats.StartDate.Format(DayLayout),
		stats.EndDate.Format(DayLayout))
}

// Caption renders the summary statistics as five lines of text with gaps in
// minutes to two decimals.
func Caption(stats pricehistory.Statistics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Data period: %s to %s\n", stats.StartDate.Format(DayLayout), stats.EndDate.Format(DayLayout))
	fmt.Fprintf(&b, "Total data points: %d\n", stats.TotalPoints)
	fmt.Fprintf(&b, "Average gap between points: %.2f minutes\n", stats.AvgGapMinutes)
	fmt.Fprintf(&b, "Minimum gap: %.2f minutes\n", stats.MinGapMinutes)
	fmt.Fprintf(&b, "Maximum gap: %.2f minutes", stats.MaxGapMinutes)
	return b.String()
}

// ImageFileName is the file name a renderer saves the chart under.
func ImageFileName(itemName string) string {
	stem := exporter.SanitizeFileName(itemName)
	if stem == "" {
		stem = exporter.SanitizeFileName(exporter.FallbackInstrument)
	}
	return stem + "_price_history.png"
}
