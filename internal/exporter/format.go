package exporter

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the detailed row date format.
const DateLayout = "2006-01-02 15:04:05"

// FallbackInstrument labels rows when the item name is empty.
const FallbackInstrument = "Chroma Case"

// maxInstrumentLen is the longest name used verbatim as an instrument label.
const maxInstrumentLen = 15

// formatFloat renders the shortest representation that round-trips
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatPrice formats a price with exactly 2 decimal places
func formatPrice(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatDate renders t in its own location using DateLayout
func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// RoundPrice rounds to 2 decimals on the exact binary value of f, with ties
// to even: 2.675 → 2.67, 10.005 → 10.01, 0.125 → 0.12.
func RoundPrice(f float64) float64 {
	r, err := strconv.ParseFloat(formatPrice(f), 64)
	if err != nil {
		return f
	}
	return r
}

// InstrumentLabel derives the simplified-view instrument name.
func InstrumentLabel(itemName string) string {
	name := strings.TrimSpace(itemName)
	if name == "" {
		return FallbackInstrument
	}
	if len([]rune(name)) > maxInstrumentLen {
		if fields := strings.Fields(name); len(fields) > 0 {
			return fields[0]
		}
	}
	return name
}

var fileNameReplacer = strings.NewReplacer(
	" ", "_", "|", "", ":", "", "\x00", "",
	"/", "_", "\\", "_",
)

// SanitizeFileName turns an item name into a single path element: spaces and
// separators become underscores, '|' and ':' are dropped and ".." never
// survives.
func SanitizeFileName(itemName string) string {
	stem := fileNameReplacer.Replace(itemName)
	for strings.Contains(stem, "..") {
		stem = strings.ReplaceAll(stem, "..", "_")
	}
	if stem == "." {
		return ""
	}
	return stem
}
