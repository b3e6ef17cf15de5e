package pricehistory

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// MillisecondThreshold is the magnitude above which a numeric timestamp is
	// read as milliseconds. 1e10 seconds is in the year 2286.
	MillisecondThreshold = 10_000_000_000

	// MinTimestamp and MaxTimestamp bound the representable instants:
	// 0001-01-01 00:00:00 UTC through 9999-12-31 23:59:59 UTC.
	MinTimestamp = -62_135_596_800
	MaxTimestamp = 253_402_300_799

	// TimestampLayout is the only accepted text timestamp format, e.g.
	// "Mar 18 2014 01". Hour granularity; day may be one or two digits.
	TimestampLayout = "Jan _2 2006 15"

	// MinPoints is the minimum number of raw records, and of normalized
	// points, needed for a run.
	MinPoints = 2
)

// offsetArtifacts are the timezone-offset suffixes the listing page appends
// to text timestamps ("Mar 18 2014 01: +0"). No other offset is understood.
var offsetArtifacts = []string{": +0", ": -0"}

var currencySymbols = strings.NewReplacer("$", "", "€", "", "£", "")

// ResolveTimestamp converts a raw timestamp to seconds since the epoch.
func ResolveTimestamp(v RawValue, loc *time.Location) (float64, error) {
	switch v.Kind {
	case KindNumber:
		ts := v.Number
		if math.IsNaN(ts) || math.IsInf(ts, 0) {
			return 0, errNonFinite
		}
		if math.Abs(ts) > MillisecondThreshold {
			ts /= 1000
		}
		return checkRange(ts)

	case KindText:
		text := v.Text
		for _, suffix := range offsetArtifacts {
			if strings.HasSuffix(text, suffix) {
				text = strings.TrimSuffix(text, suffix)
				break
			}
		}
		if loc == nil {
			loc = time.Local
		}
		t, err := time.ParseInLocation(TimestampLayout, text, loc)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", errTimestampFormat, err)
		}
		return checkRange(float64(t.Unix()))

	default:
		return 0, errUnsupportedKind
	}
}

func checkRange(ts float64) (float64, error) {
	if ts < MinTimestamp || ts > MaxTimestamp {
		return 0, errTimestampRange
	}
	return ts, nil
}

// ResolvePrice converts a raw price to a float. Text prices may carry a $, €
// or £ symbol and use a comma as the decimal separator.
func ResolvePrice(v RawValue) (float64, error) {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
			return 0, errNonFinite
		}
		return v.Number, nil

	case KindText:
		cleaned := currencySymbols.Replace(v.Text)
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
		cleaned = strings.TrimSpace(cleaned)
		price, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errPriceNotParseable, v.Text)
		}
		if math.IsNaN(price) || math.IsInf(price, 0) {
			return 0, errNonFinite
		}
		return price, nil

	default:
		return 0, errUnsupportedKind
	}
}

// Normalize resolves every raw record into a Point, in input order. Records
// that cannot be resolved are skipped and returned as ParseErrors. The error
// is non-nil only for an InsufficientDataError.
func Normalize(raw []RawPoint, loc *time.Location, logger *slog.Logger) (Series, []*ParseError, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(raw) < MinPoints {
		logger.Error("not enough raw price points to analyze",
			slog.Int("raw_points", len(raw)),
			slog.Int("required", MinPoints))
		return nil, nil, &InsufficientDataError{RawPoints: len(raw), Required: MinPoints}
	}

	series := make(Series, 0, len(raw))
	var skipped []*ParseError

	for i, rp := range raw {
		ts, err := ResolveTimestamp(rp.Timestamp, loc)
		if err != nil {
			skipped = append(skipped, skip(logger, i, FieldTimestamp, rp.Timestamp, err))
			continue
		}
		price, err := ResolvePrice(rp.Price)
		if err != nil {
			skipped = append(skipped, skip(logger, i, FieldPrice, rp.Price, err))
			continue
		}
		series = append(series, NewPoint(ts, price, loc))
	}

	logger.Info("normalized price points",
		slog.Int("raw_points", len(raw)),
		slog.Int("valid_points", len(series)),
		slog.Int("skipped", len(skipped)))

	if len(series) < MinPoints {
		logger.Error("not enough valid price points after normalization",
			slog.Int("valid_points", len(series)),
			slog.Int("required", MinPoints))
		return nil, skipped, &InsufficientDataError{
			RawPoints:   len(raw),
			ValidPoints: len(series),
			Required:    MinPoints,
		}
	}

	return series, skipped, nil
}

func skip(logger *slog.Logger, index int, field string, value RawValue, err error) *ParseError {
	pe := &ParseError{Index: index, Field: field, Value: value, Err: err}
	logger.Warn("skipping unparseable price point",
		slog.Int("index", index),
		slog.String("field", field),
		slog.String("value", value.String()),
		slog.String("error", err.Error()))
	return pe
}
