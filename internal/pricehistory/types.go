package pricehistory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ValueKind tags which variant of a RawValue is populated.
type ValueKind int

const (
	// KindInvalid marks a value that is neither a number nor text (null, bool,
	// object, array, or a missing element).
	KindInvalid ValueKind = iota
	KindNumber
	KindText
)

// String returns the kind name used in logs and diagnostics
func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "invalid"
	}
}

// RawValue is one field of a raw record as delivered by the source: either a
// number or a text value. The zero value is KindInvalid.
type RawValue struct {
	Kind   ValueKind
	Number float64
	Text   string
}

// NumberValue returns a numeric RawValue
func NumberValue(f float64) RawValue {
	return RawValue{Kind: KindNumber, Number: f}
}

// TextValue returns a text RawValue
func TextValue(s string) RawValue {
	return RawValue{Kind: KindText, Text: s}
}

// String renders the value for diagnostics
func (v RawValue) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindText:
		return strconv.Quote(v.Text)
	default:
		return "<invalid>"
	}
}

// UnmarshalJSON decodes a JSON number or string. Any other JSON value decodes
// to KindInvalid without error so that one bad field never aborts decoding of
// the whole series.
func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = RawValue{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode text value: %w", err)
		}
		*v = TextValue(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			// Out-of-range literals are kept as text so the normalizer can
			// report them like any other unparseable field.
			*v = TextValue(string(data))
			return nil
		}
		*v = NumberValue(f)
	default:
		*v = RawValue{}
	}
	return nil
}

// MarshalJSON encodes the populated variant; KindInvalid encodes as null.
func (v RawValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Number)
	case KindText:
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}

// RawPoint is an untrusted (timestamp, price) pair.
type RawPoint struct {
	Timestamp RawValue
	Price     RawValue
}

// Raw builds a RawPoint from Go values: numeric kinds become KindNumber,
// strings become KindText and anything else KindInvalid.
func Raw(timestamp, price any) RawPoint {
	return RawPoint{Timestamp: rawValueOf(timestamp), Price: rawValueOf(price)}
}

func rawValueOf(x any) RawValue {
	switch t := x.(type) {
	case float64:
		return NumberValue(t)
	case float32:
		return NumberValue(float64(t))
	case int:
		return NumberValue(float64(t))
	case int64:
		return NumberValue(float64(t))
	case string:
		return TextValue(t)
	case RawValue:
		return t
	default:
		return RawValue{}
	}
}

// UnmarshalJSON decodes a JSON array record. Records with fewer than two
// elements leave the missing fields KindInvalid; elements past the second
// (the listing page appends a volume string) are ignored.
func (p *RawPoint) UnmarshalJSON(data []byte) error {
	var fields []RawValue
	if err := json.Unmarshal(data, &fields); err != nil {
		// Not an array: keep an all-invalid record rather than failing the series.
		*p = RawPoint{}
		return nil
	}

	*p = RawPoint{}
	if len(fields) > 0 {
		p.Timestamp = fields[0]
	}
	if len(fields) > 1 {
		p.Price = fields[1]
	}
	return nil
}

// MarshalJSON encodes the record as a two element array.
func (p RawPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]RawValue{p.Timestamp, p.Price})
}

// Point is a validated price sample. Date is derived from Timestamp and is
// only ever set through NewPoint.
type Point struct {
	Timestamp float64   // seconds since the Unix epoch
	Price     float64
	Date      time.Time
}

// NewPoint builds a Point whose Date is the instant of timestamp in loc.
func NewPoint(timestamp, price float64, loc *time.Location) Point {
	if loc == nil {
		loc = time.Local
	}
	return Point{
		Timestamp: timestamp,
		Price:     price,
		Date:      dateOf(timestamp).In(loc),
	}
}

func dateOf(seconds float64) time.Time {
	whole := int64(seconds)
	frac := seconds - float64(whole)
	return time.Unix(whole, int64(frac*float64(time.Second)))
}

// Series is an ordered sequence of points. Stages never modify a Series they
// receive; they return a new one.
type Series []Point

// Clone returns a copy that shares no backing array with s.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// IsChronological reports whether the series is non-decreasing by Date.
func (s Series) IsChronological() bool {
	for i := 1; i < len(s); i++ {
		if s[i].Date.Before(s[i-1].Date) {
			return false
		}
	}
	return true
}

// WindowedSeries is a sorted series restricted to Date >= Cutoff. When the
// cutoff would have removed every point, Series is the unfiltered input and
// UsedFallback is true.
type WindowedSeries struct {
	Series       Series
	Cutoff       time.Time
	UsedFallback bool
}

// Statistics describes the sampling density of a windowed series.
type Statistics struct {
	StartDate     time.Time
	EndDate       time.Time
	TotalPoints   int
	AvgGapMinutes float64
	MinGapMinutes float64
	MaxGapMinutes float64
	// NoGapsAvailable is set when the series has a single point; the gap
	// fields are then zero by definition rather than by measurement.
	NoGapsAvailable bool
	Series          Series
}

// Report is the outcome of one Analyzer run.
type Report struct {
	Statistics   Statistics
	RawPoints    int
	Normalized   int
	Skipped      []*ParseError
	Cutoff       time.Time
	Window       time.Duration
	UsedFallback bool
}

// SkippedCount returns the number of raw records dropped during normalization
func (r *Report) SkippedCount() int {
	return len(r.Skipped)
}
