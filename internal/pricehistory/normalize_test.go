package pricehistory

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveTimestamp(t *testing.T) {
	utc := time.UTC

	tests := []struct {
		name    string
		value   RawValue
		want    float64
		wantErr error
	}{
		{
			name:  "seconds",
			value: NumberValue(1_700_000_000),
			want:  1_700_000_000,
		},
		{
			name:  "milliseconds scaled down",
			value: NumberValue(1_700_000_000_000),
			want:  1_700_000_000,
		},
		{
			name:  "threshold itself is seconds",
			value: NumberValue(MillisecondThreshold),
			want:  MillisecondThreshold,
		},
		{
			name:  "fractional seconds kept",
			value: NumberValue(1_700_000_000.5),
			want:  1_700_000_000.5,
		},
		{
			name:  "text with positive offset artifact",
			value: TextValue("Mar 18 2014 01: +0"),
			want:  float64(time.Date(2014, time.March, 18, 1, 0, 0, 0, utc).Unix()),
		},
		{
			name:  "text with negative offset artifact",
			value: TextValue("Dec 01 2020 23: -0"),
			want:  float64(time.Date(2020, time.December, 1, 23, 0, 0, 0, utc).Unix()),
		},
		{
			name:  "text without artifact",
			value: TextValue("Jan 05 2019 12"),
			want:  float64(time.Date(2019, time.January, 5, 12, 0, 0, 0, utc).Unix()),
		},
		{
			name:  "single digit day",
			value: TextValue("Jan 5 2019 12"),
			want:  float64(time.Date(2019, time.January, 5, 12, 0, 0, 0, utc).Unix()),
		},
		{
			name:    "other offset is rejected",
			value:   TextValue("Mar 18 2014 01: +3"),
			wantErr: errTimestampFormat,
		},
		{
			name:    "iso format is rejected",
			value:   TextValue("2014-03-18T01:00:00Z"),
			wantErr: errTimestampFormat,
		},
		{
			name:    "minutes are rejected",
			value:   TextValue("Mar 18 2014 01:30"),
			wantErr: errTimestampFormat,
		},
		{
			name:    "garbage text",
			value:   TextValue("bad"),
			wantErr: errTimestampFormat,
		},
		{
			name:    "invalid kind",
			value:   RawValue{},
			wantErr: errUnsupportedKind,
		},
		{
			name:    "nan",
			value:   NumberValue(math.NaN()),
			wantErr: errNonFinite,
		},
		{
			name:    "infinity",
			value:   NumberValue(math.Inf(1)),
			wantErr: errNonFinite,
		},
		{
			name:  "epoch",
			value: NumberValue(0),
			want:  0,
		},
		{
			name:  "latest representable instant in milliseconds",
			value: NumberValue(MaxTimestamp * 1000),
			want:  MaxTimestamp,
		},
		{
			name:    "far future is rejected",
			value:   NumberValue(1e300),
			wantErr: errTimestampRange,
		},
		{
			name:    "far past is rejected",
			value:   NumberValue(-1e300),
			wantErr: errTimestampRange,
		},
		{
			name:    "year zero text is rejected",
			value:   TextValue("Jan 01 0000 00"),
			wantErr: errTimestampRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTimestamp(tt.value, utc)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveTimestamp_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)

	got, err := ResolveTimestamp(TextValue("Mar 18 2014 01: +0"), loc)
	require.NoError(t, err)

	want := time.Date(2014, time.March, 18, 1, 0, 0, 0, loc).Unix()
	assert.Equal(t, float64(want), got)
}

func TestResolvePrice(t *testing.T) {
	tests := []struct {
		name    string
		value   RawValue
		want    float64
		wantErr error
	}{
		{name: "number", value: NumberValue(12.5), want: 12.5},
		{name: "plain text", value: TextValue("10.00"), want: 10},
		{name: "dollar with comma decimal", value: TextValue("$12,50"), want: 12.5},
		{name: "euro", value: TextValue("€3,99"), want: 3.99},
		{name: "pound", value: TextValue("£7.25"), want: 7.25},
		{name: "surrounding space", value: TextValue(" 4.10 "), want: 4.1},
		{name: "negative", value: TextValue("-1.5"), want: -1.5},
		{name: "thousands separator rejected", value: TextValue("1,234.56"), wantErr: errPriceNotParseable},
		{name: "word rejected", value: TextValue("oops"), wantErr: errPriceNotParseable},
		{name: "empty rejected", value: TextValue(""), wantErr: errPriceNotParseable},
		{name: "other currency rejected", value: TextValue("¥100"), wantErr: errPriceNotParseable},
		{name: "nan text rejected", value: TextValue("NaN"), wantErr: errNonFinite},
		{name: "invalid kind", value: RawValue{}, wantErr: errUnsupportedKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePrice(tt.value)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("resolves mixed records in input order", func(t *testing.T) {
		raw := []RawPoint{
			Raw(1_700_003_600, "$12,50"),
			Raw(1_700_000_000_000, 10.0),
			Raw("Mar 18 2014 01: +0", "£1,00"),
		}

		series, skipped, err := Normalize(raw, time.UTC, discardLogger())
		require.NoError(t, err)
		assert.Empty(t, skipped)
		require.Len(t, series, 3)

		assert.Equal(t, 1_700_003_600.0, series[0].Timestamp)
		assert.Equal(t, 12.5, series[0].Price)
		assert.Equal(t, 1_700_000_000.0, series[1].Timestamp)
		assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), series[1].Date)
		assert.Equal(t, time.Date(2014, time.March, 18, 1, 0, 0, 0, time.UTC), series[2].Date)
	})

	t.Run("skips bad records and reports them", func(t *testing.T) {
		raw := []RawPoint{
			Raw(1_700_000_000, "10.00"),
			Raw("bad", "oops"),
			Raw(1_700_000_060, "oops"),
			Raw(nil, 5),
			Raw(1_700_000_120, "11.00"),
		}

		series, skipped, err := Normalize(raw, time.UTC, discardLogger())
		require.NoError(t, err)
		assert.Len(t, series, 2)
		require.Len(t, skipped, 3)

		assert.Equal(t, 1, skipped[0].Index)
		assert.Equal(t, FieldTimestamp, skipped[0].Field)
		assert.Equal(t, 2, skipped[1].Index)
		assert.Equal(t, FieldPrice, skipped[1].Field)
		assert.Equal(t, 3, skipped[2].Index)
		assert.ErrorIs(t, skipped[2], errUnsupportedKind)
	})

	t.Run("too few raw records", func(t *testing.T) {
		for _, raw := range [][]RawPoint{nil, {Raw(1_700_000_000, "1.00")}} {
			_, _, err := Normalize(raw, time.UTC, discardLogger())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInsufficientData)

			var ide *InsufficientDataError
			require.ErrorAs(t, err, &ide)
			assert.Equal(t, len(raw), ide.RawPoints)
			assert.Equal(t, MinPoints, ide.Required)
		}
	})

	t.Run("all records skipped", func(t *testing.T) {
		raw := []RawPoint{Raw("x", "y"), Raw("z", "w")}

		_, skipped, err := Normalize(raw, time.UTC, discardLogger())
		assert.ErrorIs(t, err, ErrInsufficientData)
		assert.Len(t, skipped, 2)
	})

	t.Run("skips unrepresentable instants", func(t *testing.T) {
		raw := []RawPoint{
			Raw(1_700_000_000, "10.00"),
			Raw(1e300, "11.00"),
			Raw(1_700_000_060, "12.00"),
		}

		series, skipped, err := Normalize(raw, time.UTC, discardLogger())
		require.NoError(t, err)
		assert.Len(t, series, 2)
		require.Len(t, skipped, 1)
		assert.Equal(t, 1, skipped[0].Index)
		assert.Equal(t, FieldTimestamp, skipped[0].Field)
		assert.ErrorIs(t, skipped[0], errTimestampRange)
	})

	t.Run("does not modify input", func(t *testing.T) {
		raw := []RawPoint{Raw(1_700_000_000_000, "$1,00"), Raw(1_700_000_060, "2")}
		before := append([]RawPoint(nil), raw...)

		_, _, err := Normalize(raw, time.UTC, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, before, raw)
	})
}

func TestNormalize_SingleValidRecord(t *testing.T) {
	raw := []RawPoint{Raw("bad", "oops"), Raw(1_700_000_000, "10.00")}

	series, skipped, err := Normalize(raw, time.UTC, discardLogger())
	assert.Nil(t, series)
	assert.Len(t, skipped, 1)

	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 2, ide.RawPoints)
	assert.Equal(t, 1, ide.ValidPoints)
	assert.Contains(t, err.Error(), "1 valid")
}
