package pricehistory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer(now time.Time) *Analyzer {
	return NewAnalyzer(Options{
		Location: time.UTC,
		Now:      func() time.Time { return now },
	}, discardLogger())
}

func TestNewAnalyzer_Defaults(t *testing.T) {
	a := NewAnalyzer(Options{}, nil)

	assert.Equal(t, DefaultWindow, a.Window())
	assert.Equal(t, time.Local, a.Location())
	assert.NotNil(t, a.opts.Now)
}

func TestAnalyzer_CurrencyTextPrices(t *testing.T) {
	now := time.Unix(1_700_100_000, 0)
	a := newTestAnalyzer(now)

	raw := []RawPoint{Raw(1_700_000_000, "10.00"), Raw(1_700_003_600, "$12,50")}

	report, err := a.Analyze(context.Background(), raw)
	require.NoError(t, err)

	st := report.Statistics
	require.Len(t, st.Series, 2)
	assert.Equal(t, 10.0, st.Series[0].Price)
	assert.Equal(t, 12.5, st.Series[1].Price)
	assert.True(t, st.Series.IsChronological())
	assert.Equal(t, 60.0, st.AvgGapMinutes)
	assert.Equal(t, 60.0, st.MinGapMinutes)
	assert.Equal(t, 60.0, st.MaxGapMinutes)

	assert.Equal(t, 2, report.RawPoints)
	assert.Equal(t, 2, report.Normalized)
	assert.Zero(t, report.SkippedCount())
	assert.False(t, report.UsedFallback)
	assert.Equal(t, now.Add(-DefaultWindow), report.Cutoff)
}

func TestAnalyzer_UnsortedInputWithMilliseconds(t *testing.T) {
	a := newTestAnalyzer(time.Unix(1_700_100_000, 0))

	raw := []RawPoint{
		Raw(1_700_007_200_000, "3"),
		Raw(1_700_000_000, "1"),
		Raw("garbage", "2"),
		Raw(1_700_003_600, "€2,00"),
	}

	report, err := a.Analyze(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, 1, report.SkippedCount())
	assert.Equal(t, 3, report.Statistics.TotalPoints)
	assert.Equal(t, 1_700_007_200.0, report.Statistics.Series[2].Timestamp)
	assert.Equal(t, []float64{1, 2, 3}, []float64{
		report.Statistics.Series[0].Price,
		report.Statistics.Series[1].Price,
		report.Statistics.Series[2].Price,
	})
}

func TestAnalyzer_Window(t *testing.T) {
	day := int64(24 * 60 * 60)
	now := time.Unix(1_700_000_000, 0)

	t.Run("old points are dropped", func(t *testing.T) {
		a := NewAnalyzer(Options{Window: 10 * 24 * time.Hour, Location: time.UTC}, discardLogger())

		raw := []RawPoint{
			Raw(now.Unix()-30*day, "1"),
			Raw(now.Unix()-2*day, "2"),
			Raw(now.Unix()-1*day, "3"),
		}

		report, err := a.AnalyzeAt(context.Background(), raw, now)
		require.NoError(t, err)
		assert.False(t, report.UsedFallback)
		assert.Equal(t, 2, report.Statistics.TotalPoints)
		assert.Equal(t, float64(24*60), report.Statistics.AvgGapMinutes)
	})

	t.Run("single point left in window", func(t *testing.T) {
		a := NewAnalyzer(Options{Window: 10 * 24 * time.Hour, Location: time.UTC}, discardLogger())

		raw := []RawPoint{Raw(now.Unix()-30*day, "1"), Raw(now.Unix()-1*day, "3")}

		report, err := a.AnalyzeAt(context.Background(), raw, now)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Statistics.TotalPoints)
		assert.True(t, report.Statistics.NoGapsAvailable)
		assert.Zero(t, report.Statistics.AvgGapMinutes)
	})

	t.Run("everything older falls back", func(t *testing.T) {
		a := newTestAnalyzer(now)

		raw := []RawPoint{Raw(1_000_000_000, "1"), Raw(1_000_003_600, "2")}

		report, err := a.Analyze(context.Background(), raw)
		require.NoError(t, err)
		assert.True(t, report.UsedFallback)
		assert.Equal(t, 2, report.Statistics.TotalPoints)
		assert.Equal(t, 60.0, report.Statistics.AvgGapMinutes)
	})
}

func TestAnalyzer_Idempotent(t *testing.T) {
	a := newTestAnalyzer(time.Unix(1_700_100_000, 0))
	raw := []RawPoint{
		Raw(1_700_003_600, "2"),
		Raw(1_700_000_000, "1"),
		Raw(1_700_000_000, "1.5"),
	}

	first, err := a.Analyze(context.Background(), raw)
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyzer_SingleValidPointFails(t *testing.T) {
	a := newTestAnalyzer(time.Unix(1_700_100_000, 0))

	report, err := a.Analyze(context.Background(), []RawPoint{Raw("bad", "oops"), Raw(1_700_000_000, "10.00")})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
