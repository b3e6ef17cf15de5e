package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricepulse/internal/pricehistory"
	"pricepulse/internal/shared/testutil"
)

func TestParsePriceData(t *testing.T) {
	points, err := ParsePriceData([]byte(testutil.PriceDataJSON))
	require.NoError(t, err)
	require.Len(t, points, 5)

	assert.Equal(t, pricehistory.Raw(1_700_000_000, "10.00"), points[0])
	assert.Equal(t, pricehistory.Raw("Nov 15 2023 02: +0", 11.75), points[2])

	_, err = ParsePriceData([]byte(`{"price_data": []}`))
	assert.Error(t, err)

	_, err = ParsePriceData([]byte(`[]`))
	assert.ErrorIs(t, err, ErrNoPriceData)

	_, err = ParsePriceData([]byte(`null`))
	assert.ErrorIs(t, err, ErrNoPriceData)
}

func TestExtractLine1(t *testing.T) {
	literal, ok := ExtractLine1(testutil.ListingHTML)
	require.True(t, ok)
	assert.Equal(t, `[["Mar 18 2014 01: +0",1.234,"1,204"],["Mar 18 2014 02: +0",1.18,"980"],["Mar 19 2014 01: +0",1.1,"1,002"]]`, literal)

	multiline := "var line1=[\n[1,\"2\"],\n[3,\"4\"]\n];"
	literal, ok = ExtractLine1(multiline)
	require.True(t, ok)
	assert.Equal(t, "[\n[1,\"2\"],\n[3,\"4\"]\n]", literal)

	_, ok = ExtractLine1(`var line2=[[1,2]];`)
	assert.False(t, ok)

	_, ok = ExtractLine1(`var line1=[[1,2]]`)
	assert.False(t, ok, "assignment must be terminated")
}

func TestItemNameFromURL(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{DefaultListingURL, "Chroma 3 Case", true},
		{"https://steamcommunity.com/market/listings/730/AK-47%20%7C%20Redline%20%28Field-Tested%29", "AK-47 | Redline (Field-Tested)", true},
		{"https://steamcommunity.com/market/listings/730/Sticker%3A%20Team%20Liquid", "Sticker: Team Liquid", true},
		{"https://steamcommunity.com/market/listings/730/Chroma%203%20Case/", "Chroma 3 Case", true},
		{"https://steamcommunity.com/", "", false},
		{"://bad", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := ItemNameFromURL(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
