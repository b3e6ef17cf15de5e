package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// ListingHTML is a trimmed market listing page: the item name span, the
// for-sale table the scraper waits on, and the inline script that defines
// line1 with one text-timestamp record per row.
const ListingHTML = `<!DOCTYPE html>
<html>
<head><title>Steam Community Market :: Listings for Chroma 3 Case</title></head>
<body>
<div id="largeiteminfo">
  <span class="market_listing_item_name">Chroma 3 Case</span>
</div>
<div id="market_commodity_forsale_table">
  <table><tr><td>0.85</td><td>1204</td></tr></table>
</div>
<script type="text/javascript">
	var line1=[["Mar 18 2014 01: +0",1.234,"1,204"],["Mar 18 2014 02: +0",1.18,"980"],["Mar 19 2014 01: +0",1.1,"1,002"]];
	var g_timePriceHistoryEarliest = new Date();
</script>
</body>
</html>`

// PriceDataJSON is a mixed-encoding price history as delivered by the
// listing page or saved to disk by an earlier run.
const PriceDataJSON = `[
	[1700000000, "10.00"],
	[1700003600000, "$12,50"],
	["Nov 15 2023 02: +0", 11.75, "12"],
	["not a date", "1.00"],
	[1700010800, "€13,25"]
]`

// ListingJSON wraps PriceDataJSON the way a saved listing is stored.
const ListingJSON = `{
	"item_name": "Chroma 3 Case",
	"url": "https://steamcommunity.com/market/listings/730/Chroma%203%20Case",
	"price_data": ` + PriceDataJSON + `
}`

// WriteFile writes content under a fresh temp dir and returns its path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
