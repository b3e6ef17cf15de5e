// Package shared holds code used across the pricepulse packages that does
// not belong to any single layer.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//	- price history fixtures in every encoding the listing page produces
//	- a buffered slog handler with assertions on captured records
//	- WriteFile for fixtures that must exist on disk
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger(t)
//	    path := testutil.WriteFile(t, "listing.json", testutil.ListingJSON)
//	    // ...
//	    testutil.AssertLogContains(t, handler, slog.LevelInfo, "loaded price history from file")
//	}
package shared
