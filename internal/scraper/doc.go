// Package scraper acquires raw price histories for analysis.
//
// A Source returns a Listing: the item name plus the untouched
// [timestamp, price] records. BrowserSource drives headless Chrome with
// chromedp against a market listing page; FileSource reads a history saved as
// JSON.
//
// Values that can be found in more than one place on a page are read through
// an ordered chain of Strategy values. Resolve tries them in order and the
// first one that yields a value wins:
//
//	item name:  class → xpath → url → configured default
//	price data: line1 JS variable → scan of inline <script> bodies
package scraper
