package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	apperrors "pricepulse/internal/errors"
	"pricepulse/internal/pricehistory"
)

const (
	readySelector      = "#market_commodity_forsale_table"
	itemNameClass      = "market_listing_item_name"
	itemNameXPath      = "//span[contains(@class, 'market_listing_item_name')]"
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	screenshotFileName = "steam_page_screenshot.png"
)

// BrowserOptions configures a BrowserSource.
type BrowserOptions struct {
	URL             string
	DefaultItemName string
	Headless        bool
	Timeout         time.Duration // whole fetch
	ReadyTimeout    time.Duration // wait for the for-sale table
	UserAgent       string
	WindowWidth     int
	WindowHeight    int
	// ScreenshotDir, when set, receives a full-page PNG of the loaded listing.
	ScreenshotDir string
}

// DefaultBrowserOptions mirrors the desktop Chrome profile the listing page
// is known to render for.
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		URL:             DefaultListingURL,
		DefaultItemName: DefaultItemName,
		Headless:        true,
		Timeout:         60 * time.Second,
		ReadyTimeout:    30 * time.Second,
		UserAgent:       defaultUserAgent,
		WindowWidth:     1920,
		WindowHeight:    1080,
	}
}

// page is the subset of DOM access the extraction strategies need.
type page interface {
	TextByClass(ctx context.Context, class string) (string, error)
	TextByXPath(ctx context.Context, xpath string) (string, error)
	JSVariable(ctx context.Context, name string) (string, error)
	Scripts(ctx context.Context) ([]string, error)
}

// BrowserSource drives headless Chrome through chromedp to read a listing.
type BrowserSource struct {
	opts   BrowserOptions
	logger *slog.Logger
	now    func() time.Time
}

// NewBrowserSource creates a browser source; zero options take defaults.
func NewBrowserSource(opts BrowserOptions, logger *slog.Logger) *BrowserSource {
	d := DefaultBrowserOptions()
	if opts.URL == "" {
		opts.URL = d.URL
	}
	if opts.DefaultItemName == "" {
		opts.DefaultItemName = d.DefaultItemName
	}
	if opts.Timeout <= 0 {
		opts.Timeout = d.Timeout
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = d.ReadyTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = d.UserAgent
	}
	if opts.WindowWidth <= 0 || opts.WindowHeight <= 0 {
		opts.WindowWidth, opts.WindowHeight = d.WindowWidth, d.WindowHeight
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserSource{
		opts:   opts,
		logger: logger.With(slog.String("component", "browser_source")),
		now:    time.Now,
	}
}

// allocatorOptions builds the Chrome flags for this source.
func (b *BrowserSource) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", b.opts.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.DisableGPU,
		chromedp.WindowSize(b.opts.WindowWidth, b.opts.WindowHeight),
		chromedp.UserAgent(b.opts.UserAgent),
	)
	return opts
}

// Fetch loads the listing page and extracts the item name and price history.
func (b *BrowserSource) Fetch(ctx context.Context) (*Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			b.logger.Debug(fmt.Sprintf(format, args...))
		}))
	defer cancelBrowser()

	b.logger.InfoContext(ctx, "loading listing page",
		slog.String("url", b.opts.URL),
		slog.Bool("headless", b.opts.Headless))

	if err := chromedp.Run(browserCtx, chromedp.Navigate(b.opts.URL)); err != nil {
		return nil, apperrors.NewNetworkError("navigate to listing", err).
			WithContext("url", b.opts.URL)
	}

	waitCtx, cancelWait := context.WithTimeout(browserCtx, b.opts.ReadyTimeout)
	err := chromedp.Run(waitCtx, chromedp.WaitReady(readySelector, chromedp.ByQuery))
	cancelWait()
	if err != nil {
		return nil, apperrors.NewNetworkError("listing page did not become ready", err).
			WithContext("selector", readySelector).
			WithContext("timeout", b.opts.ReadyTimeout.String())
	}

	if b.opts.ScreenshotDir != "" {
		b.saveScreenshot(browserCtx)
	}

	return b.extract(browserCtx, chromePage{})
}

// extract runs the item-name and price-data chains against p.
func (b *BrowserSource) extract(ctx context.Context, p page) (*Listing, error) {
	name, nameStrategy, err := Resolve(ctx, b.logger, itemNameStrategies(p, b.opts.URL, b.opts.DefaultItemName)...)
	if err != nil {
		return nil, apperrors.NewParsingError("resolve item name", err)
	}
	b.logger.InfoContext(ctx, "resolved item name",
		slog.String("item", name),
		slog.String("strategy", nameStrategy))

	points, dataStrategy, err := Resolve(ctx, b.logger, priceDataStrategies(p)...)
	if err != nil {
		return nil, apperrors.NewParsingError("extract price history", fmt.Errorf("%w: %w", ErrNoPriceData, err)).
			WithContext("url", b.opts.URL)
	}
	b.logger.InfoContext(ctx, "extracted price history",
		slog.Int("points", len(points)),
		slog.String("strategy", dataStrategy))

	return &Listing{
		ItemName:  name,
		URL:       b.opts.URL,
		Points:    points,
		Source:    "browser",
		FetchedAt: b.now(),
		Strategies: map[string]string{
			"item_name":  nameStrategy,
			"price_data": dataStrategy,
		},
	}, nil
}

func (b *BrowserSource) saveScreenshot(ctx context.Context) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		b.logger.WarnContext(ctx, "screenshot failed", slog.String("error", err.Error()))
		return
	}

	if err := os.MkdirAll(b.opts.ScreenshotDir, 0o755); err != nil {
		b.logger.WarnContext(ctx, "screenshot dir not writable", slog.String("error", err.Error()))
		return
	}

	path := filepath.Join(b.opts.ScreenshotDir, screenshotFileName)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		b.logger.WarnContext(ctx, "screenshot not saved", slog.String("error", err.Error()))
		return
	}
	b.logger.InfoContext(ctx, "saved page screenshot", slog.String("path", path))
}

// itemNameStrategies lists the ways to name the item, most specific first.
// The configured default always succeeds, so the chain never fails.
func itemNameStrategies(p page, listingURL, fallback string) []Strategy[string] {
	text := func(fetch func(context.Context) (string, error)) func(context.Context) (string, bool, error) {
		return func(ctx context.Context) (string, bool, error) {
			s, err := fetch(ctx)
			if err != nil {
				return "", false, err
			}
			s = strings.TrimSpace(s)
			return s, s != "", nil
		}
	}

	return []Strategy[string]{
		{
			Name: "class",
			Extract: text(func(ctx context.Context) (string, error) {
				return p.TextByClass(ctx, itemNameClass)
			}),
		},
		{
			Name: "xpath",
			Extract: text(func(ctx context.Context) (string, error) {
				return p.TextByXPath(ctx, itemNameXPath)
			}),
		},
		{
			Name: "url",
			Extract: func(context.Context) (string, bool, error) {
				name, ok := ItemNameFromURL(listingURL)
				return name, ok, nil
			},
		},
		Static("default", fallback),
	}
}

// priceDataStrategies lists the ways to read the price history: the page's
// line1 variable, then a scan of inline scripts for its assignment.
func priceDataStrategies(p page) []Strategy[[]pricehistory.RawPoint] {
	return []Strategy[[]pricehistory.RawPoint]{
		{
			Name: "js_variable",
			Extract: func(ctx context.Context) ([]pricehistory.RawPoint, bool, error) {
				raw, err := p.JSVariable(ctx, "line1")
				if err != nil {
					return nil, false, err
				}
				if raw == "" {
					return nil, false, nil
				}
				points, err := ParsePriceData([]byte(raw))
				if err != nil {
					return nil, false, err
				}
				return points, true, nil
			},
		},
		{
			Name: "script_scan",
			Extract: func(ctx context.Context) ([]pricehistory.RawPoint, bool, error) {
				scripts, err := p.Scripts(ctx)
				if err != nil {
					return nil, false, err
				}
				for _, script := range scripts {
					literal, ok := ExtractLine1(script)
					if !ok {
						continue
					}
					points, err := ParsePriceData([]byte(literal))
					if err != nil {
						continue
					}
					return points, true, nil
				}
				return nil, false, nil
			},
		},
	}
}

// chromePage implements page on the chromedp context passed to each call.
type chromePage struct{}

func (chromePage) TextByClass(ctx context.Context, class string) (string, error) {
	var text string
	js := fmt.Sprintf(`(() => { const el = document.getElementsByClassName(%q)[0]; return el ? el.innerText : ""; })()`, class)
	err := chromedp.Run(ctx, chromedp.Evaluate(js, &text))
	return text, err
}

func (chromePage) TextByXPath(ctx context.Context, xpath string) (string, error) {
	var text string
	js := fmt.Sprintf(`(() => {
		const el = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		return el ? el.textContent : "";
	})()`, xpath)
	err := chromedp.Run(ctx, chromedp.Evaluate(js, &text))
	return text, err
}

func (chromePage) JSVariable(ctx context.Context, name string) (string, error) {
	var raw string
	js := fmt.Sprintf(`(typeof %[1]s === "undefined" || %[1]s === null) ? "" : JSON.stringify(%[1]s)`, name)
	err := chromedp.Run(ctx, chromedp.Evaluate(js, &raw))
	return raw, err
}

func (chromePage) Scripts(ctx context.Context) ([]string, error) {
	var scripts []string
	err := chromedp.Run(ctx, chromedp.Evaluate(`Array.from(document.scripts).map(s => s.innerHTML)`, &scripts))
	return scripts, err
}
