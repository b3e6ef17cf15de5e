// Command pricepulse fetches a market listing's price history (or reads a
// saved one), prints its coverage statistics and writes the export files.
// With -schedule it keeps running and re-analyzes on a cron spec.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"pricepulse/internal/app"
	"pricepulse/internal/config"
	"pricepulse/internal/infrastructure"
	"pricepulse/internal/scheduler"
	"pricepulse/internal/scraper"
	"pricepulse/internal/services"
	"pricepulse/pkg/contracts"
)

const watchJobName = "listing-watch"

type options struct {
	url        string
	input      string
	item       string
	out        string
	headless   bool
	windowDays int
	excel      bool
	noExport   bool
	schedule   string
	version    bool
}

func main() {
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC RECOVERED: %v\n%s\n", r, debug.Stack())
			if logger != nil {
				logger.Error("pricepulse panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config, using defaults: %v\n", err)
		cfg = config.Default()
	}

	opts, err := parseFlags(os.Args[1:], cfg, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	paths, err := config.GetPaths()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize paths: %v\n", err)
		os.Exit(1)
	}
	paths = applyOptions(cfg, paths.Apply(cfg.Paths), opts)

	if err := paths.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create required directories: %v\n", err)
		os.Exit(1)
	}

	logger, err = infrastructure.InitializeLogger(infrastructure.ResolveLogConfig(cfg.Logging, paths))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{
		cfg:    cfg,
		paths:  paths,
		opts:   opts,
		logger: logger,
		stdin:  bufio.NewReader(os.Stdin),
		stdout: os.Stdout,
		prompt: isTerminal(os.Stdin),
	}
	if err := c.run(ctx); err != nil {
		logger.Error("pricepulse failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags reads command-line flags. Defaults come from cfg.
func parseFlags(args []string, cfg *config.Config, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("pricepulse", flag.ContinueOnError)
	fs.SetOutput(output)

	opts := &options{}
	fs.StringVar(&opts.url, "url", "", "market listing URL (prompted for when omitted)")
	fs.StringVar(&opts.input, "input", "", "read a saved listing or price array from this JSON file instead of the browser")
	fs.StringVar(&opts.item, "item", "", "item name override")
	fs.StringVar(&opts.out, "out", "", "directory for export files (defaults to data/exports next to the executable)")
	fs.BoolVar(&opts.headless, "headless", cfg.Scraper.Headless, "run the browser headless")
	fs.IntVar(&opts.windowDays, "window-days", cfg.Analysis.WindowDays, "trailing window in days")
	fs.BoolVar(&opts.excel, "excel", cfg.Export.Excel, "also write an XLSX workbook")
	fs.BoolVar(&opts.noExport, "no-export", !cfg.Export.Enabled, "skip writing export files")
	fs.StringVar(&opts.schedule, "schedule", "", "six-field cron spec; keep running and re-analyze on it")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.windowDays < 1 {
		return nil, fmt.Errorf("-window-days must be at least 1, got %d", opts.windowDays)
	}
	if opts.url != "" && opts.input != "" {
		return nil, errors.New("-url and -input are mutually exclusive")
	}
	return opts, nil
}

// applyOptions folds flag values into the configuration and paths
func applyOptions(cfg *config.Config, paths *config.Paths, opts *options) *config.Paths {
	cfg.Scraper.Headless = opts.headless
	cfg.Analysis.WindowDays = opts.windowDays
	cfg.Export.Excel = opts.excel
	cfg.Export.Enabled = !opts.noExport
	if opts.out != "" {
		paths.ExportsDir = opts.out
	}
	return paths
}

type cli struct {
	cfg    *config.Config
	paths  *config.Paths
	opts   *options
	logger *slog.Logger
	stdin  *bufio.Reader
	stdout io.Writer
	// prompt enables the interactive URL question
	prompt bool
}

func (c *cli) run(ctx context.Context) error {
	service, err := app.NewAnalysisService(c.cfg, c.paths, nil, c.logger)
	if err != nil {
		return err
	}

	listingURL := c.opts.url
	if listingURL == "" && c.opts.input == "" && c.prompt {
		if listingURL, err = promptURL(c.stdin, c.stdout, c.cfg.Scraper.URL); err != nil {
			return err
		}
	}

	source := c.source(listingURL)

	if c.opts.schedule == "" {
		return c.analyze(ctx, service, source)
	}
	return c.watch(ctx, service, source)
}

// source picks the file source for -input and a browser source otherwise
func (c *cli) source(listingURL string) scraper.Source {
	if c.opts.input != "" {
		return scraper.NewFileSource(c.opts.input, c.opts.item, c.logger)
	}
	return app.NewSourceFactory(c.cfg.Scraper, c.paths, c.logger)(listingURL, c.opts.item)
}

func (c *cli) analyze(ctx context.Context, service *services.AnalysisService, source scraper.Source) error {
	result, err := service.AnalyzeSource(ctx, source, services.RunOptions{})
	if err != nil {
		return err
	}
	printResult(c.stdout, result)
	return nil
}

// watch runs once immediately, then on every tick until ctx is done
func (c *cli) watch(ctx context.Context, service *services.AnalysisService, source scraper.Source) error {
	sched := scheduler.New(c.logger, nil)
	if err := sched.Register(watchJobName, c.opts.schedule, func(ctx context.Context) error {
		return c.analyze(ctx, service, source)
	}); err != nil {
		return err
	}

	sched.Start()
	fmt.Fprintf(c.stdout, "Watching on %q, next run at %s. Press Ctrl+C to stop.\n",
		c.opts.schedule, sched.Next(watchJobName).Format(time.RFC3339))

	if err := sched.RunNow(watchJobName); err != nil {
		fmt.Fprintf(c.stdout, "Initial run failed: %v\n", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Server.ShutdownTimeout)
	defer cancel()
	return sched.Stop(stopCtx)
}

// promptURL asks for a listing URL; an empty answer takes defaultURL
func promptURL(in *bufio.Reader, out io.Writer, defaultURL string) (string, error) {
	fmt.Fprintf(out, "Enter Steam market listing URL (press Enter for default):\n[%s]\n> ", defaultURL)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read listing URL: %w", err)
	}
	if answer := strings.TrimSpace(line); answer != "" {
		return answer, nil
	}
	return defaultURL, nil
}

func printResult(out io.Writer, result *services.AnalysisResult) {
	fmt.Fprintf(out, "\n%s\n", result.Chart.Title)
	fmt.Fprintln(out, strings.Repeat("=", len(result.Chart.Title)))
	fmt.Fprintln(out, result.Chart.Caption)

	report := result.Report
	if n := report.SkippedCount(); n > 0 {
		fmt.Fprintf(out, "Skipped %d of %d raw points\n", n, report.RawPoints)
	}
	if report.UsedFallback {
		fmt.Fprintln(out, "No points inside the window; statistics cover the full history")
	}

	if result.Files != nil {
		fmt.Fprintln(out, "\nFiles written:")
		for _, path := range result.Files.All() {
			fmt.Fprintf(out, "  %s\n", path)
		}
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
