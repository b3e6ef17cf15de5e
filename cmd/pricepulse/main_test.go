package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricepulse/internal/config"
	"pricepulse/internal/exporter"
	"pricepulse/internal/shared/testutil"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
		check   func(t *testing.T, opts *options)
	}{
		{
			name: "defaults from config",
			args: nil,
			check: func(t *testing.T, opts *options) {
				assert.Equal(t, config.DefaultWindowDays, opts.windowDays)
				assert.True(t, opts.headless)
				assert.False(t, opts.noExport)
				assert.Empty(t, opts.schedule)
			},
		},
		{
			name: "all flags",
			args: []string{"-url", "https://steamcommunity.com/market/listings/730/X", "-item", "X",
				"-out", "/tmp/out", "-headless=false", "-window-days", "30", "-excel", "-no-export",
				"-schedule", "0 */5 * * * *"},
			check: func(t *testing.T, opts *options) {
				assert.Equal(t, "https://steamcommunity.com/market/listings/730/X", opts.url)
				assert.Equal(t, "X", opts.item)
				assert.Equal(t, "/tmp/out", opts.out)
				assert.False(t, opts.headless)
				assert.Equal(t, 30, opts.windowDays)
				assert.True(t, opts.excel)
				assert.True(t, opts.noExport)
				assert.Equal(t, "0 */5 * * * *", opts.schedule)
			},
		},
		{name: "zero window", args: []string{"-window-days", "0"}, wantErr: "-window-days"},
		{name: "url and input", args: []string{"-url", "https://a.example/x", "-input", "f.json"}, wantErr: "mutually exclusive"},
		{name: "stray argument", args: []string{"extra"}, wantErr: "unexpected arguments"},
		{name: "unknown flag", args: []string{"-nope"}, wantErr: "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args, config.Default(), io.Discard)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, opts)
		})
	}
}

func TestApplyOptions(t *testing.T) {
	cfg := config.Default()
	paths := config.NewPaths(t.TempDir())

	out := filepath.Join(t.TempDir(), "exports")
	paths = applyOptions(cfg, paths, &options{headless: false, windowDays: 7, excel: true, noExport: true, out: out})

	assert.False(t, cfg.Scraper.Headless)
	assert.Equal(t, 7, cfg.Analysis.WindowDays)
	assert.True(t, cfg.Export.Excel)
	assert.False(t, cfg.Export.Enabled)
	assert.Equal(t, out, paths.ExportsDir)
}

func TestPromptURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"enter takes default", "\n", config.DefaultListingURL},
		{"eof takes default", "", config.DefaultListingURL},
		{"answer is trimmed", "  https://steamcommunity.com/market/listings/730/Other  \n", "https://steamcommunity.com/market/listings/730/Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := promptURL(bufio.NewReader(strings.NewReader(tt.input)), &out, config.DefaultListingURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "press Enter for default")
		})
	}
}

func newTestCLI(t *testing.T, opts *options) (*cli, *bytes.Buffer) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	cfg := config.Default()
	cfg.Analysis.Location = "UTC"
	paths := applyOptions(cfg, config.NewPaths(t.TempDir()), opts)
	require.NoError(t, paths.EnsureDirectories())

	var out bytes.Buffer
	return &cli{
		cfg:    cfg,
		paths:  paths,
		opts:   opts,
		logger: logger,
		stdin:  bufio.NewReader(strings.NewReader("")),
		stdout: &out,
	}, &out
}

func TestCLI_RunFromInputFile(t *testing.T) {
	input := testutil.WriteFile(t, "listing.json", testutil.ListingJSON)
	c, out := newTestCLI(t, &options{input: input, windowDays: config.DefaultWindowDays})

	require.NoError(t, c.run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Price history for Chroma 3 Case")
	assert.Contains(t, text, "Total data points: 4")
	assert.Contains(t, text, "Skipped 1 of 5 raw points")
	assert.Contains(t, text, "Files written:")

	assert.FileExists(t, filepath.Join(c.paths.ExportsDir, exporter.SimplifiedFileName))
}

func TestCLI_RunWithoutExport(t *testing.T) {
	input := testutil.WriteFile(t, "prices.json", testutil.PriceDataJSON)
	c, out := newTestCLI(t, &options{input: input, item: "Chroma 3 Case", windowDays: 30, noExport: true})

	require.NoError(t, c.run(context.Background()))

	assert.NotContains(t, out.String(), "Files written:")
	entries, err := os.ReadDir(c.paths.ExportsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCLI_RunInsufficientData(t *testing.T) {
	input := testutil.WriteFile(t, "prices.json", `[[1700000000, "1.00"]]`)
	c, _ := newTestCLI(t, &options{input: input, item: "Lonely", windowDays: 30})

	assert.Error(t, c.run(context.Background()))
}

func TestCLI_WatchRunsImmediately(t *testing.T) {
	input := testutil.WriteFile(t, "listing.json", testutil.ListingJSON)
	c, out := newTestCLI(t, &options{input: input, windowDays: 30, noExport: true, schedule: "0 0 0 1 1 *"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.run(ctx))
	assert.Contains(t, out.String(), "Watching on")
	assert.Contains(t, out.String(), "Total data points: 4")
}
