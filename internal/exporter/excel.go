package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"pricepulse/internal/config"
	apperrors "pricepulse/internal/errors"
	"pricepulse/internal/pricehistory"
)

// Workbook sheet names
const (
	SheetDetailed   = "Detailed"
	SheetSimplified = "Simplified"
	SheetSummary    = "Summary"
)

// WorkbookExporter writes the detailed, simplified and summary views into a
// single XLSX workbook.
type WorkbookExporter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewWorkbookExporter creates a workbook exporter
func NewWorkbookExporter(paths *config.Paths, logger *slog.Logger) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{paths: paths, logger: logger}
}

// Export builds the workbook and saves it as fileName under the exports
// directory. It returns the written path.
func (w *WorkbookExporter) Export(itemName string, report *pricehistory.Report, fileName string) (string, error) {
	path := fileName
	if !filepath.IsAbs(path) && w.paths != nil {
		path = w.paths.GetExportPath(fileName)
	}

	f, err := w.Build(itemName, report)
	if err != nil {
		return "", apperrors.NewStorageError("build workbook", err).WithContext("path", path)
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", apperrors.NewStorageError("create export directory", err).WithContext("path", path)
	}
	if err := f.SaveAs(path); err != nil {
		return "", apperrors.NewStorageError("save workbook", err).WithContext("path", path)
	}

	w.logger.Info("Workbook written",
		slog.String("path", path),
		slog.Int("rows", len(report.Statistics.Series)))
	return path, nil
}

// Build assembles the workbook in memory. The caller closes it.
func (w *WorkbookExporter) Build(itemName string, report *pricehistory.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetDetailed); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetSimplified, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	series := report.Statistics.Series

	detailed := DetailedRows(series)
	if err := writeRows(f, SheetDetailed, DetailedHeaders(), len(detailed), func(i int) []interface{} {
		r := detailed[i]
		return []interface{}{r.Timestamp, r.Date, r.Price}
	}); err != nil {
		f.Close()
		return nil, err
	}

	simplified := SimplifiedRows(itemName, series)
	if err := writeRows(f, SheetSimplified, SimplifiedHeaders(), len(simplified), func(i int) []interface{} {
		r := simplified[i]
		return []interface{}{r.Instrument, r.PriceUSD, r.Timestamp}
	}); err != nil {
		f.Close()
		return nil, err
	}

	if err := writeSummarySheet(f, itemName, report); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeRows(f *excelize.File, sheet string, headers []string, n int, row func(int) []interface{}) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}

	for i := 0; i < n; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(i)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 20)
}

func writeSummarySheet(f *excelize.File, itemName string, report *pricehistory.Report) error {
	st := report.Statistics
	rows := [][]interface{}{
		{"item_name", itemName},
		{"instrument", InstrumentLabel(itemName)},
		{"start_date", formatDate(st.StartDate)},
		{"end_date", formatDate(st.EndDate)},
		{"total_points", st.TotalPoints},
		{"avg_gap_minutes", st.AvgGapMinutes},
		{"min_gap_minutes", st.MinGapMinutes},
		{"max_gap_minutes", st.MaxGapMinutes},
		{"no_gaps_available", st.NoGapsAvailable},
		{"raw_points", report.RawPoints},
		{"skipped", report.SkippedCount()},
		{"used_fallback", report.UsedFallback},
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &rows[i]); err != nil {
			return fmt.Errorf("summary row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(SheetSummary, "A", "B", 24)
}
