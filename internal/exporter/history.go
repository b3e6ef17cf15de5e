package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pricepulse/internal/config"
	apperrors "pricepulse/internal/errors"
	"pricepulse/internal/pricehistory"
)

// SimplifiedFileName is the shared simplified-view file written on every run.
const SimplifiedFileName = "steam_market_prices.csv"

// DetailedRow is one line of the detailed view.
type DetailedRow struct {
	Timestamp float64
	Date      string
	Price     float64
}

// SimplifiedRow is one line of the simplified view.
type SimplifiedRow struct {
	Instrument string
	PriceUSD   float64
	Timestamp  int64
}

// DetailedRows projects the series into detailed rows, dates rendered in
// each point's own location.
func DetailedRows(series pricehistory.Series) []DetailedRow {
	rows := make([]DetailedRow, len(series))
	for i, p := range series {
		rows[i] = DetailedRow{
			Timestamp: p.Timestamp,
			Date:      formatDate(p.Date),
			Price:     p.Price,
		}
	}
	return rows
}

// SimplifiedRows projects the series into simplified rows labelled with the
// instrument derived from itemName.
func SimplifiedRows(itemName string, series pricehistory.Series) []SimplifiedRow {
	instrument := InstrumentLabel(itemName)
	rows := make([]SimplifiedRow, len(series))
	for i, p := range series {
		rows[i] = SimplifiedRow{
			Instrument: instrument,
			PriceUSD:   RoundPrice(p.Price),
			Timestamp:  int64(p.Timestamp),
		}
	}
	return rows
}

// DetailedHeaders returns the detailed view column names
func DetailedHeaders() []string {
	return []string{"timestamp", "date", "price"}
}

// SimplifiedHeaders returns the simplified view column names
func SimplifiedHeaders() []string {
	return []string{"instrument", "price_usd", "timestamp"}
}

func (r DetailedRow) csvRow() []string {
	return []string{formatFloat(r.Timestamp), r.Date, formatFloat(r.Price)}
}

func (r SimplifiedRow) csvRow() []string {
	return []string{r.Instrument, formatFloat(r.PriceUSD), formatInt(r.Timestamp)}
}

// Summary is the JSON projection of a run's statistics.
type Summary struct {
	ItemName        string    `json:"item_name"`
	Instrument      string    `json:"instrument"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	TotalPoints     int       `json:"total_points"`
	AvgGapMinutes   float64   `json:"avg_gap_minutes"`
	MinGapMinutes   float64   `json:"min_gap_minutes"`
	MaxGapMinutes   float64   `json:"max_gap_minutes"`
	NoGapsAvailable bool      `json:"no_gaps_available"`
	RawPoints       int       `json:"raw_points"`
	Skipped         int       `json:"skipped"`
	WindowDays      float64   `json:"window_days"`
	Cutoff          time.Time `json:"cutoff"`
	UsedFallback    bool      `json:"used_fallback"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// NewSummary builds the JSON summary for a report
func NewSummary(itemName string, report *pricehistory.Report, generatedAt time.Time) Summary {
	st := report.Statistics
	return Summary{
		ItemName:        itemName,
		Instrument:      InstrumentLabel(itemName),
		StartDate:       st.StartDate,
		EndDate:         st.EndDate,
		TotalPoints:     st.TotalPoints,
		AvgGapMinutes:   st.AvgGapMinutes,
		MinGapMinutes:   st.MinGapMinutes,
		MaxGapMinutes:   st.MaxGapMinutes,
		NoGapsAvailable: st.NoGapsAvailable,
		RawPoints:       report.RawPoints,
		Skipped:         report.SkippedCount(),
		WindowDays:      report.Window.Hours() / 24,
		Cutoff:          report.Cutoff,
		UsedFallback:    report.UsedFallback,
		GeneratedAt:     generatedAt,
	}
}

// ExportOptions selects the optional projections
type ExportOptions struct {
	JSON  bool
	Excel bool
}

// Files lists what an export wrote. Optional entries are empty when skipped.
type Files struct {
	Detailed   string `json:"detailed"`
	Simplified string `json:"simplified"`
	Summary    string `json:"summary,omitempty"`
	Workbook   string `json:"workbook,omitempty"`
}

// All returns the non-empty paths in write order
func (f *Files) All() []string {
	var out []string
	for _, p := range []string{f.Detailed, f.Simplified, f.Summary, f.Workbook} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HistoryExporter writes the tabular projections of an analysis report
type HistoryExporter struct {
	csvWriter *CSVWriter
	workbook  *WorkbookExporter
	logger    *slog.Logger
	now       func() time.Time
}

// NewHistoryExporter creates a new history exporter rooted at the exports directory
func NewHistoryExporter(paths *config.Paths, logger *slog.Logger) *HistoryExporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &HistoryExporter{
		csvWriter: NewCSVWriter(paths, logger),
		workbook:  NewWorkbookExporter(paths, logger),
		logger:    logger,
		now:       time.Now,
	}
}

// Export writes the detailed and simplified CSV views plus the optional JSON
// summary and workbook. Every failure is returned as a storage error.
func (e *HistoryExporter) Export(ctx context.Context, itemName string, report *pricehistory.Report, opts ExportOptions) (*Files, error) {
	if report == nil {
		return nil, apperrors.NewStorageError("nothing to export", nil)
	}
	series := report.Statistics.Series
	if len(series) == 0 {
		e.logger.WarnContext(ctx, "No data to export", slog.String("item_name", itemName))
		return nil, apperrors.NewStorageError("nothing to export", nil)
	}

	stem := SanitizeFileName(itemName)
	if stem == "" {
		stem = SanitizeFileName(FallbackInstrument)
	}

	detailed, err := e.csvWriter.exportPath(stem + "_price_data.csv")
	if err != nil {
		return nil, err
	}
	simplifiedPath, err := e.csvWriter.exportPath(SimplifiedFileName)
	if err != nil {
		return nil, err
	}
	files := &Files{Detailed: detailed, Simplified: simplifiedPath}

	if err := e.writeDetailed(files.Detailed, series); err != nil {
		return nil, exportError("write detailed view", files.Detailed, err)
	}

	simplified := SimplifiedRows(itemName, series)
	records := make([][]string, len(simplified))
	for i, row := range simplified {
		records[i] = row.csvRow()
	}
	if err := e.csvWriter.WriteCSV(files.Simplified, WriteOptions{Headers: SimplifiedHeaders(), Records: records}); err != nil {
		return nil, exportError("write simplified view", files.Simplified, err)
	}

	if err := ctx.Err(); err != nil {
		return files, err
	}

	if opts.JSON {
		summary, err := e.csvWriter.exportPath(stem + "_summary.json")
		if err != nil {
			return files, err
		}
		files.Summary = summary
		if err := writeJSON(files.Summary, NewSummary(itemName, report, e.now())); err != nil {
			return files, exportError("write summary", files.Summary, err)
		}
	}

	if opts.Excel {
		workbookPath, err := e.csvWriter.exportPath(stem + "_price_data.xlsx")
		if err != nil {
			return files, err
		}
		path, err := e.workbook.Export(itemName, report, workbookPath)
		if err != nil {
			return files, err
		}
		files.Workbook = path
	}

	e.logger.InfoContext(ctx, "Export completed",
		slog.String("item_name", itemName),
		slog.Int("rows", len(series)),
		slog.Any("files", files.All()))

	return files, nil
}

// writeDetailed streams the detailed view; its rows carry full precision and
// can be numerous.
func (e *HistoryExporter) writeDetailed(path string, series pricehistory.Series) error {
	stream, err := e.csvWriter.CreateStreamWriter(path, DetailedHeaders())
	if err != nil {
		return err
	}
	for _, row := range DetailedRows(series) {
		if err := stream.WriteRecord(row.csvRow()); err != nil {
			stream.Abort()
			return err
		}
	}
	return stream.Close()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func exportError(op, path string, err error) *apperrors.AppError {
	return apperrors.NewStorageError(op, err).WithContext("path", path)
}
