// Package exporter writes the tabular projections of an analysis report.
//
// CSVWriter: core CSV writing with headers, streaming, and an optional UTF-8
// BOM for Excel compatibility. Relative paths land in the exports directory.
//
// HistoryExporter: builds the detailed view (timestamp, date, price) and the
// simplified view (instrument, price_usd, timestamp) once from the finished
// series, writes both as CSV, and optionally a JSON summary and a workbook.
//
// WorkbookExporter: the same views as Detailed, Simplified and Summary sheets
// of an XLSX file.
//
// Example usage:
//
//	exp := exporter.NewHistoryExporter(paths, logger)
//	files, err := exp.Export(ctx, "Chroma 3 Case", report, exporter.ExportOptions{JSON: true})
//	// files.Detailed   → data/exports/Chroma_3_Case_price_data.csv
//	// files.Simplified → data/exports/steam_market_prices.csv
package exporter
