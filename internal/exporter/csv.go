package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pricepulse/internal/config"
	apperrors "pricepulse/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes CSV files under the exports directory. Files are written
// to a temporary sibling and renamed into place, so a reader never sees a
// half-written view.
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers []string
	Records [][]string
	// BOM prefixes a UTF-8 byte order mark for spreadsheet applications
	BOM bool
}

// WriteCSV replaces filePath with the given header and records
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	stream, err := w.create(filePath, options.Headers, options.BOM)
	if err != nil {
		return err
	}

	for i, record := range options.Records {
		if err := stream.WriteRecord(record); err != nil {
			stream.Abort()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return stream.Close()
}

// CreateStreamWriter opens filePath for row-by-row writing. The file appears
// on Close; Abort discards it.
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	return w.create(filePath, headers, false)
}

func (w *CSVWriter) create(filePath string, headers []string, bom bool) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Debug("Opening CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if err := file.Chmod(0644); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, fmt.Errorf("failed to set file mode: %w", err)
	}

	s := &StreamWriter{file: file, writer: csv.NewWriter(file), target: fullPath, logger: w.logger}

	if bom {
		if _, err := file.Write(utf8BOM); err != nil {
			s.Abort()
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}
	if len(headers) > 0 {
		if err := s.writer.Write(headers); err != nil {
			s.Abort()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}
	return s, nil
}

// StreamWriter writes one CSV file record by record
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	target string
	rows   int
	logger *slog.Logger
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Path is where the file lands on Close
func (s *StreamWriter) Path() string { return s.target }

// Close flushes the records and moves the file into place
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.Abort()
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	if err := s.file.Close(); err != nil {
		os.Remove(s.file.Name())
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(s.file.Name(), s.target); err != nil {
		os.Remove(s.file.Name())
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	s.logger.Info("CSV file written",
		slog.String("path", s.target),
		slog.Int("record_count", s.rows))
	return nil
}

// Abort drops everything written so far
func (s *StreamWriter) Abort() {
	s.file.Close()
	os.Remove(s.file.Name())
}

// exportPath resolves a bare file name under the exports directory and
// refuses names that would land anywhere else.
func (w *CSVWriter) exportPath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.IsAbs(name) ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", apperrors.NewStorageError("file name outside exports directory", nil).
			WithContext("name", name)
	}

	full := w.resolvePath(name)
	if w.paths == nil {
		return full, nil
	}
	rel, err := filepath.Rel(filepath.Clean(w.paths.ExportsDir), full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", apperrors.NewStorageError("file name outside exports directory", err).
			WithContext("name", name)
	}
	return full, nil
}

// resolvePath places relative paths under the exports directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.GetExportPath(filePath)
}
