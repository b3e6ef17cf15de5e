package pricehistory

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is the only condition that stops a run. Match it
	// with errors.Is; the concrete error is an *InsufficientDataError.
	ErrInsufficientData = errors.New("insufficient price data")

	// ErrEmptySeries is returned by ComputeStatistics for a series with no
	// points. The pipeline never produces one.
	ErrEmptySeries = errors.New("empty series")

	errUnsupportedKind   = errors.New("unsupported value kind")
	errNonFinite         = errors.New("non-finite value")
	errTimestampFormat   = errors.New("timestamp does not match \"Mon DD YYYY HH\"")
	errTimestampRange    = errors.New("timestamp outside years 1 to 9999")
	errPriceNotParseable = errors.New("price is not a decimal number")
)

// Field names used in ParseError.
const (
	FieldTimestamp = "timestamp"
	FieldPrice     = "price"
)

// ParseError describes one raw record that was skipped.
type ParseError struct {
	Index int      // position in the raw input
	Field string   // FieldTimestamp or FieldPrice
	Value RawValue // offending value
	Err   error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("record %d: %s %s: %v", e.Index, e.Field, e.Value, e.Err)
}

// Unwrap allows errors.Is and errors.As to see the cause
func (e *ParseError) Unwrap() error {
	return e.Err
}

// InsufficientDataError reports how much data was available when the run was
// abandoned.
type InsufficientDataError struct {
	RawPoints   int
	ValidPoints int
	Required    int
}

// Error implements the error interface
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %d raw points, %d valid, need at least %d",
		ErrInsufficientData, e.RawPoints, e.ValidPoints, e.Required)
}

// Is matches ErrInsufficientData
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
