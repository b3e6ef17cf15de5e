package services

import "errors"

// Analysis service errors
var (
	ErrNoSource        = errors.New("no listing source configured")
	ErrNothingAnalyzed = errors.New("no analysis has completed yet")
	ErrInvalidWindow   = errors.New("window must be positive")
)
