package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoStrategy is returned by Resolve when every strategy declined or failed.
var ErrNoStrategy = errors.New("no extraction strategy succeeded")

// Strategy is one way of extracting a value from a page. Extract reports
// ok=false when the value is simply absent; a non-nil error means the attempt
// itself broke. Either way the next strategy is tried.
type Strategy[T any] struct {
	Name    string
	Extract func(ctx context.Context) (T, bool, error)
}

// Resolve tries strategies in order and returns the first successful value
// together with the name of the strategy that produced it. Context
// cancellation stops the chain immediately.
func Resolve[T any](ctx context.Context, logger *slog.Logger, strategies ...Strategy[T]) (T, string, error) {
	var zero T
	if logger == nil {
		logger = slog.Default()
	}

	var errs []error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}

		value, ok, err := s.Extract(ctx)
		switch {
		case err != nil:
			logger.WarnContext(ctx, "extraction strategy failed",
				slog.String("strategy", s.Name),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		case !ok:
			logger.DebugContext(ctx, "extraction strategy found nothing",
				slog.String("strategy", s.Name))
		default:
			logger.DebugContext(ctx, "extraction strategy succeeded",
				slog.String("strategy", s.Name))
			return value, s.Name, nil
		}
	}

	if len(errs) > 0 {
		return zero, "", fmt.Errorf("%w: %w", ErrNoStrategy, errors.Join(errs...))
	}
	return zero, "", ErrNoStrategy
}

// Static returns a strategy that always yields value. It is used as the last
// link of a chain to supply a configured default.
func Static[T any](name string, value T) Strategy[T] {
	return Strategy[T]{
		Name: name,
		Extract: func(context.Context) (T, bool, error) {
			return value, true, nil
		},
	}
}
