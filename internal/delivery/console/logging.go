package console

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// actionFunc is one menu action.
type actionFunc func(ctx context.Context) error

// withLogging logs each action with its name, outcome and duration.
// It does not log what the user typed.
func withLogging(logger *slog.Logger, name string, next actionFunc) actionFunc {
	return func(ctx context.Context) error {
		start := time.Now()
		err := next(ctx)
		attrs := []any{
			"name", name,
			"outcome", outcome(err),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if outcome(err) == "error" {
			logger.Error("action", append(attrs, "error", err)...)
		} else {
			logger.Info("action", attrs...)
		}
		return err
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, io.EOF):
		return "eof"
	case isUserError(err):
		return "rejected"
	default:
		return "error"
	}
}
