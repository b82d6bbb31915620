package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a slog.Logger that throws everything away,
// keeping test output readable.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
