package logging

import (
	"log/slog"
	"os"
)

// NewLogger returns a slog logger that emits structured JSON records.
func NewLogger(service string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	return slog.New(handler).With(slog.String("service", service))
}

// WithUserID attaches the acting user to the logger.
func WithUserID(logger *slog.Logger, userID string) *slog.Logger {
	return logger.With(slog.String("userId", userID))
}
