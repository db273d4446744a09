package logger

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// New creates a structured slog.Logger for the given level string. Records go
// to the console as text; when dir is non-empty they are also written as JSON
// to app.log, with errors duplicated into error.log for quick triage.
func New(level, dir string) (*slog.Logger, error) {
	handlerLevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: handlerLevel})
	if dir == "" {
		return slog.New(console), nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	appFile, err := openLogFile(filepath.Join(dir, "app.log"))
	if err != nil {
		return nil, err
	}
	errorFile, err := openLogFile(filepath.Join(dir, "error.log"))
	if err != nil {
		return nil, err
	}

	handler := &teeHandler{
		console: console,
		file:    slog.NewJSONHandler(appFile, &slog.HandlerOptions{Level: handlerLevel}),
		errors:  slog.NewJSONHandler(errorFile, &slog.HandlerOptions{Level: slog.LevelError}),
		level:   handlerLevel,
	}
	return slog.New(handler), nil
}

func openLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
}

// teeHandler fans each record out to the console and file handlers.
type teeHandler struct {
	console slog.Handler
	file    slog.Handler
	errors  slog.Handler
	level   slog.Leveler
}

func (h *teeHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.console.Handle(ctx, r); err != nil {
		return err
	}
	if err := h.file.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= slog.LevelError {
		return h.errors.Handle(ctx, r)
	}
	return nil
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{
		console: h.console.WithAttrs(attrs),
		file:    h.file.WithAttrs(attrs),
		errors:  h.errors.WithAttrs(attrs),
		level:   h.level,
	}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{
		console: h.console.WithGroup(name),
		file:    h.file.WithGroup(name),
		errors:  h.errors.WithGroup(name),
		level:   h.level,
	}
}

func parseLevel(level string) (slog.Leveler, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return nil, errors.New("invalid log level")
	}
}
