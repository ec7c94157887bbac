package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type Options struct {
	Level  string
	Format string
	// File is appended to in addition to Stdout. Empty disables it.
	File   string
	Stdout io.Writer
}

// New builds a logger writing to stdout and, when configured, to a log file.
// If the file cannot be opened the logger writes to stdout only and says so.
// The returned closer releases the file.
func New(opts Options) (*slog.Logger, io.Closer) {
	var out io.Writer = os.Stdout
	if opts.Stdout != nil {
		out = opts.Stdout
	}

	var closer io.Closer = nopCloser{}
	var fileErr error
	if opts.File != "" {
		file, err := openLogFile(opts.File)
		if err != nil {
			fileErr = err
		} else {
			out = io.MultiWriter(out, file)
			closer = file
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	logger := slog.New(handler)
	if fileErr != nil {
		logger.Warn("log file unavailable, logging to stdout only", "file", opts.File, "error", fileErr)
	}
	return logger, closer
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
