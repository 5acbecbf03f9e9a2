// Package logging sets up slog. The TUI owns stdout, so records go to a file
// in the XDG cache dir, optionally mirrored to stderr.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLevel maps a level name to slog.Level, defaulting to warn.
func ParseLevel(s string) slog.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return slog.LevelWarn
}

// Init opens the log file, installs the default logger and returns it with a
// closer for the file.
func Init(level string, mirrorStderr bool) (*slog.Logger, io.Closer, error) {
	lvl := ParseLevel(level)

	dir := CacheDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(dir, "tada.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	var h slog.Handler = slog.NewJSONHandler(f, &slog.HandlerOptions{Level: lvl, AddSource: true})
	if mirrorStderr {
		h = &multiHandler{handlers: []slog.Handler{h, slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})}}
	}
	l := slog.New(h)
	slog.SetDefault(l)
	l.Debug("logging initialized", "level", lvl.String(), "log_file", path, "stderr", mirrorStderr)
	return l, f, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// CacheDir returns the XDG cache directory for tada.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "tada")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tada")
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Caches", "tada")
	}
	return filepath.Join(home, ".cache", "tada")
}

// multiHandler fans records out to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		out[i] = hh.WithAttrs(attrs)
	}
	return &multiHandler{handlers: out}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		out[i] = hh.WithGroup(name)
	}
	return &multiHandler{handlers: out}
}
