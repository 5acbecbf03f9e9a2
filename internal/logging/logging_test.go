package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"error": slog.LevelError,
		"bogus": slog.LevelWarn,
		"":      slog.LevelWarn,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWritesToCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	prev := slog.Default()
	defer slog.SetDefault(prev)

	l, c, err := Init("info", false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	l.Info("hello", "k", "v")
	_ = c.Close()

	b, err := os.ReadFile(filepath.Join(CacheDir(), "tada.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), `"msg":"hello"`) {
		t.Fatalf("log file missing record: %s", b)
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	l := slog.New(h).With("component", "test")
	l.Info("info-line")
	l.Error("error-line")

	if !strings.Contains(a.String(), "info-line") || !strings.Contains(a.String(), "component=test") {
		t.Fatalf("first handler missing records: %s", a.String())
	}
	if strings.Contains(b.String(), "info-line") || !strings.Contains(b.String(), "error-line") {
		t.Fatalf("second handler level not honored: %s", b.String())
	}
}
