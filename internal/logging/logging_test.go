package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSetup_WritesToWriterAtLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn := Setup(Options{Level: slog.LevelWarn, Writer: &buf})
	defer closeFn()

	logger.Info("hidden")
	logger.Warn("shown", "rows", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "rows=3") {
		t.Errorf("output = %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelWarn, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelWarn, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	logger := slog.New(h).With("source", "test")

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug enabled through first handler")
	}
	logger.Info("loaded")
	logger.Error("failed")

	if !strings.Contains(a.String(), "msg=loaded") || !strings.Contains(a.String(), "msg=failed") {
		t.Errorf("first handler = %q", a.String())
	}
	if strings.Contains(b.String(), "loaded") || !strings.Contains(b.String(), "source=test") {
		t.Errorf("second handler = %q", b.String())
	}
}
