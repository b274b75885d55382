package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWriter_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, Config{Level: "warn", Format: "json"})
	log.Info("dropped")
	log.Warn("kept", slog.Int("points", 3))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 record, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["msg"] != "kept" || rec["points"] != float64(3) {
		t.Errorf("record = %v", rec)
	}
}

func TestWithRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx, log := WithRequestLogger(context.Background(), NewWriter(&buf, Config{}))
	id := RequestIDFromContext(ctx)
	if id == "" {
		t.Fatal("request id not set")
	}
	log.Info("hello")
	if !strings.Contains(buf.String(), "request_id="+id) {
		t.Errorf("log line missing request id: %q", buf.String())
	}

	again, id2 := EnsureRequestID(ctx)
	if id2 != id || again != ctx {
		t.Errorf("EnsureRequestID replaced an existing id")
	}
}
