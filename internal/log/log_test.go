package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q: got %v, want %v", in, got, want)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Output: &buf, Component: ComponentLedger})
	l.Info("hello", "k", "v")
	l.WithComponent(ComponentHTTP).Debug("second")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "k=v") {
		t.Fatalf("missing fields: %s", out)
	}
	if !strings.Contains(out, "component=http") {
		t.Fatalf("WithComponent not applied: %s", out)
	}
	if strings.Count(out, "component=") != 2 {
		t.Fatalf("component must be stamped once per record: %s", out)
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Output: &buf, Component: ComponentHTTP}))
	r := httptest.NewRequest("POST", "/transactions?x=1", nil)

	sl.LogHTTPEnd(context.Background(), r, "rid-1", 422, 3, "10.0.0.1")
	sl.LogHTTPEnd(context.Background(), r, "rid-2", 500, 3, "10.0.0.1")
	sl.LogError(context.Background(), "boom", errors.New("disk full"), OpCreate, nil)

	out := buf.String()
	for _, want := range []string{"level=WARN", "level=ERROR", "request_id=rid-1", "status_code=422", `error="disk full"`, "operation=create"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
}

func TestFromContextFallback(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Fatalf("unexpected fallback component %q", l.Component())
	}
	want := New(DefaultConfig())
	if got := FromContext(WithLogger(context.Background(), want)); got != want {
		t.Fatalf("logger not retrieved from context")
	}
}

func TestSlogCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf}).WithComponent(ComponentBackend)
	l.Slog().Info("opened")
	if !strings.Contains(buf.String(), "component=backend") {
		t.Fatalf("missing component in %q", buf.String())
	}
}
