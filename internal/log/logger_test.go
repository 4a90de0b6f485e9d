package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentTracker, Output: &buf})
	l.Info("saved", NewFields().WithOperation(OpSave).WithError(errors.New("boom"))...)

	out := buf.String()
	for _, want := range []string{"component=tracker", "operation=save", "error=boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line %q missing %q", out, want)
		}
	}

	child := l.WithComponent(ComponentHTTP)
	if child.Component() != ComponentHTTP {
		t.Fatalf("component=%q", child.Component())
	}

	buf.Reset()
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level")
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Fatalf("expected default logger")
	}
	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if FromContext(WithContext(context.Background(), l)) != l {
		t.Fatalf("expected stored logger")
	}
}
