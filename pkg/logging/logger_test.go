package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("also shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("filtered levels leaked: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "also shown") {
		t.Errorf("expected warn and error output, got %q", out)
	}
}

func TestKeyvals(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug)

	l.Info("run finished", "wires", 2, "elapsed", "1ms")
	out := buf.String()
	for _, want := range []string{"wires=2", "elapsed=1ms", "run finished", "[INFO]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug).With("component", "runner")

	l.Info("started")
	if !strings.Contains(buf.String(), "component=runner") {
		t.Errorf("bound keyvals missing: %q", buf.String())
	}

	// The parent logger is unaffected.
	buf.Reset()
	New(&buf, LevelDebug).Info("bare")
	if strings.Contains(buf.String(), "component") {
		t.Errorf("parent logger picked up bound keyvals: %q", buf.String())
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	if l.With("k", "v") == nil {
		t.Error("With must return a logger")
	}
}
