package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// newTestLogger returns a colorless console logger writing into a buffer.
// It sets NO_COLOR, so callers cannot run in parallel.
func newTestLogger(t *testing.T, level zerolog.Level) (*ZerologAdapter, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	return NewConsoleLogger(&buf, "controller", level), &buf
}

func TestFieldHelpers(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"String", String("mode", "thread"), "mode", "thread"},
		{"Int", Int("worker", 3), "worker", 3},
		{"Int64", Int64("processed", 1 << 40), "processed", int64(1 << 40)},
		{"Duration", Duration("elapsed", time.Second), "elapsed", time.Second},
		{"Err", Err(boom), "error", boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.field.Key != tt.key || tt.field.Value != tt.value {
				t.Errorf("got %+v, want {%s %v}", tt.field, tt.key, tt.value)
			}
		})
	}
}

func TestConsoleLogger_Levels(t *testing.T) {
	logger, buf := newTestLogger(t, zerolog.DebugLevel)

	logger.Debug("sampling", Int64("dropped", 2))
	logger.Info("run finished", String("mode", "process"))
	logger.Warn("process worker exited abnormally", Int("worker", 1))
	logger.Error("worker did not report", errors.New("no result"), Int("worker", 2))

	out := buf.String()
	for _, want := range []string{
		"DBG sampling", "dropped=2",
		"INF run finished", "mode=process",
		"WRN process worker exited abnormally", "worker=1",
		"ERR worker did not report", "error=", "no result", "worker=2",
		"component=controller",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("NO_COLOR output contains escape codes:\n%q", out)
	}
}

func TestConsoleLogger_RespectsLevel(t *testing.T) {
	logger, buf := newTestLogger(t, zerolog.WarnLevel)

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("entries below warn should be filtered:\n%s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn entry should be written:\n%s", out)
	}
}

func TestWith_AddsFields(t *testing.T) {
	logger, buf := newTestLogger(t, zerolog.InfoLevel)

	child := logger.With(Int("worker", 3), Int("pid", 4242))
	child.Info("task finished", Duration("after", 1500*time.Millisecond))
	logger.Info("parent entry")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), buf.String())
	}
	for _, want := range []string{"worker=3", "pid=4242", "after=1500"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("child entry missing %q: %s", want, lines[0])
		}
	}
	if strings.Contains(lines[1], "worker=3") {
		t.Errorf("With must not modify the parent logger: %s", lines[1])
	}
}

func TestNop(t *testing.T) {
	t.Parallel()
	var l Logger = Nop()
	l.Info("ignored")
	l.Error("ignored", errors.New("x"))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.WarnLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
