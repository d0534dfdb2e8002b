package logfmt

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoggerFormatsTimestampedLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.now = func() time.Time {
		return time.Date(2024, 3, 1, 9, 30, 15, 250_000_000, time.UTC)
	}

	l.Warnf("environment %s compiled with errors", "backend")

	got := buf.String()
	want := "09:30:15.250 warn environment backend compiled with errors\n"
	if got != want {
		t.Fatalf("unexpected log line: got %q want %q", got, want)
	}
}

func TestLoggerDisablesColorForPlainWriters(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Errorf("spawn failed")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected no ANSI escapes for non-terminal writer, got %q", buf.String())
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	l.Infof("should not panic")
}
