package logfmt

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

const timestampLayout = "15:04:05.000"

// Logger writes timestamped log lines to a single writer. Levels are
// colorized when the writer is a terminal.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
	now   func() time.Time
}

// New constructs a logger writing to out. Color output is enabled when out
// is a terminal.
func New(out io.Writer) *Logger {
	l := &Logger{out: out, now: time.Now}
	if f, ok := out.(*os.File); ok {
		l.color = term.IsTerminal(int(f.Fd()))
	}
	return l
}

// Infof logs an informational line.
func (l *Logger) Infof(format string, args ...any) {
	l.logf(LevelInfo, format, args...)
}

// Warnf logs a warning line.
func (l *Logger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, format, args...)
}

// Errorf logs an error line.
func (l *Logger) Errorf(format string, args ...any) {
	l.logf(LevelError, format, args...)
}

func (l *Logger) logf(level, format string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	ts := l.now().Format(timestampLayout)
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %s %s\n", ts, l.paint(level), msg)
}

func (l *Logger) paint(level string) string {
	if !l.color {
		return level
	}
	switch level {
	case LevelWarn:
		return "\x1b[33m" + level + "\x1b[0m"
	case LevelError:
		return "\x1b[31m" + level + "\x1b[0m"
	default:
		return level
	}
}
