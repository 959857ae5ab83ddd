// Package log provides the leveled logging capability shared by all
// vcfsubset components.
//
// The logger is constructed once before any component runs, passed by
// reference, and closed only at process exit. Components never reach for
// global logger state.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level is the severity of a log line.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var levelColors = map[Level]*color.Color{
	LevelInfo:  color.New(color.FgGreen),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed, color.Bold),
}

// Logger writes timestamped, leveled lines to a console writer and,
// optionally, to a log file. The console copy carries a colored level tag;
// the file copy is plain text.
type Logger struct {
	mu      sync.Mutex
	console io.Writer
	file    *os.File
	now     func() time.Time
}

// New creates a Logger writing to console. If logPath is non-empty the file
// is created (truncating any previous run's log) and receives a plain copy
// of every line.
func New(console io.Writer, logPath string) (*Logger, error) {
	if console == nil {
		console = os.Stderr
	}
	l := &Logger{console: console, now: time.Now}
	if logPath != "" {
		f, err := os.Create(logPath)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = f
	}
	return l, nil
}

// NewDiscard returns a logger that drops everything. Useful in tests.
func NewDiscard() *Logger {
	return &Logger{console: io.Discard, now: time.Now}
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(format, args...)

	tag := level.String()
	if c, ok := levelColors[level]; ok {
		tag = c.Sprint(tag)
	}
	fmt.Fprintf(l.console, "%s [%s] %s\n", ts, tag, msg)

	if l.file != nil {
		fmt.Fprintf(l.file, "%s [%s] %s\n", ts, level.String(), msg)
	}
}

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) { l.log(LevelInfo, format, args...) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...any) { l.log(LevelWarn, format, args...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }
