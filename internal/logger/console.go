// Package logger provides the leveled console logger used across the
// bridge. Output is timestamped, mutex-guarded for concurrent configure
// workers, and colored when attached to a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level filters log output by severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a level name to its Level. Unknown or empty names
// default to info.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ConsoleLogger writes "[HH:MM:SS] [LEVEL] message" lines to a writer.
// A nil writer discards everything.
type ConsoleLogger struct {
	writer   io.Writer
	level    Level
	mu       sync.Mutex
	useColor bool
}

// New creates a ConsoleLogger at the given level. Color output is enabled
// only when the writer is a terminal.
func New(w io.Writer, level Level) *ConsoleLogger {
	return &ConsoleLogger{
		writer:   w,
		level:    level,
		useColor: IsTerminal(w),
	}
}

// IsTerminal reports whether w is a TTY that should receive color codes.
// NO_COLOR is honored through the color package's global flag.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Debugf logs at debug level.
func (cl *ConsoleLogger) Debugf(format string, args ...interface{}) {
	cl.logf(LevelDebug, format, args...)
}

// Infof logs at info level.
func (cl *ConsoleLogger) Infof(format string, args ...interface{}) {
	cl.logf(LevelInfo, format, args...)
}

// Warnf logs at warn level.
func (cl *ConsoleLogger) Warnf(format string, args ...interface{}) {
	cl.logf(LevelWarn, format, args...)
}

// Errorf logs at error level.
func (cl *ConsoleLogger) Errorf(format string, args ...interface{}) {
	cl.logf(LevelError, format, args...)
}

func (cl *ConsoleLogger) logf(level Level, format string, args ...interface{}) {
	if cl == nil || cl.writer == nil || level < cl.level {
		return
	}

	label := level.String()
	if cl.useColor {
		label = levelColor(level).Sprint(label)
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n",
		time.Now().Format("15:04:05"), label, fmt.Sprintf(format, args...))
}

func levelColor(level Level) *color.Color {
	switch level {
	case LevelDebug:
		return color.New(color.FgCyan)
	case LevelWarn:
		return color.New(color.FgYellow)
	case LevelError:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgBlue)
	}
}
