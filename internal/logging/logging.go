// Package logging provides the leveled logger used across Medulla,
// generalizing the teacher's internal/debug package (referenced by its
// config loader but not present in the retrieved pack) and backed by
// gopkg.in/natefinch/lumberjack.v2 for rotating file output, a direct
// teacher dependency.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
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

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Sink receives a formatted log line at a given level. The RPC server
// registers a Sink that notifies clients subscribed to its logs resource
// that a line was logged; the line itself is not forwarded (§4.F).
type Sink func(level Level, line string)

// Logger is a minimal leveled logger. MEDULLA_LOG_LEVEL selects the
// minimum emitted level.
type Logger struct {
	mu    sync.Mutex
	level Level
	std   *log.Logger
	sinks []Sink
}

// New creates a logger writing to w (typically a lumberjack.Logger for
// rotation) at the given minimum level.
func New(w io.Writer, level Level) *Logger {
	return &Logger{level: level, std: log.New(w, "", log.LstdFlags|log.Lmicroseconds)}
}

// NewRotatingFile wires a lumberjack-backed rotating file logger the way
// the teacher's log setup does: size-capped, compressed, age-limited.
func NewRotatingFile(path string, level Level) *Logger {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	return New(lj, level)
}

func (l *Logger) AddSink(s Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, s)
}

func (l *Logger) log(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	line := fmt.Sprintf("[%s] "+format, append([]any{level}, args...)...)
	l.mu.Lock()
	l.std.Println(line)
	sinks := append([]Sink(nil), l.sinks...)
	l.mu.Unlock()
	for _, s := range sinks {
		s(level, line)
	}
}

func (l *Logger) Trace(format string, args ...any) { l.log(LevelTrace, format, args...) }
func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

var defaultLogger = New(os.Stderr, LevelInfo)

func Default() *Logger { return defaultLogger }

func SetDefault(l *Logger) { defaultLogger = l }
