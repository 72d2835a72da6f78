package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fadedpez/gamemaster/internal/types"
)

// Level represents a logging level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	CRITICAL
)

var levelNames = map[Level]string{
	DEBUG:    "DEBUG",
	INFO:     "INFO",
	WARN:     "WARN",
	ERROR:    "ERROR",
	CRITICAL: "CRIT",
}

// String returns the name written in log lines
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel converts a configuration string into a Level. Unknown values map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "critical":
		return CRITICAL
	default:
		return INFO
	}
}

// Logger represents our custom logger
type Logger struct {
	*log.Logger
	level  Level
	prefix string
	sinks  *sinkSet
}

// Sink receives the lines a logger writes. Write must not block.
type Sink interface {
	Write(level Level, line string)
}

// Mirror copies the lines of a logger, and of the loggers derived from it,
// to a Sink.
type Mirror struct {
	set   *sinkSet
	sink  Sink
	level atomic.Int32
}

// SetLevel changes the minimum level mirrored
func (m *Mirror) SetLevel(level Level) { m.level.Store(int32(level)) }

// Level returns the minimum level mirrored
func (m *Mirror) Level() Level { return Level(m.level.Load()) }

// Close stops mirroring
func (m *Mirror) Close() {
	m.set.mu.Lock()
	delete(m.set.mirrors, m)
	m.set.mu.Unlock()
}

type sinkSet struct {
	parent *sinkSet

	mu      sync.RWMutex
	mirrors map[*Mirror]struct{}
}

func (s *sinkSet) emit(level Level, line string) {
	for set := s; set != nil; set = set.parent {
		set.mu.RLock()
		for m := range set.mirrors {
			if level >= m.Level() {
				m.sink.Write(level, line)
			}
		}
		set.mu.RUnlock()
	}
}

// NewLogger creates a new logger instance
func NewLogger(level Level) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo creates a logger writing to w
func NewLoggerTo(w io.Writer, level Level) *Logger {
	return &Logger{
		Logger: log.New(w, "", 0),
		level:  level,
		sinks:  &sinkSet{mirrors: map[*Mirror]struct{}{}},
	}
}

// With returns a logger sharing the output and level, tagging each line with name.
func (l *Logger) With(name string) *Logger {
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "/" + name
	}
	return &Logger{
		Logger: l.Logger,
		level:  l.level,
		prefix: prefix,
		sinks:  &sinkSet{parent: l.sinks, mirrors: map[*Mirror]struct{}{}},
	}
}

// Unmirrored returns a logger sharing the output and level whose lines are
// never mirrored. Sinks log their own failures through it.
func (l *Logger) Unmirrored() *Logger {
	return &Logger{
		Logger: l.Logger,
		level:  l.level,
		prefix: l.prefix,
		sinks:  &sinkSet{mirrors: map[*Mirror]struct{}{}},
	}
}

// Mirror copies the lines at or above level to sink until the mirror is closed
func (l *Logger) Mirror(sink Sink, level Level) *Mirror {
	m := &Mirror{set: l.sinks, sink: sink}
	m.SetLevel(level)
	l.sinks.mu.Lock()
	l.sinks.mirrors[m] = struct{}{}
	l.sinks.mu.Unlock()
	return m
}

func (l *Logger) output(level Level, line string) {
	l.Output(3, line)
	if l.sinks != nil {
		l.sinks.emit(level, line)
	}
}

// SetLevel changes the minimum level written
func (l *Logger) SetLevel(level Level) {
	l.level = level
}

// formatMessage formats a log message with timestamp, level, and caller info
func (l *Logger) formatMessage(level Level, msg string) string {
	_, file, line, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")

	if l.prefix != "" {
		msg = "[" + l.prefix + "] " + msg
	}
	return fmt.Sprintf("[%s] %-5s %s: %s",
		timestamp,
		levelNames[level],
		caller,
		msg,
	)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	if l.level <= DEBUG {
		l.output(DEBUG, l.formatMessage(DEBUG, fmt.Sprintf(format, v...)))
	}
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	if l.level <= INFO {
		l.output(INFO, l.formatMessage(INFO, fmt.Sprintf(format, v...)))
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	if l.level <= WARN {
		l.output(WARN, l.formatMessage(WARN, fmt.Sprintf(format, v...)))
	}
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	if l.level <= ERROR {
		l.output(ERROR, l.formatMessage(ERROR, fmt.Sprintf(format, v...)))
	}
}

// Critical logs a message for conditions the process cannot recover from
func (l *Logger) Critical(format string, v ...interface{}) {
	l.output(CRITICAL, l.formatMessage(CRITICAL, fmt.Sprintf(format, v...)))
}

// LogError logs a GameError with appropriate context
func (l *Logger) LogError(err error) {
	var gameErr *types.GameError
	if types.As(err, &gameErr) {
		context := []string{
			fmt.Sprintf("Code: %s", gameErr.Code),
			fmt.Sprintf("Message: %s", gameErr.Message),
		}
		if gameErr.Err != nil {
			context = append(context, fmt.Sprintf("Cause: %v", gameErr.Err))
		}

		l.Error("Game error occurred:\n\t%s", strings.Join(context, "\n\t"))
	} else {
		l.Error("Unexpected error: %v", err)
	}
}

// Default logger instance
var Default = NewLogger(INFO)
