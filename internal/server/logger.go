package server

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

// Logger interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// Level is a log severity. Messages below a logger's level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel accepts debug, info, warn (or warning) and error in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// DefaultLogger writes one line per message:
//
//	[2006-01-02 15:04:05.000] INFO: msg | key=value ...
type DefaultLogger struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	colors map[Level]*color.Color
	now    func() time.Time
}

// NewDefaultLogger logs info and above to stdout, coloured when stdout is a
// terminal.
func NewDefaultLogger() *DefaultLogger {
	return NewLogger(os.Stdout, LevelInfo, !color.NoColor)
}

func NewLogger(out io.Writer, level Level, useColor bool) *DefaultLogger {
	colors := map[Level]*color.Color{
		LevelDebug: color.New(color.FgHiBlack),
		LevelInfo:  color.New(color.FgGreen),
		LevelWarn:  color.New(color.FgYellow),
		LevelError: color.New(color.FgRed, color.Bold),
	}
	for _, c := range colors {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return &DefaultLogger{
		out:    out,
		level:  level,
		colors: colors,
		now:    time.Now,
	}
}

func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields...)
}

func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields...)
}

func (l *DefaultLogger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields...)
}

func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields...)
}

func (l *DefaultLogger) log(level Level, msg string, fields ...Field) {
	if level < l.level {
		return
	}

	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(l.now().Format("2006-01-02 15:04:05.000"))
	sb.WriteString("] ")
	sb.WriteString(l.colors[level].Sprint(level.String()))
	sb.WriteString(": ")
	sb.WriteString(msg)

	if len(fields) > 0 {
		sb.WriteString(" |")
		for _, f := range fields {
			fmt.Fprintf(&sb, " %s=%v", f.Key, sanitizeValue(f.Value))
		}
	}
	sb.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.out, sb.String())
}

// sanitizeValue truncates long strings; request lines and paths come from
// the client.
func sanitizeValue(v interface{}) interface{} {
	if s, ok := v.(string); ok {
		if len(s) > 100 {
			return s[:100] + "...[truncated]"
		}
	}
	return v
}

// AsyncLogger hands entries to a background goroutine so callers never
// block on log output. When the queue is full the entry is dropped and
// counted.
type AsyncLogger struct {
	next    Logger
	queue   chan logEntry
	done    chan struct{}
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

type logEntry struct {
	level  Level
	msg    string
	fields []Field
}

func NewAsyncLogger(next Logger, queueSize int) *AsyncLogger {
	if queueSize < 1 {
		queueSize = 1
	}
	l := &AsyncLogger{
		next:  next,
		queue: make(chan logEntry, queueSize),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *AsyncLogger) run() {
	defer close(l.done)
	for e := range l.queue {
		switch e.level {
		case LevelDebug:
			l.next.Debug(e.msg, e.fields...)
		case LevelInfo:
			l.next.Info(e.msg, e.fields...)
		case LevelWarn:
			l.next.Warn(e.msg, e.fields...)
		default:
			l.next.Error(e.msg, e.fields...)
		}
	}
}

func (l *AsyncLogger) enqueue(level Level, msg string, fields []Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	select {
	case l.queue <- logEntry{level: level, msg: msg, fields: fields}:
	default:
		l.dropped.Add(1)
	}
}

func (l *AsyncLogger) Debug(msg string, fields ...Field) { l.enqueue(LevelDebug, msg, fields) }
func (l *AsyncLogger) Info(msg string, fields ...Field)  { l.enqueue(LevelInfo, msg, fields) }
func (l *AsyncLogger) Warn(msg string, fields ...Field)  { l.enqueue(LevelWarn, msg, fields) }
func (l *AsyncLogger) Error(msg string, fields ...Field) { l.enqueue(LevelError, msg, fields) }

// Dropped returns how many entries were discarded.
func (l *AsyncLogger) Dropped() int64 {
	return l.dropped.Load()
}

// Close stops accepting entries and waits until the queue is written out.
func (l *AsyncLogger) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()
	<-l.done
}

// NullLogger discards all logs (for testing)
type NullLogger struct{}

func (n *NullLogger) Debug(msg string, fields ...Field) {}
func (n *NullLogger) Info(msg string, fields ...Field)  {}
func (n *NullLogger) Error(msg string, fields ...Field) {}
func (n *NullLogger) Warn(msg string, fields ...Field)  {}
