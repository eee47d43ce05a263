// Package logging is the shared component logger for the icepick CLI, the
// launch TUI and the mods watcher.
//
//	if err := logging.Init(logging.DefaultConfig()); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logging.Get("repository").Info("mods loaded", "count", 12)
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level is a logging severity.
type Level int

// Levels, least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned by ParseLevel for unknown level names.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel converts a level name to a Level. "warning" is accepted as an
// alias of "warn".
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		name = "warn"
	}
	for lvl, n := range levelNames {
		if n == name {
			return lvl, nil
		}
	}
	return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
}

// Config configures the logging system.
type Config struct {
	// Level applies to every component without an override.
	Level string

	// Path of the log file. Empty means DefaultLogPath().
	Path string

	Rotation RotationConfig

	// Components overrides Level per component name.
	Components map[string]string

	// ConsoleLevel mirrors records at or above this level to stderr.
	// Empty disables the console sink.
	ConsoleLevel string

	// TUIMode suppresses the console sink and keeps recent records in a
	// ring buffer for display.
	TUIMode bool
}

// DefaultConfig returns an info-level config writing to DefaultLogPath.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}

// DefaultLogPath is $XDG_STATE_HOME/icepick/icepick.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "icepick", "icepick.log")
}

// LogEntry is a record delivered to subscribers and the TUI buffer.
type LogEntry struct {
	Time      time.Time
	Level     Level
	Component string
	Message   string
}

// Logger is a component-scoped logger. The zero console sink means records
// only go to the file.
type Logger struct {
	component string
	file      *log.Logger
	console   *log.Logger
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.write(LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.write(LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.write(LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.write(LevelError, msg, args) }

// With returns a logger that adds the given key/value pairs to every record.
func (l *Logger) With(args ...interface{}) *Logger {
	out := &Logger{component: l.component, file: l.file.With(args...)}
	if l.console != nil {
		out.console = l.console.With(args...)
	}
	return out
}

func (l *Logger) write(level Level, msg string, args []interface{}) {
	emit(l.file, level, msg, args)
	if l.console != nil {
		emit(l.console, level, msg, args)
	}
	registry.publish(LogEntry{
		Time:      time.Now(),
		Level:     level,
		Component: l.component,
		Message:   msg,
	})
}

func emit(dst *log.Logger, level Level, msg string, args []interface{}) {
	switch level {
	case LevelDebug:
		dst.Debug(msg, args...)
	case LevelInfo:
		dst.Info(msg, args...)
	case LevelWarn:
		dst.Warn(msg, args...)
	case LevelError:
		dst.Error(msg, args...)
	}
}

type loggerRegistry struct {
	mu          sync.RWMutex
	ready       bool
	writer      *RotatingWriter
	level       Level
	overrides   map[string]Level
	console     *Level
	tui         bool
	buffer      *LogBuffer
	loggers     map[string]*Logger
	subscribers map[chan LogEntry]struct{}
}

var registry = &loggerRegistry{
	overrides:   map[string]Level{},
	loggers:     map[string]*Logger{},
	subscribers: map[chan LogEntry]struct{}{},
}

// Init (re)configures logging. Loggers handed out earlier are rebuilt so
// they pick up the new sinks. Until Init is called every logger discards.
func Init(cfg Config) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	overrides := make(map[string]Level, len(cfg.Components))
	for component, name := range cfg.Components {
		lvl, err := ParseLevel(name)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", component, err)
		}
		overrides[component] = lvl
	}

	var console *Level
	if cfg.ConsoleLevel != "" && !cfg.TUIMode {
		lvl, err := ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		console = &lvl
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	if registry.writer != nil {
		_ = registry.writer.Close()
	}

	registry.writer = writer
	registry.level = level
	registry.overrides = overrides
	registry.console = console
	registry.tui = cfg.TUIMode
	registry.buffer = nil
	if cfg.TUIMode {
		registry.buffer = NewLogBuffer(DefaultBufferSize)
	}
	registry.ready = true

	for component := range registry.loggers {
		registry.loggers[component] = registry.build(component)
	}
	return nil
}

// Get returns the logger for component, creating it on first use.
func Get(component string) *Logger {
	registry.mu.RLock()
	l, ok := registry.loggers[component]
	registry.mu.RUnlock()
	if ok {
		return l
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	if l, ok := registry.loggers[component]; ok {
		return l
	}
	l = registry.build(component)
	registry.loggers[component] = l
	return l
}

// build must be called with the registry lock held.
func (r *loggerRegistry) build(component string) *Logger {
	level := r.level
	if lvl, ok := r.overrides[component]; ok {
		level = lvl
	}

	if !r.ready {
		return &Logger{
			component: component,
			file: log.NewWithOptions(io.Discard, log.Options{
				Level:  level.charm(),
				Prefix: component,
			}),
		}
	}

	l := &Logger{
		component: component,
		file: log.NewWithOptions(r.writer, log.Options{
			Level:           level.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
	}
	if r.console != nil && !r.tui {
		l.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           r.console.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Prefix:          component,
		})
	}
	return l
}

// Close flushes the log file and closes subscriber channels. Loggers
// obtained afterwards discard until the next Init.
func Close() error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if !registry.ready {
		return nil
	}

	for ch := range registry.subscribers {
		close(ch)
		delete(registry.subscribers, ch)
	}

	var err error
	if registry.writer != nil {
		if cerr := registry.writer.Close(); cerr != nil {
			err = fmt.Errorf("closing log writer: %w", cerr)
		}
		registry.writer = nil
	}

	registry.ready = false
	registry.loggers = map[string]*Logger{}
	registry.overrides = map[string]Level{}
	return err
}

// Subscribe returns a buffered channel receiving every record. Records are
// dropped for a subscriber whose buffer is full.
func Subscribe() <-chan LogEntry {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	ch := make(chan LogEntry, 100)
	registry.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe stops delivery to ch. The channel is left open so the caller
// can drain it.
func Unsubscribe(ch <-chan LogEntry) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	for sub := range registry.subscribers {
		if sub == ch {
			delete(registry.subscribers, sub)
			return
		}
	}
}

func (r *loggerRegistry) publish(entry LogEntry) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.buffer != nil {
		r.buffer.Add(entry)
	}
	for ch := range r.subscribers {
		select {
		case ch <- entry:
		default:
		}
	}
}

// GetLogBuffer returns the TUI ring buffer, or nil outside TUI mode.
func GetLogBuffer() *LogBuffer {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.buffer
}
