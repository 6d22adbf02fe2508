/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

// Package logger is the engine's structured, leveled logger with file
// rotation. No third-party logging library appears anywhere in the
// retrieval pack, so this stays an in-house implementation (see DESIGN.md).
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"cepengine/internal/config"
)

// Level is a log severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
	Fatal
)

// String returns the level's name.
func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a config string into a Level, defaulting to Info.
func ParseLevel(level string) Level {
	switch level {
	case "debug":
		return Debug
	case "info":
		return Info
	case "warn":
		return Warn
	case "error":
		return Error
	case "fatal":
		return Fatal
	default:
		return Info
	}
}

// Field is a structured key/value attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field        { return Field{Key: key, Value: value} }
func Int(key string, value int) Field        { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field    { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field      { return Field{Key: key, Value: value} }
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Entry is one emitted log record.
type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Fields    []Field
}

// Logger is the concrete leveled logger, writing through an optional
// rotator and/or stdout.
type Logger struct {
	level     Level
	formatter Formatter
	writer    io.Writer
	rotator   *Rotator
	mu        sync.Mutex
}

// New builds a Logger from config. Directory "" disables file rotation and
// keeps console-only output (handy in tests).
func New(cfg config.LoggerConfig) (*Logger, error) {
	var writer io.Writer
	var rotator *Rotator

	if cfg.Directory != "" {
		if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}

		var err error
		rotator, err = NewRotator(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create rotator: %w", err)
		}
		writer = rotator
		if cfg.EnableConsole {
			writer = io.MultiWriter(os.Stdout, rotator)
		}
	} else {
		writer = os.Stdout
	}

	return &Logger{
		level:     ParseLevel(cfg.Level),
		formatter: NewFormatter(cfg.Format),
		writer:    writer,
		rotator:   rotator,
	}, nil
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(Debug, msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(Info, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(Warn, msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(Error, msg, fields...) }

// Fatal logs then exits the process.
func (l *Logger) Fatal(msg string, fields ...Field) {
	l.log(Fatal, msg, fields...)
	os.Exit(1)
}

func (l *Logger) log(level Level, msg string, fields ...Field) {
	if level < l.level {
		return
	}

	entry := &Entry{Timestamp: time.Now(), Level: level, Message: msg, Fields: fields}
	formatted := l.formatter.Format(entry)

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.writer, formatted)
}

// SetLevel changes the minimum emitted level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Close releases the underlying rotator's file handle, if any.
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// ComponentLogger tags every entry with a component name, the shape
// consumed by the rest of the engine so packages never reach for the
// global logger directly.
type ComponentLogger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
}

type componentLogger struct {
	base      *Logger
	component string
}

// NewComponentLogger wraps base, tagging every record with component.
func NewComponentLogger(base *Logger, component string) ComponentLogger {
	return &componentLogger{base: base, component: component}
}

func (c *componentLogger) fields(fields []Field) []Field {
	return append([]Field{String("component", c.component)}, fields...)
}

func (c *componentLogger) Debug(msg string, fields ...Field) { c.base.Debug(msg, c.fields(fields)...) }
func (c *componentLogger) Info(msg string, fields ...Field)  { c.base.Info(msg, c.fields(fields)...) }
func (c *componentLogger) Warn(msg string, fields ...Field)  { c.base.Warn(msg, c.fields(fields)...) }
func (c *componentLogger) Error(msg string, fields ...Field) { c.base.Error(msg, c.fields(fields)...) }
func (c *componentLogger) Fatal(msg string, fields ...Field) { c.base.Fatal(msg, c.fields(fields)...) }
