// File: logger.go
// Title: Core Logger Implementation
// Description: Implements the Logger type that provides structured logging
//              with contextual fields, pluggable formats and integration with
//              the structured error package. Loggers are immutable: every
//              With* call returns a configured clone, so one logger may be
//              shared by concurrent parse calls.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging
// - 2026-10-12 v0.2.0: Parse id context, dropped async and caller capture

package log

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	mdwerror "github.com/msto63/mcif/pkg/core/error"
)

// Logger represents a structured logger with contextual information
type Logger struct {
	level     Level
	formatter Formatter
	name      string
	parseID   string

	contextFields Fields

	// out is shared between clones so writes stay serialized
	out *syncWriter
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Config represents logger configuration
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
	Name   string
}

var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
)

// New creates a new logger writing JSON to stderr at the default level
func New() *Logger {
	return &Logger{
		level:         DefaultLevel(),
		formatter:     NewJSONFormatter(),
		contextFields: make(Fields),
		out:           &syncWriter{w: os.Stderr},
	}
}

// NewWithConfig creates a new logger with the specified configuration
func NewWithConfig(config Config) *Logger {
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	return &Logger{
		level:         config.Level,
		formatter:     GetFormatter(config.Format),
		name:          config.Name,
		contextFields: make(Fields),
		out:           &syncWriter{w: output},
	}
}

// GetDefault returns the process default logger
func GetDefault() *Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New().WithLevel(LevelWarn)
	}
	return defaultLogger
}

// SetDefault replaces the process default logger
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return NewWithConfig(Config{Level: LevelFatal + 1, Output: io.Discard})
}

// WithLevel sets the minimum log level
func (l *Logger) WithLevel(level Level) *Logger {
	clone := l.clone()
	clone.level = level
	return clone
}

// WithFormat sets the log format
func (l *Logger) WithFormat(format Format) *Logger {
	clone := l.clone()
	clone.formatter = GetFormatter(format)
	return clone
}

// WithOutput sets the output destination
func (l *Logger) WithOutput(output io.Writer) *Logger {
	clone := l.clone()
	clone.out = &syncWriter{w: output}
	return clone
}

// WithName sets the logger name
func (l *Logger) WithName(name string) *Logger {
	clone := l.clone()
	clone.name = name
	return clone
}

// WithField adds a persistent field to all log entries
func (l *Logger) WithField(key string, value interface{}) *Logger {
	clone := l.clone()
	clone.contextFields[key] = value
	return clone
}

// WithFields adds persistent fields to all log entries
func (l *Logger) WithFields(fields Fields) *Logger {
	clone := l.clone()
	for k, v := range fields {
		clone.contextFields[k] = v
	}
	return clone
}

// WithParseID tags every entry with the id of one parse call
func (l *Logger) WithParseID(id string) *Logger {
	clone := l.clone()
	clone.parseID = id
	return clone
}

// Trace logs a trace level message
func (l *Logger) Trace(message string, fields ...Fields) {
	l.log(LevelTrace, message, nil, fields...)
}

// Debug logs a debug level message
func (l *Logger) Debug(message string, fields ...Fields) {
	l.log(LevelDebug, message, nil, fields...)
}

// Info logs an info level message
func (l *Logger) Info(message string, fields ...Fields) {
	l.log(LevelInfo, message, nil, fields...)
}

// Warn logs a warning level message
func (l *Logger) Warn(message string, fields ...Fields) {
	l.log(LevelWarn, message, nil, fields...)
}

// Error logs an error level message
func (l *Logger) Error(message string, fields ...Fields) {
	l.log(LevelError, message, nil, fields...)
}

// Fatal logs a fatal level message and exits the program
func (l *Logger) Fatal(message string, fields ...Fields) {
	l.log(LevelFatal, message, nil, fields...)
	os.Exit(1)
}

// ErrorWithErr logs an error with an error object
func (l *Logger) ErrorWithErr(message string, err error, fields ...Fields) {
	l.log(LevelError, message, err, fields...)
}

// WarnWithErr logs a warning with an error object
func (l *Logger) WarnWithErr(message string, err error, fields ...Fields) {
	l.log(LevelWarn, message, err, fields...)
}

// LogError logs an error, picking the level from its severity
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}

	var mdwErr *mdwerror.Error
	if !errors.As(err, &mdwErr) {
		l.log(LevelError, err.Error(), err)
		return
	}

	fields := Fields{
		"error_code":     mdwErr.Code(),
		"error_severity": mdwErr.Severity().String(),
	}
	if op := mdwErr.Operation(); op != "" {
		fields["error_operation"] = op
	}
	if sp, ok := mdwErr.Span(); ok {
		fields["error_span"] = sp.String()
	}
	for k, v := range mdwErr.Details() {
		fields["error_"+k] = v
	}

	switch mdwErr.Severity() {
	case mdwerror.SeverityLow:
		l.log(LevelInfo, err.Error(), err, fields)
	case mdwerror.SeverityMedium:
		l.log(LevelWarn, err.Error(), err, fields)
	default:
		l.log(LevelError, err.Error(), err, fields)
	}
}

// StartTimer creates and starts a new performance timer
func (l *Logger) StartTimer(operation string) *Timer {
	return NewTimer(l, operation)
}

// IsLevelEnabled returns true if the given level is enabled
func (l *Logger) IsLevelEnabled(level Level) bool {
	return level.ShouldLog(l.level)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() Level {
	return l.level
}

func (l *Logger) log(level Level, message string, err error, fields ...Fields) {
	l.write(level, message, err, 0, fields...)
}

func (l *Logger) write(level Level, message string, err error, d time.Duration, fields ...Fields) {
	if !level.ShouldLog(l.level) {
		return
	}

	entry := NewEntry(level, message)
	entry.Logger = l.name
	entry.ParseID = l.parseID
	entry.Error = err
	entry.Duration = d

	for k, v := range l.contextFields {
		entry.Fields[k] = v
	}
	for _, fieldSet := range fields {
		for k, v := range fieldSet {
			entry.Fields[k] = v
		}
	}

	if formatted, formatErr := l.formatter.Format(entry); formatErr == nil {
		_, _ = l.out.Write(formatted)
	}
}

func (l *Logger) clone() *Logger {
	clone := &Logger{
		level:         l.level,
		formatter:     l.formatter,
		name:          l.name,
		parseID:       l.parseID,
		contextFields: make(Fields, len(l.contextFields)),
		out:           l.out,
	}
	for k, v := range l.contextFields {
		clone.contextFields[k] = v
	}
	return clone
}
