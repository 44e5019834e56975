// File: timer.go
// Title: Performance Timer
// Description: Measures the duration of an operation and logs it on stop.
//              The parser times each pass with it.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-12 v0.2.0: Duration carried on the entry instead of fields

package log

import (
	"time"
)

// Timer represents a performance timer for measuring operation duration
type Timer struct {
	logger    *Logger
	operation string
	startTime time.Time
	fields    Fields
	level     Level
	stopped   bool
}

// NewTimer creates a new timer for the given operation
func NewTimer(logger *Logger, operation string) *Timer {
	return &Timer{
		logger:    logger,
		operation: operation,
		startTime: time.Now(),
		fields:    make(Fields),
		level:     LevelDebug,
	}
}

// WithLevel sets the log level for the timer completion message
func (t *Timer) WithLevel(level Level) *Timer {
	t.level = level
	return t
}

// WithField adds a field to be logged when the timer completes
func (t *Timer) WithField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// Elapsed returns the elapsed time since the timer was started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.startTime)
}

// Stop stops the timer and logs the elapsed time. Stopping twice is a no-op
// that returns zero.
func (t *Timer) Stop() time.Duration {
	if t.stopped {
		return 0
	}
	t.stopped = true
	elapsed := t.Elapsed()

	if t.logger != nil {
		t.fields["operation"] = t.operation
		t.logger.write(t.level, t.operation+" completed", nil, elapsed, t.fields)
	}
	return elapsed
}

// StopWithError stops the timer and logs the failure with the elapsed time
func (t *Timer) StopWithError(err error) time.Duration {
	if t.stopped {
		return 0
	}
	t.stopped = true
	elapsed := t.Elapsed()

	if t.logger != nil {
		t.fields["operation"] = t.operation
		t.logger.write(LevelWarn, t.operation+" failed", err, elapsed, t.fields)
	}
	return elapsed
}
