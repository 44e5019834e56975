// File: entry.go
// Title: Log Entry and Fields
// Description: Defines the Entry passed to formatters and the Fields helper
//              used for structured key-value context.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-12 v0.2.0: Parse id replaces request/user/correlation ids

package log

import (
	"time"
)

// Entry represents a single log entry with all its metadata
type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Logger    string

	// ParseID correlates all entries written during one parse call
	ParseID string

	Fields   Fields
	Error    error
	Duration time.Duration
}

// Fields represents custom key-value pairs for structured logging
type Fields map[string]interface{}

// Field creates a single field for logging
func Field(key string, value interface{}) Fields {
	return Fields{key: value}
}

// Err creates an error field
func Err(err error) Fields {
	return Fields{"error": err}
}

// Merge returns a new Fields holding f overlaid with other
func (f Fields) Merge(other Fields) Fields {
	out := make(Fields, len(f)+len(other))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// NewEntry creates a new log entry
func NewEntry(level Level, message string) *Entry {
	return &Entry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    make(Fields),
	}
}
