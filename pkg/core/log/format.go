// File: format.go
// Title: Log Formatters
// Description: JSON, text and console formatters for log entries.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with JSON/text/console/logfmt
// - 2026-10-12 v0.2.0: Dropped logfmt, sorted field output

package log

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Format represents a log output format
type Format int

const (
	FormatJSON Format = iota
	FormatText
	FormatConsole
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	case FormatConsole:
		return "console"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format name
func ParseFormat(format string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return FormatJSON, nil
	case "text", "plain":
		return FormatText, nil
	case "console", "color":
		return FormatConsole, nil
	default:
		return FormatJSON, &ParseError{Input: format, Type: "format"}
	}
}

// Formatter turns an entry into bytes
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// GetFormatter returns the formatter for a format
func GetFormatter(format Format) Formatter {
	switch format {
	case FormatText:
		return NewTextFormatter()
	case FormatConsole:
		return NewConsoleFormatter()
	default:
		return NewJSONFormatter()
	}
}

// JSONFormatter formats log entries as JSON
type JSONFormatter struct {
	PrettyPrint     bool
	TimestampFormat string
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{TimestampFormat: time.RFC3339}
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+6)

	data["timestamp"] = entry.Timestamp.Format(f.TimestampFormat)
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	if entry.Logger != "" {
		data["logger"] = entry.Logger
	}
	if entry.ParseID != "" {
		data["parse_id"] = entry.ParseID
	}
	for k, v := range entry.Fields {
		if e, ok := v.(error); ok {
			v = e.Error()
		}
		data[k] = v
	}
	if entry.Error != nil {
		data["error"] = entry.Error.Error()
		if m, ok := entry.Error.(json.Marshaler); ok {
			if raw, err := m.MarshalJSON(); err == nil {
				data["error_details"] = json.RawMessage(raw)
			}
		}
	}
	if entry.Duration > 0 {
		data["duration_ms"] = float64(entry.Duration.Nanoseconds()) / 1e6
	}

	var (
		out []byte
		err error
	)
	if f.PrettyPrint {
		out, err = json.MarshalIndent(data, "", "  ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// TextFormatter formats log entries as human-readable text
type TextFormatter struct {
	TimestampFormat  string
	DisableTimestamp bool
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{TimestampFormat: "15:04:05"}
}

// Format formats a log entry as text
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	return []byte(f.render(entry, entry.Level.ShortString()) + "\n"), nil
}

func (f *TextFormatter) render(entry *Entry, level string) string {
	var parts []string

	if !f.DisableTimestamp {
		parts = append(parts, entry.Timestamp.Format(f.TimestampFormat))
	}
	parts = append(parts, fmt.Sprintf("[%s]", level))
	if entry.Logger != "" {
		parts = append(parts, fmt.Sprintf("{%s}", entry.Logger))
	}
	if entry.ParseID != "" {
		parts = append(parts, fmt.Sprintf("(parse=%s)", entry.ParseID))
	}
	parts = append(parts, entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fieldParts := make([]string, 0, len(keys))
		for _, k := range keys {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		parts = append(parts, fmt.Sprintf("[%s]", strings.Join(fieldParts, " ")))
	}
	if entry.Error != nil {
		parts = append(parts, fmt.Sprintf("error=%q", entry.Error.Error()))
	}
	if entry.Duration > 0 {
		parts = append(parts, fmt.Sprintf("duration=%s", entry.Duration))
	}
	return strings.Join(parts, " ")
}

// ConsoleFormatter is a TextFormatter with ANSI-colored levels
type ConsoleFormatter struct {
	DisableColors bool
	*TextFormatter
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{TextFormatter: NewTextFormatter()}
}

// Format formats a log entry for a terminal
func (f *ConsoleFormatter) Format(entry *Entry) ([]byte, error) {
	level := entry.Level.ShortString()
	if !f.DisableColors {
		level = entry.Level.Color() + level + "\033[0m"
	}
	return []byte(f.render(entry, level) + "\n"), nil
}
