// File: error.go
// Title: Core Error Implementation
// Description: Implements the Error type used across the CIF pipeline. An
//              Error carries a code, a severity, free-form details, the
//              operation that failed, the parse id it belongs to and, when
//              available, the source span of the offending construct.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-13
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors
// - 2026-10-13 v0.2.0: Source spans; dropped user/localization context

package error

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/msto63/mcif/pkg/cif/span"
)

// MaxStackFrames limits the number of stack frames captured
const MaxStackFrames = 16

// Error represents a structured error with context, codes, and metadata
type Error struct {
	message   string
	cause     error
	code      Code
	severity  Severity
	timestamp time.Time

	details   map[string]interface{}
	operation string
	requestID string

	span    span.Span
	hasSpan bool

	stackTrace []StackFrame
}

// StackFrame represents a single frame in the stack trace
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// New creates a new Error with the given message
func New(message string) *Error {
	return &Error{
		message:    message,
		code:       CodeUnknown,
		severity:   SeverityMedium,
		timestamp:  time.Now(),
		details:    make(map[string]interface{}),
		stackTrace: captureStackTrace(2),
	}
}

// Newf creates a new Error with a formatted message
func Newf(format string, args ...interface{}) *Error {
	e := New(fmt.Sprintf(format, args...))
	e.stackTrace = captureStackTrace(2)
	return e
}

// Wrap wraps an existing error with additional context. Code, severity,
// span and details of a wrapped *Error are inherited.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	wrapped := &Error{
		message:    message,
		cause:      err,
		code:       CodeUnknown,
		severity:   SeverityMedium,
		timestamp:  time.Now(),
		details:    make(map[string]interface{}),
		stackTrace: captureStackTrace(2),
	}

	var inner *Error
	if errors.As(err, &inner) {
		wrapped.code = inner.code
		wrapped.severity = inner.severity
		wrapped.span = inner.span
		wrapped.hasSpan = inner.hasSpan
		wrapped.requestID = inner.requestID
		for k, v := range inner.details {
			wrapped.details[k] = v
		}
	}
	return wrapped
}

// Error implements the standard error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.message, e.cause.Error())
	}
	return e.message
}

// Unwrap returns the underlying cause for error unwrapping
func (e *Error) Unwrap() error {
	return e.cause
}

// WithCode sets the error code. The severity follows the code unless it was
// set explicitly before.
func (e *Error) WithCode(code Code) *Error {
	e.code = code
	if e.severity == SeverityMedium {
		e.severity = GetSeverityFromCode(code)
	}
	return e
}

// WithSeverity sets the error severity
func (e *Error) WithSeverity(severity Severity) *Error {
	e.severity = severity
	return e
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.details[key] = value
	return e
}

// WithDetails adds multiple key-value details to the error
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	for k, v := range details {
		e.details[k] = v
	}
	return e
}

// WithOperation sets the operation that caused the error
func (e *Error) WithOperation(operation string) *Error {
	e.operation = operation
	return e
}

// WithRequestID sets the id of the parse call the error belongs to
func (e *Error) WithRequestID(requestID string) *Error {
	e.requestID = requestID
	return e
}

// WithSpan attaches the source location of the offending construct
func (e *Error) WithSpan(s span.Span) *Error {
	e.span = s
	e.hasSpan = true
	return e
}

// Message returns the message without the cause chain
func (e *Error) Message() string { return e.message }

// Code returns the error code
func (e *Error) Code() Code { return e.code }

// Severity returns the error severity
func (e *Error) Severity() Severity { return e.severity }

// Timestamp returns when the error occurred
func (e *Error) Timestamp() time.Time { return e.timestamp }

// Operation returns the operation that caused the error
func (e *Error) Operation() string { return e.operation }

// RequestID returns the parse id associated with the error
func (e *Error) RequestID() string { return e.requestID }

// Span returns the source span, if one was attached
func (e *Error) Span() (span.Span, bool) { return e.span, e.hasSpan }

// Details returns a copy of the error details
func (e *Error) Details() map[string]interface{} {
	result := make(map[string]interface{}, len(e.details))
	for k, v := range e.details {
		result[k] = v
	}
	return result
}

// Detail returns a single detail value
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.details[key]
	return v, ok
}

// StackTrace returns the stack trace
func (e *Error) StackTrace() []StackFrame {
	result := make([]StackFrame, len(e.stackTrace))
	copy(result, e.stackTrace)
	return result
}

// RootCause returns the deepest error in the chain
func (e *Error) RootCause() error {
	var last error = e
	for cur := errors.Unwrap(error(e)); cur != nil; cur = errors.Unwrap(cur) {
		last = cur
	}
	return last
}

// String returns a detailed multi-line representation of the error
func (e *Error) String() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Error: %s", e.message))
	parts = append(parts, fmt.Sprintf("Code: %s", e.code))
	parts = append(parts, fmt.Sprintf("Severity: %s", e.severity))
	if e.hasSpan {
		parts = append(parts, fmt.Sprintf("Span: %s", e.span))
	}
	if e.operation != "" {
		parts = append(parts, fmt.Sprintf("Operation: %s", e.operation))
	}
	if e.requestID != "" {
		parts = append(parts, fmt.Sprintf("RequestID: %s", e.requestID))
	}
	if len(e.details) > 0 {
		keys := make([]string, 0, len(e.details))
		for k := range e.details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		detailStrs := make([]string, 0, len(keys))
		for _, k := range keys {
			detailStrs = append(detailStrs, fmt.Sprintf("%s=%v", k, e.details[k]))
		}
		parts = append(parts, fmt.Sprintf("Details: {%s}", strings.Join(detailStrs, ", ")))
	}
	if e.cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %s", e.cause.Error()))
	}

	return strings.Join(parts, "\n")
}

// MarshalJSON implements json.Marshaler for structured logging
func (e *Error) MarshalJSON() ([]byte, error) {
	data := map[string]interface{}{
		"message":   e.message,
		"code":      e.code,
		"severity":  e.severity.String(),
		"timestamp": e.timestamp.Format(time.RFC3339),
	}
	if len(e.details) > 0 {
		data["details"] = e.details
	}
	if e.hasSpan {
		data["span"] = e.span
	}
	if e.operation != "" {
		data["operation"] = e.operation
	}
	if e.requestID != "" {
		data["request_id"] = e.requestID
	}
	if e.cause != nil {
		data["cause"] = e.cause.Error()
	}
	return json.Marshal(data)
}

func captureStackTrace(skip int) []StackFrame {
	pcs := make([]uintptr, MaxStackFrames)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	result := make([]StackFrame, 0, n)
	for {
		f, more := frames.Next()
		result = append(result, StackFrame{Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}
	return result
}

// HasCode checks if any error in the chain has the given code
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.code == code
	}
	return false
}

// GetCode returns the error code from an error, or CodeUnknown if it is not
// one of ours
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeUnknown
}

// GetSeverity returns the severity of an error, or SeverityMedium
func GetSeverity(err error) Severity {
	var e *Error
	if errors.As(err, &e) {
		return e.severity
	}
	return SeverityMedium
}

// SpanOf returns the source span carried by err, if any
func SpanOf(err error) (span.Span, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Span()
	}
	return span.Span{}, false
}
