// File: logger_test.go
// Title: Logger Tests
// Description: Tests for level filtering, formatting, context fields, error
//              severity mapping and timers.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-12 v0.2.0: Parse id and span field coverage

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/msto63/mcif/pkg/cif/span"
	mdwerror "github.com/msto63/mcif/pkg/core/error"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConfig(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	logger.Debug("hidden")
	logger.Info("shown")
	logger.Warn("also shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["message"] != "shown" || lines[0]["level"] != "info" {
		t.Errorf("unexpected first entry: %v", lines[0])
	}
}

func TestLogger_ContextIsImmutable(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithConfig(Config{Level: LevelDebug, Output: &buf, Name: "cif"})
	child := base.WithField("component", "pass1").WithParseID("p-1")

	base.Info("from base")
	child.Info("from child", Field("blocks", 2))

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if _, ok := lines[0]["component"]; ok {
		t.Error("base logger must not see child fields")
	}
	if lines[1]["component"] != "pass1" || lines[1]["parse_id"] != "p-1" {
		t.Errorf("child context missing: %v", lines[1])
	}
	if lines[1]["blocks"] != float64(2) {
		t.Errorf("blocks = %v", lines[1]["blocks"])
	}
	if lines[1]["logger"] != "cif" {
		t.Errorf("logger = %v", lines[1]["logger"])
	}
}

func TestLogger_LogErrorSeverity(t *testing.T) {
	sp := span.Span{StartLine: 3, StartCol: 1, EndLine: 3, EndCol: 6}

	tests := []struct {
		name      string
		err       error
		wantLevel string
	}{
		{"plain error", errors.New("boom"), "error"},
		{"dialect violation", mdwerror.New("doubled quote").WithCode(mdwerror.CodeDialectViolation).WithSpan(sp), "warn"},
		{"structure", mdwerror.New("loop has no tags").WithCode(mdwerror.CodeStructure), "error"},
		{"not found", mdwerror.New("missing").WithCode(mdwerror.CodeNotFound), "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithConfig(Config{Level: LevelTrace, Output: &buf})
			logger.LogError(tt.err)

			lines := decodeLines(t, &buf)
			if len(lines) != 1 {
				t.Fatalf("got %d lines, want 1", len(lines))
			}
			if lines[0]["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %v", lines[0]["level"], tt.wantLevel)
			}
		})
	}

	var buf bytes.Buffer
	logger := NewWithConfig(Config{Level: LevelTrace, Output: &buf})
	logger.LogError(mdwerror.New("doubled quote").WithCode(mdwerror.CodeDialectViolation).WithSpan(sp))
	lines := decodeLines(t, &buf)
	if lines[0]["error_span"] != "3:1-3:6" {
		t.Errorf("error_span = %v", lines[0]["error_span"])
	}
	if _, ok := lines[0]["error_details"]; !ok {
		t.Error("error_details missing")
	}
}

func TestTextFormatter(t *testing.T) {
	f := NewTextFormatter()
	f.DisableTimestamp = true

	entry := NewEntry(LevelWarn, "strict parse failed")
	entry.ParseID = "abc"
	entry.Fields["rule"] = "CIF2_EMPTY_BLOCK_NAME"
	entry.Fields["blocks"] = 1

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "[WRN] (parse=abc) strict parse failed [blocks=1 rule=CIF2_EMPTY_BLOCK_NAME]\n"
	if string(out) != want {
		t.Errorf("Format() = %q, want %q", out, want)
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	if l, err := ParseLevel("WARNING"); err != nil || l != LevelWarn {
		t.Errorf("ParseLevel(WARNING) = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) should fail")
	}
	if f, err := ParseFormat("console"); err != nil || f != FormatConsole {
		t.Errorf("ParseFormat(console) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestTimer(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConfig(Config{Level: LevelDebug, Output: &buf})

	timer := logger.StartTimer("pass1").WithField("nodes", 10)
	if d := timer.Stop(); d <= 0 {
		t.Errorf("Stop() = %v, want > 0", d)
	}
	if d := timer.Stop(); d != 0 {
		t.Errorf("second Stop() = %v, want 0", d)
	}

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0]["message"] != "pass1 completed" || lines[0]["operation"] != "pass1" {
		t.Errorf("unexpected timer entry: %v", lines[0])
	}
	if _, ok := lines[0]["duration_ms"]; !ok {
		t.Error("duration_ms missing")
	}
}

func TestLogger_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConfig(Config{Level: LevelInfo, Output: &buf})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l := logger.WithParseID("p")
			for j := 0; j < 50; j++ {
				l.Info("entry", Field("worker", i))
			}
		}(i)
	}
	wg.Wait()

	if n := len(decodeLines(t, &buf)); n != 400 {
		t.Errorf("got %d lines, want 400", n)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l.IsLevelEnabled(LevelFatal) {
		t.Error("Discard logger should have every level disabled")
	}
	l.Error("dropped")
}
