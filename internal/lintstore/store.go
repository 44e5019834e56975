// Package lintstore keeps a history of lint runs so repeated checks of the
// same files can be compared over time.
package lintstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/msto63/mcif/pkg/cif"
)

// Run is one recorded lint of one source file
type Run struct {
	ID         string          `json:"id" yaml:"id"`
	Timestamp  time.Time       `json:"timestamp" yaml:"timestamp"`
	Path       string          `json:"path" yaml:"path"`
	Digest     string          `json:"digest" yaml:"digest"`
	Dialect    cif.Dialect     `json:"dialect" yaml:"dialect"`
	ParseID    string          `json:"parse_id,omitempty" yaml:"parse_id,omitempty"`
	Violations []cif.Violation `json:"violations" yaml:"violations"`

	// ViolationCount is filled on queries that do not load Violations
	ViolationCount int `json:"violation_count" yaml:"violation_count"`
}

// NewRun builds a run from a lint report. The digest identifies the exact
// source text that was checked.
func NewRun(path string, src []byte, report *cif.LintReport) *Run {
	sum := sha256.Sum256(src)
	return &Run{
		ID:             uuid.NewString(),
		Timestamp:      time.Now().UTC(),
		Path:           path,
		Digest:         hex.EncodeToString(sum[:]),
		Dialect:        report.Dialect,
		ParseID:        report.ParseID,
		Violations:     report.Violations,
		ViolationCount: len(report.Violations),
	}
}

// RunFilter selects runs. Zero fields do not filter.
type RunFilter struct {
	Path      string
	Digest    string
	RuleID    cif.RuleID // runs with at least one violation of this rule
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int

	// WithViolations loads each run's violations
	WithViolations bool
}

// RuleCount is the number of recorded violations of one rule
type RuleCount struct {
	RuleID cif.RuleID `json:"rule_id" yaml:"rule_id"`
	Count  int        `json:"count" yaml:"count"`
}

// Stats summarizes the stored history
type Stats struct {
	Runs       int       `json:"runs" yaml:"runs"`
	Files      int       `json:"files" yaml:"files"`
	Violations int       `json:"violations" yaml:"violations"`
	CleanRuns  int       `json:"clean_runs" yaml:"clean_runs"`
	FirstRun   time.Time `json:"first_run,omitempty" yaml:"first_run,omitempty"`
	LastRun    time.Time `json:"last_run,omitempty" yaml:"last_run,omitempty"`
}

// Store persists lint runs
type Store interface {
	Record(ctx context.Context, run *Run) error
	RecordBatch(ctx context.Context, runs []*Run) (int, int, error)
	Get(ctx context.Context, id string) (*Run, error)
	Query(ctx context.Context, filter RunFilter) ([]*Run, error)

	RuleCounts(ctx context.Context, filter RunFilter) ([]RuleCount, error)
	Stats(ctx context.Context) (*Stats, error)

	Vacuum(ctx context.Context) error
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	Close() error
}

func prepare(run *Run) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	run.ViolationCount = len(run.Violations)
}
