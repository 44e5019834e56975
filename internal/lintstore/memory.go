package lintstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/msto63/mcif/pkg/cif"
	mdwerror "github.com/msto63/mcif/pkg/core/error"
)

// MemoryStore implements Store in memory
type MemoryStore struct {
	runs []*Run
	mu   sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record stores a copy of run
func (s *MemoryStore) Record(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepare(run)
	for _, r := range s.runs {
		if r.ID == run.ID {
			return mdwerror.Newf("run %s already recorded", run.ID).
				WithCode(mdwerror.CodeDatabaseError).
				WithOperation("lintstore.Record")
		}
	}
	s.runs = append(s.runs, clone(run))
	return nil
}

// RecordBatch stores several runs
func (s *MemoryStore) RecordBatch(ctx context.Context, runs []*Run) (int, int, error) {
	var accepted, rejected int
	for _, run := range runs {
		if run.Path == "" || s.Record(ctx, run) != nil {
			rejected++
			continue
		}
		accepted++
	}
	return accepted, rejected, nil
}

// Get returns one run with its violations
func (s *MemoryStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.runs {
		if r.ID == id {
			return clone(r), nil
		}
	}
	return nil, mdwerror.Newf("run %s not found", id).
		WithCode(mdwerror.CodeNotFound).
		WithOperation("lintstore.Get")
}

// Query returns runs matching filter, newest first
func (s *MemoryStore) Query(ctx context.Context, filter RunFilter) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(filter)
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID < matched[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	out := make([]*Run, 0, len(matched))
	for _, r := range matched {
		c := clone(r)
		if !filter.WithViolations {
			c.Violations = nil
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *MemoryStore) match(filter RunFilter) []*Run {
	var out []*Run
	for _, r := range s.runs {
		if filter.Path != "" && r.Path != filter.Path {
			continue
		}
		if filter.Digest != "" && r.Digest != filter.Digest {
			continue
		}
		if !filter.StartTime.IsZero() && r.Timestamp.Before(filter.StartTime) {
			continue
		}
		if !filter.EndTime.IsZero() && r.Timestamp.After(filter.EndTime) {
			continue
		}
		if filter.RuleID != "" && cif.CountByRule(r.Violations)[filter.RuleID] == 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// RuleCounts tallies violations per rule, most frequent first
func (s *MemoryStore) RuleCounts(ctx context.Context, filter RunFilter) ([]RuleCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[cif.RuleID]int)
	for _, r := range s.match(filter) {
		for id, n := range cif.CountByRule(r.Violations) {
			totals[id] += n
		}
	}
	return sortCounts(totals), nil
}

// Stats summarizes the stored history
func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &Stats{Runs: len(s.runs)}
	files := make(map[string]bool)
	for _, r := range s.runs {
		files[r.Path] = true
		st.Violations += r.ViolationCount
		if r.ViolationCount == 0 {
			st.CleanRuns++
		}
		if st.FirstRun.IsZero() || r.Timestamp.Before(st.FirstRun) {
			st.FirstRun = r.Timestamp
		}
		if r.Timestamp.After(st.LastRun) {
			st.LastRun = r.Timestamp
		}
	}
	st.Files = len(files)
	return st, nil
}

// Vacuum is a no-op for the memory store
func (s *MemoryStore) Vacuum(ctx context.Context) error {
	return nil
}

// Prune removes runs older than the given age
func (s *MemoryStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	kept := make([]*Run, 0, len(s.runs))
	var deleted int64
	for _, r := range s.runs {
		if r.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.runs = kept
	return deleted, nil
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}

func clone(r *Run) *Run {
	c := *r
	c.Violations = append([]cif.Violation{}, r.Violations...)
	return &c
}

func sortCounts(totals map[cif.RuleID]int) []RuleCount {
	counts := make([]RuleCount, 0, len(totals))
	for id, n := range totals {
		counts = append(counts, RuleCount{RuleID: id, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].RuleID < counts[j].RuleID
	})
	return counts
}
