package lintstore

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/msto63/mcif/pkg/cif"
	"github.com/msto63/mcif/pkg/cif/span"
	mdwerror "github.com/msto63/mcif/pkg/core/error"
	"github.com/msto63/mcif/pkg/core/log"
	"github.com/msto63/mcif/pkg/core/version"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *log.Logger
}

// SQLiteConfig holds configuration for the SQLite store
type SQLiteConfig struct {
	Path   string
	Logger *log.Logger
}

// NewSQLiteStore opens or creates the history database
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, mdwerror.New("store path is empty").
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("lintstore.Open")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, dbError(err, "failed to create directory", "lintstore.Open")
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, dbError(err, "failed to open database", "lintstore.Open")
	}
	if cfg.Path == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteStore{db: db, logger: logger.WithField("store", cfg.Path)}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, dbError(err, "failed to initialize schema", "lintstore.Open")
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		path TEXT NOT NULL,
		digest TEXT NOT NULL,
		dialect TEXT NOT NULL,
		parse_id TEXT,
		violation_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS violations (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		rule_id TEXT NOT NULL,
		message TEXT NOT NULL,
		suggestion TEXT,
		start_line INTEGER NOT NULL,
		start_col INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		end_col INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_path ON runs(path);
	CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(digest);
	CREATE INDEX IF NOT EXISTS idx_violations_rule ON violations(rule_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	switch {
	case current == 0:
		_, err := s.db.Exec("PRAGMA user_version = " + strconv.Itoa(version.StoreSchema))
		return err
	case current > version.StoreSchema:
		return mdwerror.Newf("history schema %d is newer than supported %d", current, version.StoreSchema).
			WithCode(mdwerror.CodeDatabaseError)
	}
	return nil
}

// Record stores one run and its violations
func (s *SQLiteStore) Record(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(err, "failed to begin transaction", "lintstore.Record")
	}
	defer tx.Rollback()

	if err := insertRun(ctx, tx, run); err != nil {
		return dbError(err, "failed to insert run", "lintstore.Record")
	}
	if err := tx.Commit(); err != nil {
		return dbError(err, "failed to commit transaction", "lintstore.Record")
	}

	s.logger.Debug("run recorded", log.Fields{"run_id": run.ID, "path": run.Path, "violations": run.ViolationCount})
	return nil
}

// RecordBatch stores several runs in one transaction and reports how many
// were accepted and rejected
func (s *SQLiteStore) RecordBatch(ctx context.Context, runs []*Run) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, len(runs), dbError(err, "failed to begin transaction", "lintstore.RecordBatch")
	}
	defer tx.Rollback()

	var accepted, rejected int
	for _, run := range runs {
		if run.Path == "" {
			rejected++
			continue
		}
		if _, err := tx.ExecContext(ctx, "SAVEPOINT batch_run"); err != nil {
			return 0, len(runs), dbError(err, "failed to create savepoint", "lintstore.RecordBatch")
		}
		if err := insertRun(ctx, tx, run); err != nil {
			// drop the rows this run already wrote
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT batch_run"); rbErr != nil {
				return 0, len(runs), dbError(rbErr, "failed to roll back run", "lintstore.RecordBatch")
			}
			s.logger.WarnWithErr("run rejected", err, log.Fields{"path": run.Path})
			rejected++
		} else {
			accepted++
		}
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT batch_run"); err != nil {
			return 0, len(runs), dbError(err, "failed to release savepoint", "lintstore.RecordBatch")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, len(runs), dbError(err, "failed to commit transaction", "lintstore.RecordBatch")
	}
	return accepted, rejected, nil
}

func insertRun(ctx context.Context, tx *sql.Tx, run *Run) error {
	prepare(run)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, timestamp, path, digest, dialect, parse_id, violation_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Timestamp.UTC(), run.Path, run.Digest, run.Dialect.Short(), run.ParseID, run.ViolationCount); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO violations (run_id, seq, rule_id, message, suggestion, start_line, start_col, end_line, end_col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, v := range run.Violations {
		if _, err := stmt.ExecContext(ctx, run.ID, i, string(v.RuleID), v.Message, v.Suggestion,
			v.Span.StartLine, v.Span.StartCol, v.Span.EndLine, v.Span.EndCol); err != nil {
			return err
		}
	}
	return nil
}

// Get returns one run with its violations
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Run, error) {
	runs, err := s.query(ctx, `SELECT id, timestamp, path, digest, dialect, parse_id, violation_count FROM runs WHERE id = ?`, []interface{}{id}, true)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, mdwerror.Newf("run %s not found", id).
			WithCode(mdwerror.CodeNotFound).
			WithOperation("lintstore.Get")
	}
	return runs[0], nil
}

// Query returns runs matching filter, newest first
func (s *SQLiteStore) Query(ctx context.Context, filter RunFilter) ([]*Run, error) {
	where, args := filter.where("")
	query := `SELECT id, timestamp, path, digest, dialect, parse_id, violation_count FROM runs WHERE 1=1` + where +
		" ORDER BY timestamp DESC, id"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}
	return s.query(ctx, query, args, filter.WithViolations)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args []interface{}, withViolations bool) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "failed to query runs", "lintstore.Query")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var (
			run     Run
			dialect string
			parseID sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Timestamp, &run.Path, &run.Digest, &dialect, &parseID, &run.ViolationCount); err != nil {
			return nil, dbError(err, "failed to scan run", "lintstore.Query")
		}
		run.Dialect, _ = cif.ParseDialect(dialect)
		if parseID.Valid {
			run.ParseID = parseID.String
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "failed to read runs", "lintstore.Query")
	}
	rows.Close()

	if withViolations {
		for _, run := range runs {
			vs, err := s.violations(ctx, run.ID)
			if err != nil {
				return nil, err
			}
			run.Violations = vs
		}
	}
	return runs, nil
}

func (s *SQLiteStore) violations(ctx context.Context, runID string) ([]cif.Violation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_id, message, suggestion, start_line, start_col, end_line, end_col
		FROM violations WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, dbError(err, "failed to query violations", "lintstore.Query")
	}
	defer rows.Close()

	vs := []cif.Violation{}
	for rows.Next() {
		var (
			v          cif.Violation
			rule       string
			suggestion sql.NullString
			sp         span.Span
		)
		if err := rows.Scan(&rule, &v.Message, &suggestion, &sp.StartLine, &sp.StartCol, &sp.EndLine, &sp.EndCol); err != nil {
			return nil, dbError(err, "failed to scan violation", "lintstore.Query")
		}
		v.RuleID, v.Span = cif.RuleID(rule), sp
		if suggestion.Valid {
			v.Suggestion = suggestion.String
		}
		vs = append(vs, v)
	}
	return vs, rows.Err()
}

// RuleCounts tallies violations per rule over the runs matching filter,
// most frequent first
func (s *SQLiteStore) RuleCounts(ctx context.Context, filter RunFilter) ([]RuleCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := filter.where("r.")
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.rule_id, COUNT(*) FROM violations v
		JOIN runs r ON r.id = v.run_id
		WHERE 1=1`+where+`
		GROUP BY v.rule_id
		ORDER BY COUNT(*) DESC, v.rule_id
	`, args...)
	if err != nil {
		return nil, dbError(err, "failed to count rules", "lintstore.RuleCounts")
	}
	defer rows.Close()

	var counts []RuleCount
	for rows.Next() {
		var (
			rule string
			rc   RuleCount
		)
		if err := rows.Scan(&rule, &rc.Count); err != nil {
			return nil, dbError(err, "failed to scan rule count", "lintstore.RuleCounts")
		}
		rc.RuleID = cif.RuleID(rule)
		counts = append(counts, rc)
	}
	return counts, rows.Err()
}

// Stats summarizes the stored history
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT path),
			COALESCE(SUM(violation_count), 0),
			COALESCE(SUM(CASE WHEN violation_count = 0 THEN 1 ELSE 0 END), 0)
		FROM runs
	`).Scan(&st.Runs, &st.Files, &st.Violations, &st.CleanRuns)
	if err != nil {
		return nil, dbError(err, "failed to read stats", "lintstore.Stats")
	}
	if st.Runs == 0 {
		return &st, nil
	}

	// MIN/MAX lose the column type, so read the boundary rows instead
	if err := s.db.QueryRowContext(ctx, `SELECT timestamp FROM runs ORDER BY timestamp ASC LIMIT 1`).Scan(&st.FirstRun); err != nil {
		return nil, dbError(err, "failed to read first run", "lintstore.Stats")
	}
	if err := s.db.QueryRowContext(ctx, `SELECT timestamp FROM runs ORDER BY timestamp DESC LIMIT 1`).Scan(&st.LastRun); err != nil {
		return nil, dbError(err, "failed to read last run", "lintstore.Stats")
	}
	return &st, nil
}

// Vacuum compacts the database
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return dbError(err, "failed to vacuum", "lintstore.Vacuum")
	}
	return nil
}

// Prune deletes runs older than the given age and returns how many went
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, dbError(err, "failed to begin transaction", "lintstore.Prune")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM violations WHERE run_id IN (SELECT id FROM runs WHERE timestamp < ?)`, cutoff); err != nil {
		return 0, dbError(err, "failed to prune violations", "lintstore.Prune")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, dbError(err, "failed to prune runs", "lintstore.Prune")
	}
	if err := tx.Commit(); err != nil {
		return 0, dbError(err, "failed to commit transaction", "lintstore.Prune")
	}

	n, _ := res.RowsAffected()
	s.logger.Debug("history pruned", log.Fields{"runs": n, "cutoff": cutoff})
	return n, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// where renders the filter as SQL conditions on the runs table
func (f RunFilter) where(prefix string) (string, []interface{}) {
	var (
		b    strings.Builder
		args []interface{}
	)
	if f.Path != "" {
		b.WriteString(" AND " + prefix + "path = ?")
		args = append(args, f.Path)
	}
	if f.Digest != "" {
		b.WriteString(" AND " + prefix + "digest = ?")
		args = append(args, f.Digest)
	}
	if f.RuleID != "" {
		b.WriteString(" AND " + prefix + "id IN (SELECT run_id FROM violations WHERE rule_id = ?)")
		args = append(args, string(f.RuleID))
	}
	if !f.StartTime.IsZero() {
		b.WriteString(" AND " + prefix + "timestamp >= ?")
		args = append(args, f.StartTime.UTC())
	}
	if !f.EndTime.IsZero() {
		b.WriteString(" AND " + prefix + "timestamp <= ?")
		args = append(args, f.EndTime.UTC())
	}
	return b.String(), args
}

func dbError(err error, msg, op string) error {
	var e *mdwerror.Error
	if errors.As(err, &e) {
		return mdwerror.Wrap(err, msg).WithOperation(op)
	}
	return mdwerror.Wrap(err, msg).
		WithCode(mdwerror.CodeDatabaseError).
		WithOperation(op)
}
