// Package state records the id tables of compiled schemas in SQLite so a
// later compile can detect ids that moved to a different parameter.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/leapstack-labs/paramgen/pkg/core"
)

// Sentinel errors.
var (
	ErrNotOpened   = errors.New("database not opened")
	ErrRunNotFound = errors.New("run not found")
)

// SQLiteStore implements core.Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ core.Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection keeps in-memory databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("opened state store", "path", path)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema brings the database schema up to date.
func (s *SQLiteStore) InitSchema() error {
	return s.Migrate()
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// --- Run operations ---

const runColumns = `id, schema_file, status, started_at, completed_at, error`

// CreateRun creates a new compile run for a schema file.
func (s *SQLiteStore) CreateRun(schema string) (*core.Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	run := &core.Run{
		ID:        generateID(),
		Schema:    schema,
		Status:    core.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.logger.Debug("creating run", "id", run.ID, "schema", schema)

	_, err := s.db.Exec(
		`INSERT INTO runs (id, schema_file, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Schema, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	run, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, errMsg string) error {
	if s.db == nil {
		return ErrNotOpened
	}

	var errVal sql.NullString
	if errMsg != "" {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}

	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), time.Now().UTC(), errVal, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// GetLatestRun retrieves the most recent completed run of a schema file.
// It returns nil without error when there is none.
func (s *SQLiteStore) GetLatestRun(schema string) (*core.Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	run, err := scanRun(s.db.QueryRow(
		`SELECT `+runColumns+` FROM runs WHERE schema_file = ? AND status = ? ORDER BY seq DESC LIMIT 1`,
		schema, string(core.RunStatusCompleted),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. An empty schema lists
// runs of every schema file.
func (s *SQLiteStore) ListRuns(schema string, limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM runs WHERE ? = '' OR schema_file = ? ORDER BY seq DESC LIMIT ?`,
		schema, schema, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteOldRuns keeps the newest keepRuns runs of a schema file and deletes
// the rest with their id tables.
func (s *SQLiteStore) DeleteOldRuns(schema string, keepRuns int) error {
	if s.db == nil {
		return ErrNotOpened
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const stale = `SELECT id FROM runs WHERE schema_file = ? AND seq NOT IN
		(SELECT seq FROM runs WHERE schema_file = ? ORDER BY seq DESC LIMIT ?)`

	if _, err := tx.Exec(`DELETE FROM run_ids WHERE run_id IN (`+stale+`)`, schema, schema, keepRuns); err != nil {
		return fmt.Errorf("failed to delete old id tables: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM runs WHERE id IN (`+stale+`)`, schema, schema, keepRuns)
	if err != nil {
		return fmt.Errorf("failed to delete old runs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Debug("pruned runs", "schema", schema, "deleted", n)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*core.Run, error) {
	run := &core.Run{}
	var (
		status      string
		completedAt sql.NullTime
		errMsg      sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Schema, &status, &run.StartedAt, &completedAt, &errMsg); err != nil {
		return nil, err
	}
	run.Status = core.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return run, nil
}

// --- Id table operations ---

// SaveIDs stores the id table of a run.
func (s *SQLiteStore) SaveIDs(runID string, entries []core.IDEntry) error {
	if s.db == nil {
		return ErrNotOpened
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT INTO run_ids (run_id, kind, id, path, name) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if _, err := stmt.Exec(runID, string(e.Kind), e.ID, e.Path, e.Name); err != nil {
			return fmt.Errorf("failed to save %s id %d: %w", e.Kind, e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	s.logger.Debug("saved id table", "run", runID, "entries", len(entries))
	return nil
}

// GetIDs returns the id table of a run, params first, each ordered by id.
func (s *SQLiteStore) GetIDs(runID string) ([]core.IDEntry, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	rows, err := s.db.Query(
		`SELECT kind, id, path, name FROM run_ids WHERE run_id = ?
		 ORDER BY CASE kind WHEN 'param' THEN 0 ELSE 1 END, id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get id table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []core.IDEntry
	for rows.Next() {
		var (
			e    core.IDEntry
			kind string
		)
		if err := rows.Scan(&kind, &e.ID, &e.Path, &e.Name); err != nil {
			return nil, fmt.Errorf("failed to scan id entry: %w", err)
		}
		e.Kind = core.IDKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
