package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aotbridge/internal/graph"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			root TEXT,
			started_at TEXT,
			finished_at TEXT,
			status TEXT,
			error TEXT,
			managed_path TEXT,
			native_path TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS types (
			run_id TEXT,
			name TEXT,
			kind TEXT,
			filepath TEXT,
			line INTEGER,
			abstract INTEGER,
			markers JSON,
			PRIMARY KEY (run_id, name)
		);`,
		`CREATE TABLE IF NOT EXISTS registrations (
			run_id TEXT,
			handle INTEGER,
			adapter TEXT,
			owner TEXT,
			method TEXT,
			template TEXT,
			PRIMARY KEY (run_id, handle)
		);`,
		`CREATE TABLE IF NOT EXISTS workers (
			run_id TEXT,
			seq INTEGER,
			factory TEXT,
			type TEXT,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			run_id TEXT,
			from_id TEXT,
			to_id TEXT,
			kind TEXT,
			parameter TEXT,
			PRIMARY KEY (run_id, from_id, to_id, kind, parameter)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// --- RunStore Implementation ---

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, root, started_at, finished_at, status, error, managed_path, native_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			root=excluded.root,
			started_at=excluded.started_at,
			finished_at=excluded.finished_at,
			status=excluded.status,
			error=excluded.error,
			managed_path=excluded.managed_path,
			native_path=excluded.native_path
	`, run.ID, run.Root, formatTime(run.StartedAt), formatTime(run.FinishedAt), string(run.Status), run.Error, run.ManagedPath, run.NativePath)
	if err != nil {
		return err
	}

	for _, table := range []string{"types", "registrations", "workers"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", run.ID); err != nil {
			return err
		}
	}

	typeStmt, err := tx.PrepareContext(ctx, `INSERT INTO types (run_id, name, kind, filepath, line, abstract, markers) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer typeStmt.Close()
	for _, t := range run.Types {
		markers, _ := json.Marshal(t.Markers)
		if _, err := typeStmt.ExecContext(ctx, run.ID, t.Name, t.Kind, t.File, t.Line, t.Abstract, markers); err != nil {
			return err
		}
	}

	regStmt, err := tx.PrepareContext(ctx, `INSERT INTO registrations (run_id, handle, adapter, owner, method, template) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer regStmt.Close()
	for _, r := range run.Registrations {
		if _, err := regStmt.ExecContext(ctx, run.ID, r.Handle, r.Adapter, r.Owner, r.Method, r.Template); err != nil {
			return err
		}
	}

	workerStmt, err := tx.PrepareContext(ctx, `INSERT INTO workers (run_id, seq, factory, type) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer workerStmt.Close()
	for i, w := range run.Workers {
		if _, err := workerStmt.ExecContext(ctx, run.ID, i, w.Factory, w.Type); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const runColumns = "id, root, started_at, finished_at, status, error, managed_path, native_path"

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var (
		r                 Run
		started, finished string
		status            string
	)
	if err := row.Scan(&r.ID, &r.Root, &started, &finished, &status, &r.Error, &r.ManagedPath, &r.NativePath); err != nil {
		return nil, err
	}
	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished)
	r.Status = RunStatus(status)
	return &r, nil
}

func (s *SQLiteStore) LoadRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	return s.loadRun(ctx, row)
}

func (s *SQLiteStore) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1")
	return s.loadRun(ctx, row)
}

func (s *SQLiteStore) loadRun(ctx context.Context, row *sql.Row) (*Run, error) {
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadChildren(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) loadChildren(ctx context.Context, r *Run) error {
	rows, err := s.db.QueryContext(ctx, "SELECT name, kind, filepath, line, abstract, markers FROM types WHERE run_id = ? ORDER BY rowid", r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t       TypeRecord
			markers []byte
		)
		if err := rows.Scan(&t.Name, &t.Kind, &t.File, &t.Line, &t.Abstract, &markers); err != nil {
			return err
		}
		if len(markers) > 0 {
			_ = json.Unmarshal(markers, &t.Markers)
		}
		r.Types = append(r.Types, t)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	regRows, err := s.db.QueryContext(ctx, "SELECT handle, adapter, owner, method, template FROM registrations WHERE run_id = ? ORDER BY handle", r.ID)
	if err != nil {
		return err
	}
	defer regRows.Close()
	for regRows.Next() {
		var reg RegistrationRecord
		if err := regRows.Scan(&reg.Handle, &reg.Adapter, &reg.Owner, &reg.Method, &reg.Template); err != nil {
			return err
		}
		r.Registrations = append(r.Registrations, reg)
	}
	if err := regRows.Err(); err != nil {
		return err
	}

	workerRows, err := s.db.QueryContext(ctx, "SELECT factory, type FROM workers WHERE run_id = ? ORDER BY seq", r.ID)
	if err != nil {
		return err
	}
	defer workerRows.Close()
	for workerRows.Next() {
		var w WorkerRecord
		if err := workerRows.Scan(&w.Factory, &w.Type); err != nil {
			return err
		}
		r.Workers = append(r.Workers, w)
	}
	return workerRows.Err()
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// --- GraphStore Implementation ---

func (s *SQLiteStore) SaveGraph(ctx context.Context, runID string, g *graph.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM edges WHERE run_id = ?", runID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO edges (run_id, from_id, to_id, kind, parameter) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range g.Edges {
		if _, err := stmt.ExecContext(ctx, runID, e.From, e.To, string(e.Kind), e.Parameter); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadEdges(ctx context.Context, runID string) ([]graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT from_id, to_id, kind, parameter FROM edges WHERE run_id = ? ORDER BY rowid", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []graph.Edge
	for rows.Next() {
		var (
			e    graph.Edge
			kind string
		)
		if err := rows.Scan(&e.From, &e.To, &kind, &e.Parameter); err != nil {
			return nil, err
		}
		e.Kind = graph.RelationKind(kind)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
