// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/dossier/pkg/types"
)

// DefaultStorePath is where the CLI keeps the record database.
const DefaultStorePath = "dossier.db"

// Store keeps every run's subjects in SQLite so records can be listed and
// exported after the run.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the database at path and creates the schema if
// it does not exist.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			format TEXT NOT NULL,
			columns TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS subjects (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			institution TEXT NOT NULL,
			status TEXT NOT NULL,
			fields TEXT NOT NULL,
			links TEXT NOT NULL,
			output TEXT NOT NULL,
			saved_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subjects_run_id ON subjects(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subjects_name ON subjects(name)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is a Sink that records subjects under one run id.
type Run struct {
	store    *Store
	id       string
	position int
}

// StartRun registers a new run for f and returns its sink.
func (s *Store) StartRun(ctx context.Context, f types.Format) (*Run, error) {
	id := uuid.NewString()
	columns, err := json.Marshal(f.Columns)
	if err != nil {
		return nil, fmt.Errorf("marshaling columns: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, format, columns) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), f.Name, string(columns),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return &Run{store: s, id: id}, nil
}

// ID returns the run id.
func (r *Run) ID() string { return r.id }

// Append implements Sink.
func (r *Run) Append(ctx context.Context, subj *types.Subject) error {
	fields, _ := json.Marshal(subj.Fields)
	links, _ := json.Marshal(subj.Links)
	out, _ := json.Marshal(subj.Output)
	if subj.Links == nil {
		links = []byte("[]")
	}

	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO subjects (run_id, position, name, institution, status, fields, links, output, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.id, r.position, subj.Name(), subj.Institution(), string(subj.Status),
		string(fields), string(links), string(out), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("storing subject %s: %w", subj.Name(), err)
	}
	r.position++
	return nil
}

// RunInfo describes a stored run.
type RunInfo struct {
	ID        string    `json:"id" yaml:"id"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	Format    string    `json:"format" yaml:"format"`
	Columns   []string  `json:"columns" yaml:"columns"`
	Subjects  int       `json:"subjects" yaml:"subjects"`
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.started_at, r.format, r.columns, COUNT(s.rowid)
		 FROM runs r LEFT JOIN subjects s ON s.run_id = r.id
		 GROUP BY r.id ORDER BY r.started_at DESC, r.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var ri RunInfo
		var started, columns string
		if err := rows.Scan(&ri.ID, &started, &ri.Format, &columns, &ri.Subjects); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		ri.StartedAt, _ = time.Parse(time.RFC3339, started)
		_ = json.Unmarshal([]byte(columns), &ri.Columns)
		runs = append(runs, ri)
	}
	return runs, rows.Err()
}

// Query filters stored records. Empty fields match everything.
type Query struct {
	RunID  string
	Name   string // case-insensitive substring
	Status types.SubjectStatus
	Limit  int
}

// Record is a stored subject.
type Record struct {
	RunID       string              `json:"run_id" yaml:"run_id"`
	Position    int                 `json:"position" yaml:"position"`
	Name        string              `json:"name" yaml:"name"`
	Institution string              `json:"institution" yaml:"institution"`
	Status      types.SubjectStatus `json:"status" yaml:"status"`
	Links       []string            `json:"links" yaml:"links"`
	Output      types.MergedRecord  `json:"output" yaml:"output"`
	SavedAt     time.Time           `json:"saved_at" yaml:"saved_at"`
}

// Records returns stored subjects matching q in run and input order.
func (s *Store) Records(ctx context.Context, q Query) ([]Record, error) {
	var where []string
	var args []any
	if q.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, q.RunID)
	}
	if q.Name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Name)+"%")
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}

	stmt := `SELECT run_id, position, name, institution, status, links, output, saved_at FROM subjects`
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY rowid"
	if q.Limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var status, links, output, saved string
		if err := rows.Scan(&r.RunID, &r.Position, &r.Name, &r.Institution, &status, &links, &output, &saved); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.Status = types.SubjectStatus(status)
		if err := json.Unmarshal([]byte(links), &r.Links); err != nil {
			return nil, fmt.Errorf("decoding links for %s: %w", r.Name, err)
		}
		if err := json.Unmarshal([]byte(output), &r.Output); err != nil {
			return nil, fmt.Errorf("decoding output for %s: %w", r.Name, err)
		}
		r.SavedAt, _ = time.Parse(time.RFC3339Nano, saved)
		out = append(out, r)
	}
	return out, rows.Err()
}
