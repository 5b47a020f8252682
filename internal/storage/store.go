// Package storage records run history: a sqlite index of runs plus one
// trace.csv per run with the step-by-step particle and detector values.
package storage

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kinetic-lang/kinetic/internal/runtime"
)

type Store struct {
	db      *sql.DB
	baseDir string
}

// RunMeta describes one recorded run.
type RunMeta struct {
	ID        string                  `json:"id"`
	File      string                  `json:"file"`
	CreatedAt time.Time               `json:"created_at"`
	Dt        float64                 `json:"dt"`
	Steps     int                     `json:"steps"`
	Detectors []runtime.DetectorValue `json:"detectors"`
}

// Open creates the data directory if needed and opens the run index.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filepath.Join(baseDir, "runs.db"))
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			file       TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			dt         REAL NOT NULL,
			steps      INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS detectors (
			run_id TEXT NOT NULL,
			name   TEXT NOT NULL,
			value  REAL NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, baseDir: baseDir}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveRun indexes a finished run and writes its trace. Header names the
// trace columns; each row must match its length.
func (s *Store) SaveRun(file string, dt float64, steps int, detectors []runtime.DetectorValue, header []string, trace [][]float64) (string, error) {
	now := time.Now()
	id := fmt.Sprintf("%s_%d", sanitize(filepath.Base(file)), now.UnixNano())

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, file, created_at, dt, steps) VALUES (?, ?, ?, ?, ?)`,
		id, file, now.UnixNano(), dt, steps,
	); err != nil {
		return "", err
	}
	for _, det := range detectors {
		if _, err := tx.Exec(
			`INSERT INTO detectors (run_id, name, value) VALUES (?, ?, ?)`,
			id, det.Name, det.Value,
		); err != nil {
			return "", err
		}
	}

	if err := s.writeTrace(id, header, trace); err != nil {
		return "", err
	}
	return id, tx.Commit()
}

func (s *Store) writeTrace(id string, header []string, trace [][]float64) error {
	runDir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(runDir, "trace.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for _, values := range trace {
		for i, v := range values {
			row[i] = strconv.FormatFloat(v, 'f', 6, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// List returns all recorded runs, newest first.
func (s *Store) List() ([]RunMeta, error) {
	rows, err := s.db.Query(
		`SELECT id, file, created_at, dt, steps FROM runs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunMeta
	for rows.Next() {
		var meta RunMeta
		var created int64
		if err := rows.Scan(&meta.ID, &meta.File, &created, &meta.Dt, &meta.Steps); err != nil {
			return nil, err
		}
		meta.CreatedAt = time.Unix(0, created)
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

// Load fetches one run with its detector values.
func (s *Store) Load(id string) (*RunMeta, error) {
	var meta RunMeta
	var created int64
	err := s.db.QueryRow(
		`SELECT id, file, created_at, dt, steps FROM runs WHERE id = ?`, id,
	).Scan(&meta.ID, &meta.File, &created, &meta.Dt, &meta.Steps)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("storage: run %q not found", id)
	}
	if err != nil {
		return nil, err
	}
	meta.CreatedAt = time.Unix(0, created)

	rows, err := s.db.Query(`SELECT name, value FROM detectors WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var det runtime.DetectorValue
		if err := rows.Scan(&det.Name, &det.Value); err != nil {
			return nil, err
		}
		meta.Detectors = append(meta.Detectors, det)
	}
	return &meta, rows.Err()
}

// TracePath returns the location of a run's trace.csv.
func (s *Store) TracePath(id string) string {
	return filepath.Join(s.baseDir, id, "trace.csv")
}

// ExportJSON writes one run's metadata and detectors as indented JSON.
func (s *Store) ExportJSON(w io.Writer, id string) error {
	meta, err := s.Load(id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// ExportCSV copies one run's raw trace.
func (s *Store) ExportCSV(w io.Writer, id string) error {
	f, err := os.Open(s.TracePath(id))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// sanitize keeps run IDs filesystem-safe.
func sanitize(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
