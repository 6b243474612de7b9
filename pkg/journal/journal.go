// pkg/journal/journal.go
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoRecord indicates the package was never built
var ErrNoRecord = errors.New("no build recorded")

// Status is the outcome of one build
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Entry is one build outcome
type Entry struct {
	ID       int64
	Package  string
	Version  string // pkgver-rN
	Arch     string
	Status   Status
	Error    string
	Started  time.Time
	Duration time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS builds (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	package TEXT NOT NULL,
	version TEXT NOT NULL,
	arch TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	started INTEGER NOT NULL,
	duration INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_builds_package ON builds(package, id);
`

// Journal is a SQLite-backed log of build outcomes
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	// builds record concurrently through one connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends e and sets its ID
func (j *Journal) Record(ctx context.Context, e *Entry) error {
	res, err := j.db.ExecContext(ctx, `
		INSERT INTO builds (package, version, arch, status, error, started, duration)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Package, e.Version, e.Arch, string(e.Status), e.Error,
		e.Started.UnixNano(), int64(e.Duration))
	if err != nil {
		return fmt.Errorf("recording build of %s: %w", e.Package, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("recording build of %s: %w", e.Package, err)
	}
	e.ID = id
	return nil
}

// Latest returns the most recent build of pkg
func (j *Journal) Latest(ctx context.Context, pkg string) (*Entry, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, package, version, arch, status, error, started, duration
		FROM builds WHERE package = ? ORDER BY id DESC LIMIT 1`, pkg)

	e, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoRecord, pkg)
	}
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return e, nil
}

// LatestAll returns the most recent build of every package, by name
func (j *Journal) LatestAll(ctx context.Context) ([]*Entry, error) {
	return j.query(ctx, `
		SELECT id, package, version, arch, status, error, started, duration
		FROM builds WHERE id IN (SELECT MAX(id) FROM builds GROUP BY package)
		ORDER BY package`)
}

// History returns every build of pkg, newest first
func (j *Journal) History(ctx context.Context, pkg string) ([]*Entry, error) {
	return j.query(ctx, `
		SELECT id, package, version, arch, status, error, started, duration
		FROM builds WHERE package = ? ORDER BY id DESC`, pkg)
}

func (j *Journal) query(ctx context.Context, q string, args ...any) ([]*Entry, error) {
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("reading journal: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*Entry, error) {
	var (
		e        Entry
		status   string
		started  int64
		duration int64
	)
	if err := s.Scan(&e.ID, &e.Package, &e.Version, &e.Arch, &status, &e.Error, &started, &duration); err != nil {
		return nil, err
	}
	e.Status = Status(status)
	e.Started = time.Unix(0, started)
	e.Duration = time.Duration(duration)
	return &e, nil
}
