// Package migration applies the numbered SQL files embedded under
// migrations/ to a SQLite or PostgreSQL database.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/crewlog/internal/logger"
)

var (
	ErrBehind = errors.New("database schema is behind")
	ErrAhead  = errors.New("database schema is newer than this build")
)

type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Parse reads NNN_name.sql files from fsys, ordered by version.
func Parse(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var out []Migration
	seen := map[int]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		num, name, ok := strings.Cut(strings.TrimSuffix(e.Name(), ".sql"), "_")
		if !ok || name == "" {
			return nil, fmt.Errorf("migration %s: expected NNN_name.sql", e.Name())
		}
		version, err := strconv.Atoi(num)
		if err != nil || version < 1 {
			return nil, fmt.Errorf("migration %s: version must be a positive number", e.Name())
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", prev, e.Name(), version)
		}
		seen[version] = e.Name()

		body, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: version, Name: name, SQL: string(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Runner tracks applied versions in a schema_migrations table. Statements
// avoid bind parameters so one runner serves both dialects.
type Runner struct {
	db    *sql.DB
	steps []Migration
}

func NewRunner(db *sql.DB, fsys fs.FS) (*Runner, error) {
	steps, err := Parse(fsys)
	if err != nil {
		return nil, err
	}
	return &Runner{db: db, steps: steps}, nil
}

// Latest is the highest known version, 0 with no migrations.
func (r *Runner) Latest() int {
	if len(r.steps) == 0 {
		return 0
	}
	return r.steps[len(r.steps)-1].Version
}

func (r *Runner) ensureTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	return nil
}

// Current returns the highest applied version, 0 for a fresh database.
func (r *Runner) Current(ctx context.Context) (int, error) {
	if err := r.ensureTable(ctx); err != nil {
		return 0, err
	}
	var v sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// Pending lists migrations newer than the applied version.
func (r *Runner) Pending(ctx context.Context) ([]Migration, error) {
	current, err := r.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current > r.Latest() {
		return nil, fmt.Errorf("%w (database %d, build %d); upgrade crewlog", ErrAhead, current, r.Latest())
	}
	var out []Migration
	for _, m := range r.steps {
		if m.Version > current {
			out = append(out, m)
		}
	}
	return out, nil
}

// Up applies every pending migration, each in its own transaction, and
// returns how many ran.
func (r *Runner) Up(ctx context.Context) (int, error) {
	pending, err := r.Pending(ctx)
	if err != nil {
		return 0, err
	}
	for i, m := range pending {
		if err := r.apply(ctx, m); err != nil {
			return i, err
		}
		logger.Info("Applied migration", "version", m.Version, "name", m.Name)
	}
	return len(pending), nil
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
	}
	record := fmt.Sprintf(`INSERT INTO schema_migrations (version, name, applied_at) VALUES (%d, '%s', '%s')`,
		m.Version, strings.ReplaceAll(m.Name, "'", "''"), time.Now().UTC().Format(time.RFC3339))
	if _, err := tx.ExecContext(ctx, record); err != nil {
		return fmt.Errorf("migration %d: failed to record version: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d: commit failed: %w", m.Version, err)
	}
	return nil
}

// Check reports ErrBehind or ErrAhead when the database does not match
// this build.
func (r *Runner) Check(ctx context.Context) error {
	current, err := r.Current(ctx)
	if err != nil {
		return err
	}
	switch latest := r.Latest(); {
	case current > latest:
		return fmt.Errorf("%w (database %d, build %d); upgrade crewlog", ErrAhead, current, latest)
	case current < latest:
		return fmt.Errorf("%w (database %d, build %d); run 'crewlog migrate'", ErrBehind, current, latest)
	}
	return nil
}
