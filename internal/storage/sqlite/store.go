package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/crewlog/internal/logger"
	"github.com/julianstephens/crewlog/internal/migration"
	"github.com/julianstephens/crewlog/migrations"
)

// Store is the SQLite backend. It serves both as the shared Provider for
// single-device setups and as the device-local session store.
type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Init creates the database file if needed and brings the schema up to date.
func (s *Store) Init() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(s.path), err)
	}
	if err := s.open(); err != nil {
		return err
	}
	if _, err := s.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Load opens an existing database and refuses one whose schema does not
// match this build.
func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}
	if !s.exists() {
		return fmt.Errorf("no database at %s, run 'crewlog init' first", s.path)
	}
	if err := s.open(); err != nil {
		return err
	}
	runner, err := s.runner()
	if err == nil {
		err = runner.Check(context.Background())
	}
	if err != nil {
		s.Close()
		return err
	}
	return nil
}

// Migrate applies pending migrations and returns how many ran.
func (s *Store) Migrate() (int, error) {
	if s.db == nil && !s.exists() {
		return 0, fmt.Errorf("no database at %s, run 'crewlog init' first", s.path)
	}
	if err := s.open(); err != nil {
		return 0, err
	}
	runner, err := s.runner()
	if err != nil {
		return 0, err
	}
	n, err := runner.Up(context.Background())
	if n > 0 {
		logger.Info("Schema migrated", "path", s.path, "applied", n, "version", runner.Latest())
	}
	return n, err
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil
	return db.Close()
}

func (s *Store) exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// open is a no-op when a handle is already held.
func (s *Store) open() error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", s.path, err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) runner() (*migration.Runner, error) {
	dialect, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("sqlite migrations missing: %w", err)
	}
	return migration.NewRunner(s.db, dialect)
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// DB exposes the open handle, nil before Init or Load.
func (s *Store) DB() *sql.DB {
	return s.db
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
