// Package snapshot keeps point-in-time copies of a SQLite ledger database,
// taken before destructive operations such as migrations or a forced init.
package snapshot

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/crewlog/internal/logger"
)

const (
	// Keep is the number of snapshots retained per database.
	Keep = 10

	DirName    = "snapshots"
	filePrefix = "crewlog-"
	fileSuffix = ".db"
	stampFmt   = "20060102-150405"
)

type Info struct {
	Path    string
	TakenAt time.Time
	Size    int64
}

type Manager struct {
	dbPath string
	dir    string
	now    func() time.Time
}

// NewManager stores snapshots in a directory next to dbPath.
func NewManager(dbPath string) *Manager {
	return &Manager{
		dbPath: dbPath,
		dir:    filepath.Join(filepath.Dir(dbPath), DirName),
		now:    time.Now,
	}
}

func (m *Manager) Dir() string { return m.dir }

// Take copies the database into a new snapshot and prunes the oldest ones
// beyond Keep.
func (m *Manager) Take() (string, error) {
	path, err := m.take()
	if err != nil {
		return "", err
	}
	if err := m.prune(); err != nil {
		logger.Warn("Failed to prune old snapshots", "dir", m.dir, "error", err)
	}
	return path, nil
}

func (m *Manager) take() (string, error) {
	if _, err := os.Stat(m.dbPath); err != nil {
		return "", fmt.Errorf("database not found: %s", m.dbPath)
	}
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	stamp := m.now().UTC().Format(stampFmt)
	dest := filepath.Join(m.dir, filePrefix+stamp+fileSuffix)
	for n := 1; exists(dest); n++ {
		if n > 99 {
			return "", fmt.Errorf("too many snapshots for %s", stamp)
		}
		dest = filepath.Join(m.dir, fmt.Sprintf("%s%s-%d%s", filePrefix, stamp, n, fileSuffix))
	}

	src, err := sql.Open("sqlite", m.dbPath+"?mode=ro")
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer src.Close()
	if err := check(src); err != nil {
		return "", fmt.Errorf("database is not readable: %w", err)
	}
	if _, err := src.Exec("VACUUM INTO ?", dest); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	logger.Info("Snapshot taken", "db", m.dbPath, "snapshot", dest)
	return dest, nil
}

// List returns the snapshots, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var out []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if len(stamp) > len(stampFmt) {
			stamp = stamp[:len(stampFmt)]
		}
		takenAt, err := time.Parse(stampFmt, stamp)
		if err != nil {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{Path: filepath.Join(m.dir, name), TakenAt: takenAt, Size: fi.Size()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TakenAt.Equal(out[j].TakenAt) {
			return out[i].Path > out[j].Path
		}
		return out[i].TakenAt.After(out[j].TakenAt)
	})
	return out, nil
}

func (m *Manager) prune() error {
	all, err := m.List()
	if err != nil {
		return err
	}
	for i := Keep; i < len(all); i++ {
		if err := os.Remove(all[i].Path); err != nil {
			return err
		}
	}
	return nil
}

// Restore replaces the database with a snapshot. The current database is
// snapshotted first so a restore can be undone.
func (m *Manager) Restore(path string) error {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	err = check(db)
	db.Close()
	if err != nil {
		return fmt.Errorf("snapshot %s is not a valid database: %w", path, err)
	}

	if exists(m.dbPath) {
		if _, err := m.take(); err != nil {
			return fmt.Errorf("failed to snapshot current database: %w", err)
		}
	}

	tmp := m.dbPath + ".restore"
	if err := copyFile(path, tmp); err != nil {
		return fmt.Errorf("failed to copy snapshot: %w", err)
	}
	if err := os.Rename(tmp, m.dbPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to restore database: %w", err)
	}
	logger.Info("Snapshot restored", "db", m.dbPath, "snapshot", path)
	return nil
}

func check(db *sql.DB) error {
	var n int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&n)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := out.ReadFrom(in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
