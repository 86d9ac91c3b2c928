package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/crewlog/internal/cli"
	"github.com/julianstephens/crewlog/internal/snapshot"
	"github.com/julianstephens/crewlog/internal/storage/postgres"
)

// snapshots returns a manager for the shared store, which must be SQLite.
func snapshots(ctx *cli.Context) (*snapshot.Manager, error) {
	path := ctx.Store.GetConfigPath()
	if postgres.IsConnString(path) || path == "postgresql" {
		return nil, fmt.Errorf("snapshots only apply to SQLite databases; use pg_dump for PostgreSQL")
	}
	return snapshot.NewManager(path), nil
}

// takeSnapshot is used before destructive commands. PostgreSQL stores and
// databases that do not exist yet are skipped.
func takeSnapshot(ctx *cli.Context) (string, error) {
	m, err := snapshots(ctx)
	if err != nil {
		return "", nil
	}
	if _, err := os.Stat(ctx.Store.GetConfigPath()); os.IsNotExist(err) {
		return "", nil
	}
	return m.Take()
}

type SnapshotTakeCmd struct{}

func (c *SnapshotTakeCmd) Run(ctx *cli.Context) error {
	m, err := snapshots(ctx)
	if err != nil {
		return err
	}
	path, err := m.Take()
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}
	fmt.Printf("✓ Snapshot created: %s\n", filepath.Base(path))
	return nil
}

type SnapshotListCmd struct{}

func (c *SnapshotListCmd) Run(ctx *cli.Context) error {
	m, err := snapshots(ctx)
	if err != nil {
		return err
	}
	all, err := m.List()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("No snapshots found.")
		fmt.Printf("Snapshots are stored in: %s\n", m.Dir())
		return nil
	}
	fmt.Printf("Snapshots (%d, keeping the most recent %d):\n\n", len(all), snapshot.Keep)
	for _, s := range all {
		fmt.Printf("  %s  %s  (%.1f KB)\n", s.TakenAt.Local().Format("2006-01-02 15:04:05"),
			filepath.Base(s.Path), float64(s.Size)/1024.0)
	}
	fmt.Printf("\nSnapshot directory: %s\n", m.Dir())
	return nil
}

type SnapshotRestoreCmd struct {
	File string `arg:"" help:"Snapshot filename (from 'snapshot list') or path."`
}

func (c *SnapshotRestoreCmd) Run(ctx *cli.Context) error {
	m, err := snapshots(ctx)
	if err != nil {
		return err
	}
	path := c.File
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(m.Dir(), filepath.Base(c.File))
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("snapshot not found: %s", c.File)
		}
	}

	ok, err := ctx.Confirm("Restore "+filepath.Base(path)+"?",
		"The current database is replaced. It is snapshotted first.")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Aborted.")
		return nil
	}
	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	if err := m.Restore(path); err != nil {
		return err
	}
	fmt.Printf("✓ Restored %s from %s\n", ctx.Store.GetConfigPath(), filepath.Base(path))
	return nil
}
