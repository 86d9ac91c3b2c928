package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/crewlog/internal/cli"
)

type migrator interface {
	Migrate() (int, error)
}

// the session store is created lazily, so a missing file is not an error
type localMigrator interface {
	migrator
	GetConfigPath() string
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return fmt.Errorf("storage backend %s does not support migrations", ctx.Store.GetConfigPath())
	}
	defer ctx.Store.Close()

	if snap, err := takeSnapshot(ctx); err != nil {
		return fmt.Errorf("refusing to migrate without a snapshot: %w", err)
	} else if snap != "" {
		fmt.Printf("Snapshot taken: %s\n", snap)
	}

	count, err := m.Migrate()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if count == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
	} else {
		fmt.Printf("Successfully applied %d migration(s).\n", count)
	}

	if local, ok := ctx.LocalStore.(localMigrator); ok && exists(local.GetConfigPath()) {
		n, err := local.Migrate()
		if err != nil {
			return fmt.Errorf("session store migration failed: %w", err)
		}
		if n > 0 {
			fmt.Printf("Applied %d migration(s) to the session store.\n", n)
		}
	}
	return nil
}
