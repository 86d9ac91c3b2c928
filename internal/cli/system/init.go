package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/crewlog/internal/cli"
	"github.com/julianstephens/crewlog/internal/storage/postgres"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting the existing SQLite database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		dbPath := ctx.Store.GetConfigPath()
		if postgres.IsConnString(dbPath) || dbPath == "postgresql" {
			return fmt.Errorf("--force only applies to SQLite databases")
		}
		if _, err := os.Stat(dbPath); err == nil {
			ok, err := ctx.Confirm("Delete "+dbPath+"?", "All bookings, work records and billing adjustments in it are lost.")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}
			if snap, err := takeSnapshot(ctx); err != nil {
				return fmt.Errorf("failed to snapshot existing database: %w", err)
			} else if snap != "" {
				fmt.Printf("Snapshot taken: %s\n", snap)
			}
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized crewlog storage at: %s\n", ctx.Store.GetConfigPath())

	if _, err := ctx.Sessions(); err != nil {
		return err
	}
	if p, ok := ctx.LocalStore.(interface{ GetConfigPath() string }); ok {
		fmt.Printf("Initialized session store at: %s\n", p.GetConfigPath())
	}
	return nil
}
