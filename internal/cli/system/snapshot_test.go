package system

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/julianstephens/crewlog/internal/cli"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/snapshot"
	"github.com/julianstephens/crewlog/internal/storage"
	"github.com/julianstephens/crewlog/internal/storage/sqlite"
)

func sqliteContext(t *testing.T) (*cli.Context, *sqlite.Store) {
	t.Helper()
	dir := t.TempDir()
	store := sqlite.NewStore(filepath.Join(dir, "crewlog.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return &cli.Context{
		Ctx:        context.Background(),
		Store:      store,
		LocalStore: sqlite.NewStore(filepath.Join(dir, "session.db")),
		AssumeYes:  true,
	}, store
}

func TestSnapshotTakeAndRestore(t *testing.T) {
	ctx, store := sqliteContext(t)
	bg := context.Background()
	if err := store.SaveBooking(bg, models.Booking{ID: "b1", UnitID: "u1", Status: models.BookingPending}); err != nil {
		t.Fatal(err)
	}
	if err := (&SnapshotTakeCmd{}).Run(ctx); err != nil {
		t.Fatalf("take: %v", err)
	}

	m := snapshot.NewManager(store.GetConfigPath())
	all, err := m.List()
	if err != nil || len(all) != 1 {
		t.Fatalf("List() = %d, %v; want one snapshot", len(all), err)
	}
	if err := (&SnapshotListCmd{}).Run(ctx); err != nil {
		t.Errorf("list: %v", err)
	}

	if err := store.SaveBooking(bg, models.Booking{ID: "b2", UnitID: "u1", Status: models.BookingPending}); err != nil {
		t.Fatal(err)
	}
	if err := (&SnapshotRestoreCmd{File: filepath.Base(all[0].Path)}).Run(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := store.Load(); err != nil {
		t.Fatalf("Load() after restore: %v", err)
	}
	if _, err := store.GetBooking(bg, "b1"); err != nil {
		t.Errorf("b1 missing after restore: %v", err)
	}
	if _, err := store.GetBooking(bg, "b2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetBooking(b2) error = %v, want ErrNotFound", err)
	}
}

func TestMigrateTakesSnapshot(t *testing.T) {
	ctx, store := sqliteContext(t)
	if err := (&MigrateCmd{}).Run(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	all, err := snapshot.NewManager(store.GetConfigPath()).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("migrate left %d snapshots, want 1", len(all))
	}
}

func TestSnapshotMissingDatabase(t *testing.T) {
	ctx, _ := doctorContext(t)
	if err := (&SnapshotTakeCmd{}).Run(ctx); err == nil {
		t.Error("expected error snapshotting a store with no database file")
	}
	if snap, err := takeSnapshot(ctx); err != nil || snap != "" {
		t.Errorf("takeSnapshot() = %q, %v; want a silent skip", snap, err)
	}
}

func TestSnapshotRestoreUnknownFile(t *testing.T) {
	ctx, _ := sqliteContext(t)
	if err := (&SnapshotRestoreCmd{File: "crewlog-19990101-000000.db"}).Run(ctx); err == nil {
		t.Error("expected error for unknown snapshot")
	}
}
