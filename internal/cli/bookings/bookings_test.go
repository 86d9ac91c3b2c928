package bookings

import (
	"context"
	"errors"
	"testing"

	"github.com/julianstephens/crewlog/internal/cli"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/storage"
)

func testContext(t *testing.T) (*cli.Context, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	if err := store.SaveBooking(context.Background(), models.Booking{ID: "b1", UnitID: "u1", Status: models.BookingPending}); err != nil {
		t.Fatal(err)
	}
	return &cli.Context{Ctx: context.Background(), Store: store, LocalStore: store, AssumeYes: true}, store
}

func TestActivateDeactivate(t *testing.T) {
	ctx, store := testContext(t)

	if err := (&ActivateCmd{ID: "b1"}).Run(ctx); err != nil {
		t.Fatalf("Activate error = %v", err)
	}
	b, _ := store.GetBooking(ctx.Ctx, "b1")
	if b.Status != models.BookingActive {
		t.Errorf("status = %s, want active", b.Status)
	}

	if err := (&DeactivateCmd{ID: "b1"}).Run(ctx); err != nil {
		t.Fatalf("Deactivate error = %v", err)
	}
	b, _ = store.GetBooking(ctx.Ctx, "b1")
	if b.Status != models.BookingPending {
		t.Errorf("status = %s, want pending", b.Status)
	}
}

func TestActivateCompletedBookingFails(t *testing.T) {
	ctx, store := testContext(t)
	if err := store.TransitionBooking(ctx.Ctx, "b1", models.BookingCompleted); err != nil {
		t.Fatal(err)
	}
	err := (&ActivateCmd{ID: "b1"}).Run(ctx)
	if !errors.Is(err, storage.ErrInvalidTransition) {
		t.Errorf("Activate error = %v, want ErrInvalidTransition", err)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	ctx, _ := testContext(t)
	if err := (&ListCmd{Status: []string{"cancelled"}}).Run(ctx); err == nil {
		t.Error("List accepted an unknown status")
	}
	if err := (&ListCmd{Status: []string{"pending"}}).Run(ctx); err != nil {
		t.Errorf("List error = %v", err)
	}
}
