package sessions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/crewlog/internal/cli"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/storage"
)

func testContext(t *testing.T) (*cli.Context, *storage.MemoryStore) {
	t.Helper()
	gokeyring.MockInit()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seed := []error{
		store.SaveChecklistTemplate(ctx, models.ChecklistTemplate{ID: "tpl", Sections: []models.Section{
			{Title: "Kitchen", Tasks: []string{"Wipe counters", "Mop floor"}},
		}}),
		store.SaveEquipmentItem(ctx, models.EquipmentMasterItem{ID: "towel", Name: "Bath towel", BasePrice: decimal.NewFromInt(3)}),
		store.SaveUnitEquipmentConfig(ctx, models.UnitEquipmentConfig{UnitID: "u1", EquipmentID: "towel", StandardQty: 2}),
		store.SaveBooking(ctx, models.Booking{ID: "b1", Status: models.BookingActive, UnitID: "u1", ChecklistTemplateID: "tpl"}),
	}
	for _, err := range seed {
		if err != nil {
			t.Fatal(err)
		}
	}
	return &cli.Context{
		Ctx:         ctx,
		Store:       store,
		LocalStore:  store,
		Operative:   "op-1",
		EvidenceURL: "file://" + t.TempDir(),
		AssumeYes:   true,
	}, store
}

func TestSessionCommandsEndToEnd(t *testing.T) {
	ctx, store := testContext(t)

	steps := []interface{ Run(*cli.Context) error }{
		&StartCmd{Booking: "b1"},
		&ToggleCmd{Booking: "b1", Tasks: []string{"1", "Kitchen - Mop floor"}},
		&QtyCmd{Booking: "b1", Entry: "1", Quantity: 2},
		&AddCmd{Booking: "b1", Kind: "provide-extra", Item: "Bath towel", Qty: 3},
		&AddCmd{Booking: "b1", Kind: "provide-custom", Item: "Doormat", Qty: 1},
	}
	for _, step := range steps {
		if err := step.Run(ctx); err != nil {
			t.Fatalf("%T: %v", step, err)
		}
	}

	photo := filepath.Join(t.TempDir(), "after.jpg")
	if err := os.WriteFile(photo, []byte{0xff, 0xd8, 0xff}, 0600); err != nil {
		t.Fatal(err)
	}
	if err := (&PhotoAddCmd{Booking: "b1", Files: []string{photo}}).Run(ctx); err != nil {
		t.Fatalf("PhotoAdd: %v", err)
	}

	ws, err := store.LoadSession("b1")
	if err != nil {
		t.Fatal(err)
	}
	if ws.Checklist.Done() != 2 || len(ws.Ledger) != 3 || len(ws.Photos) != 1 {
		t.Fatalf("session = %d done, %d entries, %d photos", ws.Checklist.Done(), len(ws.Ledger), len(ws.Photos))
	}
	if p, ok := ws.Ledger[1].(models.Provide); !ok || p.Item.EquipmentID != "towel" || p.Quantity != 3 {
		t.Errorf("provide entry = %+v", ws.Ledger[1])
	}

	if err := (&SubmitCmd{Booking: "b1"}).Run(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	rec, err := store.GetWorkRecord(ctx.Ctx, "b1")
	if err != nil {
		t.Fatalf("no work record: %v", err)
	}
	if rec.SubmittedBy != "op-1" || len(rec.PhotoReferences) != 1 {
		t.Errorf("record = %+v", rec)
	}
	if _, err := store.LoadSession("b1"); !errors.Is(err, storage.ErrSessionNotFound) {
		t.Errorf("session not cleared: %v", err)
	}
}

func TestStartResumesWithoutRestart(t *testing.T) {
	ctx, store := testContext(t)
	_ = (&StartCmd{Booking: "b1"}).Run(ctx)
	_ = (&ToggleCmd{Booking: "b1", Tasks: []string{"1"}}).Run(ctx)

	if err := (&StartCmd{Booking: "b1"}).Run(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	ws, _ := store.LoadSession("b1")
	if ws.Checklist.Done() != 1 {
		t.Error("Start without --restart reset the session")
	}

	if err := (&StartCmd{Booking: "b1", Restart: true}).Run(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	ws, _ = store.LoadSession("b1")
	if ws.Checklist.Done() != 0 {
		t.Error("--restart kept old progress")
	}
}

func TestCommandsNeedStartedSession(t *testing.T) {
	ctx, _ := testContext(t)
	if err := (&ToggleCmd{Booking: "b1", Tasks: []string{"1"}}).Run(ctx); err == nil {
		t.Error("Toggle on an unstarted session should fail")
	}
	if err := (&SubmitCmd{Booking: "b1"}).Run(ctx); err == nil {
		t.Error("Submit on an unstarted session should fail")
	}
}

func TestRemoveStandardEntryRejected(t *testing.T) {
	ctx, _ := testContext(t)
	_ = (&StartCmd{Booking: "b1"}).Run(ctx)
	if err := (&RemoveCmd{Booking: "b1", Entry: "1"}).Run(ctx); err == nil {
		t.Error("removing a standard exchange should fail")
	}
}
