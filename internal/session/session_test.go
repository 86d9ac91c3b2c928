package session

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/julianstephens/crewlog/internal/errors"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/storage"
)

var start = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func setup(t *testing.T, status models.BookingStatus) (*storage.MemoryStore, *Machine) {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	must(store.SaveChecklistTemplate(ctx, models.ChecklistTemplate{ID: "tpl", Sections: []models.Section{
		{Title: "Kitchen", Tasks: []string{"Wipe counters", "Mop floor"}},
		{Title: "Bath", Tasks: []string{"Scrub tub", "Restock towels", "Empty bin"}},
	}}))
	must(store.SaveEquipmentItem(ctx, models.EquipmentMasterItem{ID: "towel", Name: "Bath towel", BasePrice: decimal.NewFromInt(3)}))
	must(store.SaveEquipmentItem(ctx, models.EquipmentMasterItem{ID: "sheet", Name: "Bed sheet", BasePrice: decimal.NewFromInt(6)}))
	must(store.SaveEquipmentItem(ctx, models.EquipmentMasterItem{ID: "soap", Name: "Hand soap", BasePrice: decimal.NewFromInt(10)}))
	must(store.SaveUnitEquipmentConfig(ctx, models.UnitEquipmentConfig{UnitID: "u1", EquipmentID: "towel", StandardQty: 4}))
	must(store.SaveUnitEquipmentConfig(ctx, models.UnitEquipmentConfig{UnitID: "u1", EquipmentID: "sheet", StandardQty: 2}))
	must(store.SaveBooking(ctx, models.Booking{ID: "b1", Status: status, UnitID: "u1", ChecklistTemplateID: "tpl"}))

	clock := start
	m := NewMachine(store, store,
		WithClock(func() time.Time { return clock }),
		WithIDs(seqIDs()))
	return store, m
}

func startSession(t *testing.T, m *Machine) *Session {
	t.Helper()
	s, err := m.Open(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Start(context.Background(), StartOptions{}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return s
}

func TestOpenFresh(t *testing.T) {
	_, m := setup(t, models.BookingPending)
	s, err := m.Open(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if s.Restored() || s.HasUnsavedWork() {
		t.Errorf("fresh session: restored=%v unsaved=%v", s.Restored(), s.HasUnsavedWork())
	}
	if s.State().Status != models.SessionNotStarted {
		t.Errorf("Status = %s, want not_started", s.State().Status)
	}

	if _, err := m.Open(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Open(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStartSeedsChecklistAndLedger(t *testing.T) {
	store, m := setup(t, models.BookingActive)
	s := startSession(t, m)

	st := s.State()
	if st.Status != models.SessionActive || !st.StartedAt.Equal(start) {
		t.Errorf("Status = %s StartedAt = %v", st.Status, st.StartedAt)
	}
	if len(st.Checklist) != 5 || st.Checklist.Done() != 0 {
		t.Errorf("Checklist = %v, want 5 pending keys", st.Checklist)
	}
	if _, ok := st.Checklist["Bath - Restock towels"]; !ok {
		t.Error("Checklist missing key \"Bath - Restock towels\"")
	}
	if len(st.Ledger) != 2 {
		t.Fatalf("Ledger = %v, want 2 standard exchanges", st.Ledger)
	}
	for _, e := range st.Ledger {
		std, ok := e.(models.StandardExchange)
		if !ok {
			t.Fatalf("seeded entry %T, want StandardExchange", e)
		}
		if std.ExchangedQuantity != 0 {
			t.Errorf("%s seeded with quantity %d", std.Item.Name, std.ExchangedQuantity)
		}
	}
	if st.Ledger[0].Ref().Name != "Bed sheet" {
		t.Errorf("first entry name = %q, want catalog name", st.Ledger[0].Ref().Name)
	}

	if _, err := store.LoadSession("b1"); err != nil {
		t.Errorf("Start did not persist the session: %v", err)
	}
	if !s.HasUnsavedWork() {
		t.Error("HasUnsavedWork() = false on active session")
	}
}

func TestStartRejections(t *testing.T) {
	t.Run("completed booking", func(t *testing.T) {
		_, m := setup(t, models.BookingCompleted)
		s, _ := m.Open(context.Background(), "b1")
		err := s.Start(context.Background(), StartOptions{})
		var ve *apperrors.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("Start() error = %v, want ValidationError", err)
		}
	})

	t.Run("already active", func(t *testing.T) {
		_, m := setup(t, models.BookingPending)
		s := startSession(t, m)
		_ = s.ToggleChecklistItem("Kitchen - Mop floor")

		if err := s.Start(context.Background(), StartOptions{}); err == nil {
			t.Fatal("second Start() should fail without Restart")
		}
		if !s.State().Checklist["Kitchen - Mop floor"] {
			t.Error("rejected Start() changed the checklist")
		}

		if err := s.Start(context.Background(), StartOptions{Restart: true}); err != nil {
			t.Fatalf("Start(Restart) error = %v", err)
		}
		if s.State().Checklist.Done() != 0 {
			t.Error("Start(Restart) did not reseed the checklist")
		}
	})
}

func TestToggleChecklistItem(t *testing.T) {
	_, m := setup(t, models.BookingPending)

	notStarted, _ := m.Open(context.Background(), "b1")
	if err := notStarted.ToggleChecklistItem("Kitchen - Mop floor"); err != nil {
		t.Errorf("toggle on NotStarted error = %v, want no-op", err)
	}
	if len(notStarted.State().Checklist) != 0 {
		t.Error("toggle on NotStarted changed state")
	}

	s := startSession(t, m)
	if err := s.ToggleChecklistItem("Kitchen - Mop floor"); err != nil {
		t.Fatalf("toggle error = %v", err)
	}
	if !s.State().Checklist["Kitchen - Mop floor"] {
		t.Error("toggle did not set the task")
	}
	_ = s.ToggleChecklistItem("Kitchen - Mop floor")
	if s.State().Checklist["Kitchen - Mop floor"] {
		t.Error("second toggle did not clear the task")
	}

	before := s.State()
	err := s.ToggleChecklistItem("Garage - Sweep")
	var ve *apperrors.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("unknown key error = %v, want ValidationError", err)
	}
	if !reflect.DeepEqual(before.Checklist, s.State().Checklist) {
		t.Error("unknown key changed the checklist")
	}
}

func TestRecordLedgerQuantityClamps(t *testing.T) {
	_, m := setup(t, models.BookingPending)
	s := startSession(t, m)
	id := s.State().Ledger[0].EntryID()

	tests := []struct {
		in, want int
	}{
		{3, 3},
		{-2, 0},
		{15, 10},
		{10, 10},
	}
	for _, tt := range tests {
		if err := s.RecordLedgerQuantity(id, tt.in); err != nil {
			t.Fatalf("RecordLedgerQuantity(%d) error = %v", tt.in, err)
		}
		if got := s.State().Ledger[0].Qty(); got != tt.want {
			t.Errorf("RecordLedgerQuantity(%d) stored %d, want %d", tt.in, got, tt.want)
		}
	}

	std := s.State().Ledger[0].(models.StandardExchange)
	if std.ExpectedQuantity != 2 {
		t.Errorf("ExpectedQuantity = %d, want it untouched at 2", std.ExpectedQuantity)
	}

	if err := s.RecordLedgerQuantity("nope", 1); err == nil {
		t.Error("unknown entry should fail")
	}
}

func TestAddAndRemoveLedgerEntries(t *testing.T) {
	ctx := context.Background()
	_, m := setup(t, models.BookingPending)
	s := startSession(t, m)

	provide, err := s.AddLedgerEntry(ctx, models.KindProvideExtra, models.ItemRef{Name: "hand SOAP"})
	if err != nil {
		t.Fatalf("AddLedgerEntry(provide_extra) error = %v", err)
	}
	if provide.Ref().EquipmentID != "soap" || provide.Ref().Name != "Hand soap" {
		t.Errorf("catalog entry resolved to %+v", provide.Ref())
	}

	if _, err := s.AddLedgerEntry(ctx, models.KindExtraExchange, models.ItemRef{Name: "Chandelier"}); err == nil {
		t.Error("catalog kind with unknown item should fail")
	}

	custom, err := s.AddLedgerEntry(ctx, models.KindCustomExchange, models.ItemRef{Name: "Doormat"})
	if err != nil {
		t.Fatalf("AddLedgerEntry(custom_exchange) error = %v", err)
	}
	if _, err := s.AddLedgerEntry(ctx, models.KindStandardExchange, models.ItemRef{EquipmentID: "towel", Name: "Bath towel"}); err == nil {
		t.Error("standard exchanges cannot be added by hand")
	}
	if got := len(s.State().Ledger); got != 4 {
		t.Fatalf("ledger length = %d, want 4", got)
	}

	if err := s.RemoveLedgerEntry(custom.EntryID()); err != nil {
		t.Fatalf("RemoveLedgerEntry() error = %v", err)
	}
	if err := s.RemoveLedgerEntry(s.State().Ledger[0].EntryID()); err == nil {
		t.Error("removing a standard exchange should fail")
	}
	if got := len(s.State().Ledger); got != 3 {
		t.Errorf("ledger length = %d, want 3", got)
	}
}

func TestPhotoQueue(t *testing.T) {
	_, m := setup(t, models.BookingPending)
	s := startSession(t, m)

	if _, err := s.QueuePhoto("before.jpg", "image/jpeg", []byte{1, 2, 3}); err != nil {
		t.Fatalf("QueuePhoto() error = %v", err)
	}
	if _, err := s.QueuePhoto("after.jpg", "image/jpeg", []byte{4}); err != nil {
		t.Fatalf("QueuePhoto() error = %v", err)
	}
	if _, err := s.QueuePhoto("empty.jpg", "image/jpeg", nil); err == nil {
		t.Error("empty photo should be rejected")
	}

	if err := s.DequeuePhoto(0); err != nil {
		t.Fatalf("DequeuePhoto(0) error = %v", err)
	}
	photos := s.State().Photos
	if len(photos) != 1 || photos[0].Name != "after.jpg" {
		t.Errorf("Photos = %+v, want only after.jpg", photos)
	}
	if err := s.DequeuePhoto(5); err == nil {
		t.Error("DequeuePhoto(out of range) should fail")
	}
}

func TestFailedSaveLeavesStateUntouched(t *testing.T) {
	store, m := setup(t, models.BookingPending)
	s := startSession(t, m)

	store.FailSaveSession = errors.New("storage quota exceeded")
	if err := s.ToggleChecklistItem("Kitchen - Mop floor"); err == nil {
		t.Fatal("toggle with failing store should return an error")
	}
	if s.State().Checklist["Kitchen - Mop floor"] {
		t.Error("failed save still changed in-memory state")
	}
	if err := s.RecordLedgerQuantity(s.State().Ledger[0].EntryID(), 4); err == nil {
		t.Fatal("quantity with failing store should return an error")
	}
	if s.State().Ledger[0].Qty() != 0 {
		t.Error("failed save still changed the ledger")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, m := setup(t, models.BookingPending)
	s := startSession(t, m)

	_ = s.ToggleChecklistItem("Kitchen - Mop floor")
	_ = s.ToggleChecklistItem("Bath - Scrub tub")
	_ = s.ToggleChecklistItem("Kitchen - Mop floor")
	_ = s.ToggleChecklistItem("Bath - Empty bin")
	_ = s.RecordLedgerQuantity(s.State().Ledger[1].EntryID(), 4)
	p, _ := s.AddLedgerEntry(ctx, models.KindProvideCustom, models.ItemRef{Name: "Scented candle"})
	_ = s.RecordLedgerQuantity(p.EntryID(), 2)
	_, _ = s.QueuePhoto("a.jpg", "image/jpeg", []byte{0xff})

	restored, err := m.Open(ctx, "b1")
	if err != nil {
		t.Fatalf("Open() after mutations error = %v", err)
	}
	if !restored.Restored() {
		t.Error("Restored() = false for a persisted session")
	}

	want, got := s.State(), restored.State()
	if !reflect.DeepEqual(want.Checklist, got.Checklist) {
		t.Errorf("checklist after restore = %v, want %v", got.Checklist, want.Checklist)
	}
	if !reflect.DeepEqual(want.Ledger, got.Ledger) {
		t.Errorf("ledger after restore = %v, want %v", got.Ledger, want.Ledger)
	}
	if len(got.Photos) != 1 || !got.StartedAt.Equal(start) {
		t.Errorf("restored session = %+v", got)
	}

	// resuming must not reseed
	if restored.State().Checklist.Done() != 2 {
		t.Errorf("restored Done() = %d, want 2", restored.State().Checklist.Done())
	}
}
