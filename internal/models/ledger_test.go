package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/julianstephens/crewlog/internal/errors"
)

func sampleLedger() Ledger {
	return Ledger{
		StandardExchange{ID: "s1", Item: ItemRef{EquipmentID: "towel", Name: "Bath towel"}, ExpectedQuantity: 2, ExchangedQuantity: 2},
		ExtraExchange{ID: "x1", Item: ItemRef{EquipmentID: "sheet", Name: "Bed sheet"}, Quantity: 1},
		CustomExchange{ID: "c1", Item: ItemRef{Name: "Doormat"}, Quantity: 1},
		Provide{ID: "p1", Source: ProvideExtra, Item: ItemRef{EquipmentID: "xtowel", Name: "Extra Towel"}, Quantity: 3},
		Provide{ID: "p2", Source: ProvideCustom, Item: ItemRef{Name: "Air freshener"}, Quantity: 1},
	}
}

func TestLedgerJSONRoundTrip(t *testing.T) {
	original := sampleLedger()

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var restored Ledger
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, restored) {
		t.Errorf("round trip mismatch:\n got  %#v\n want %#v", restored, original)
	}
}

func TestLedgerUnmarshalUnknownKind(t *testing.T) {
	var l Ledger
	err := json.Unmarshal([]byte(`[{"kind":"rental","id":"r1","item":{"name":"Vacuum"},"quantity":1}]`), &l)
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestLedgerBillableOnlyProvide(t *testing.T) {
	billable := sampleLedger().Billable()
	if len(billable) != 2 {
		t.Fatalf("Billable() returned %d entries, want 2", len(billable))
	}
	for _, p := range billable {
		if p.ID != "p1" && p.ID != "p2" {
			t.Errorf("exchange entry %q leaked into billing", p.ID)
		}
	}

	exchangesOnly := Ledger{
		StandardExchange{ID: "s1", Item: ItemRef{EquipmentID: "towel", Name: "Bath towel"}, ExpectedQuantity: 4, ExchangedQuantity: 10},
		ExtraExchange{ID: "x1", Item: ItemRef{EquipmentID: "sheet", Name: "Bed sheet"}, Quantity: 10},
		CustomExchange{ID: "c1", Item: ItemRef{Name: "Doormat"}, Quantity: 10},
	}
	if got := exchangesOnly.Billable(); len(got) != 0 {
		t.Errorf("exchange-only ledger produced %d billable entries", len(got))
	}
}

func TestLedgerSetQuantityClamps(t *testing.T) {
	tests := []struct {
		name string
		id   string
		qty  int
		want int
	}{
		{"standard within range", "s1", 4, 4},
		{"standard above range", "s1", 25, 10},
		{"extra below range", "x1", -3, 0},
		{"provide exact max", "p1", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := sampleLedger()
			if err := l.SetQuantity(tt.id, tt.qty); err != nil {
				t.Fatalf("SetQuantity failed: %v", err)
			}
			got := l[l.Index(tt.id)].Qty()
			if got != tt.want {
				t.Errorf("quantity = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLedgerSetQuantityKeepsExpected(t *testing.T) {
	l := sampleLedger()
	if err := l.SetQuantity("s1", 1); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
	std := l[0].(StandardExchange)
	if std.ExpectedQuantity != 2 || std.ExchangedQuantity != 1 {
		t.Errorf("got expected=%d exchanged=%d, want 2/1", std.ExpectedQuantity, std.ExchangedQuantity)
	}
}

func TestLedgerSetQuantityUnknownEntry(t *testing.T) {
	l := sampleLedger()
	err := l.SetQuantity("missing", 2)
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestLedgerRemove(t *testing.T) {
	l := sampleLedger()

	if _, err := l.Remove("s1"); err == nil {
		t.Error("expected standard exchange removal to fail")
	}

	out, err := l.Remove("c1")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(out) != len(l)-1 || out.Index("c1") != -1 {
		t.Errorf("entry not removed: %v", out)
	}
	if l.Index("c1") == -1 {
		t.Error("Remove mutated the original ledger")
	}
}

func TestLedgerValidate(t *testing.T) {
	if err := sampleLedger().Validate(); err != nil {
		t.Fatalf("valid ledger rejected: %v", err)
	}

	bad := Ledger{ExtraExchange{ID: "x1", Item: ItemRef{EquipmentID: "sheet", Name: "Bed sheet"}, Quantity: 11}}
	var verr *apperrors.ValidationError
	if err := bad.Validate(); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for quantity 11, got %v", err)
	}

	dup := Ledger{
		CustomExchange{ID: "c1", Item: ItemRef{Name: "Doormat"}},
		CustomExchange{ID: "c1", Item: ItemRef{Name: "Rug"}},
	}
	if err := dup.Validate(); err == nil {
		t.Error("expected duplicate id to be rejected")
	}
}

func TestNewLedgerEntry(t *testing.T) {
	tests := []struct {
		name     string
		kind     LedgerKind
		item     ItemRef
		wantErr  bool
		wantKind LedgerKind
	}{
		{"extra exchange from catalog", KindExtraExchange, ItemRef{EquipmentID: "sheet", Name: "Bed sheet"}, false, KindExtraExchange},
		{"extra exchange without catalog id", KindExtraExchange, ItemRef{Name: "Bed sheet"}, true, ""},
		{"custom exchange free text", KindCustomExchange, ItemRef{Name: "Doormat"}, false, KindCustomExchange},
		{"provide custom", KindProvideCustom, ItemRef{Name: "Air freshener"}, false, KindProvideCustom},
		{"provide extra", KindProvideExtra, ItemRef{EquipmentID: "xtowel", Name: "Extra Towel"}, false, KindProvideExtra},
		{"standard not addable", KindStandardExchange, ItemRef{EquipmentID: "towel", Name: "Bath towel"}, true, ""},
		{"empty name", KindCustomExchange, ItemRef{Name: "  "}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := NewLedgerEntry("id-1", tt.kind, tt.item)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got entry %#v", entry)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if entry.Kind() != tt.wantKind {
				t.Errorf("Kind() = %s, want %s", entry.Kind(), tt.wantKind)
			}
			if entry.Qty() != 0 {
				t.Errorf("new entry quantity = %d, want 0", entry.Qty())
			}
		})
	}
}

func TestParseLedgerKind(t *testing.T) {
	k, err := ParseLedgerKind("Provide-Custom")
	if err != nil || k != KindProvideCustom {
		t.Errorf("ParseLedgerKind() = %q, %v", k, err)
	}
	if _, err := ParseLedgerKind("rental"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestLedgerHasActivity(t *testing.T) {
	l := Ledger{
		StandardExchange{ID: "s1", Item: ItemRef{EquipmentID: "towel", Name: "Bath towel"}, ExpectedQuantity: 2},
		CustomExchange{ID: "c1", Item: ItemRef{Name: "Doormat"}},
	}
	if l.HasActivity() {
		t.Error("all-zero ledger reported activity")
	}
	_ = l.SetQuantity("c1", 1)
	if !l.HasActivity() {
		t.Error("non-zero entry not reported as activity")
	}
}
