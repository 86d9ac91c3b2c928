package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "github.com/julianstephens/crewlog/internal/errors"
)

func TestIsCents(t *testing.T) {
	tests := map[string]bool{
		"8":      true,
		"8.1":    true,
		"8.13":   true,
		"8.1300": true,
		"8.125":  false,
		"0.001":  false,
	}
	for in, want := range tests {
		if got := IsCents(decimal.RequireFromString(in)); got != want {
			t.Errorf("IsCents(%s) = %v, want %v", in, got, want)
		}
	}
}

func TestBillingAdjustmentValidate(t *testing.T) {
	valid := func() BillingAdjustment {
		unit := decimal.RequireFromString("8.13")
		return BillingAdjustment{
			ID: "a1", BookingID: "b1", EntryID: "p1", ItemName: "Soap", Quantity: 3,
			ResolvedUnitPrice: unit, EditedUnitPrice: unit, TotalPrice: LineTotal(unit, 3),
		}
	}
	a := valid()
	if err := a.Validate(); err != nil {
		t.Fatalf("valid adjustment rejected: %v", err)
	}
	if !a.TotalPrice.Equal(decimal.RequireFromString("24.39")) {
		t.Errorf("TotalPrice = %s, want 24.39", a.TotalPrice)
	}

	fractional := valid()
	fractional.EditedUnitPrice = decimal.RequireFromString("8.125")
	fractional.TotalPrice = LineTotal(fractional.EditedUnitPrice, 3)
	var ve *apperrors.ValidationError
	if err := fractional.Validate(); !errors.As(err, &ve) {
		t.Errorf("sub-cent unit price error = %v, want ValidationError", err)
	}

	mismatch := valid()
	mismatch.TotalPrice = decimal.RequireFromString("24.38")
	if err := mismatch.Validate(); err == nil {
		t.Error("total not matching unit x quantity accepted")
	}
}

func TestCatalogLookup(t *testing.T) {
	catalog := NewCatalog([]EquipmentMasterItem{
		{ID: "soap", Name: "Hand Soap", BasePrice: decimal.NewFromInt(5)},
		{ID: "towel", Name: "Bath towel", BasePrice: decimal.NewFromInt(10)},
	})

	tests := []struct {
		name   string
		ref    ItemRef
		wantID string
	}{
		{"by id", ItemRef{EquipmentID: "towel", Name: "Renamed towel"}, "towel"},
		{"free text by name", ItemRef{Name: "  hand   SOAP "}, "soap"},
		{"stale id does not fall back to name", ItemRef{EquipmentID: "retired-soap", Name: "Hand Soap"}, ""},
		{"unknown free text", ItemRef{Name: "Scented candle"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := catalog.Lookup(tt.ref)
			if ok != (tt.wantID != "") || item.ID != tt.wantID {
				t.Errorf("Lookup(%+v) = %q, %v; want %q", tt.ref, item.ID, ok, tt.wantID)
			}
		})
	}
}

func TestEquipmentPricesInCents(t *testing.T) {
	item := EquipmentMasterItem{ID: "soap", Name: "Soap", BasePrice: decimal.RequireFromString("4.999")}
	if err := item.Validate(); err == nil {
		t.Error("base price with fractional cents accepted")
	}
	cfg := UnitEquipmentConfig{UnitID: "u1", EquipmentID: "soap",
		OverridePrice: decimal.NewNullDecimal(decimal.RequireFromString("1.001"))}
	if err := cfg.Validate(); err == nil {
		t.Error("override price with fractional cents accepted")
	}
}
