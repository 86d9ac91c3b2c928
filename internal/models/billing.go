package models

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/julianstephens/crewlog/internal/errors"
)

// BillingAdjustment is one priced Provide line produced by reconciliation.
// The full set for a booking is replaced on every finalize. Manual records
// that a reviewer entered the unit price rather than accepting the resolved one.
type BillingAdjustment struct {
	ID                string          `json:"id"`
	BookingID         string          `json:"booking_id"`
	EntryID           string          `json:"entry_id"`
	ItemName          string          `json:"item_name"`
	Quantity          int             `json:"quantity"`
	ResolvedUnitPrice decimal.Decimal `json:"resolved_unit_price"`
	EditedUnitPrice   decimal.Decimal `json:"edited_unit_price"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	Remarks           string          `json:"remarks,omitempty"`
	Manual            bool            `json:"manual"`
	CreatedAt         time.Time       `json:"created_at"`
}

// LineTotal is unit price times quantity, rounded to cents.
func LineTotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

// IsCents reports whether d carries at most two decimal places.
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func (a *BillingAdjustment) Validate() error {
	if a.BookingID == "" || a.EntryID == "" {
		return apperrors.Invalid("adjustment", "booking and entry ids are required")
	}
	if a.EditedUnitPrice.IsNegative() {
		return apperrors.Invalid("adjustment.edited_unit_price", "%s: cannot be negative", a.ItemName)
	}
	if !IsCents(a.EditedUnitPrice) || !IsCents(a.ResolvedUnitPrice) {
		return apperrors.Invalid("adjustment.edited_unit_price", "%s: more than 2 decimal places", a.ItemName)
	}
	if !a.TotalPrice.Equal(LineTotal(a.EditedUnitPrice, a.Quantity)) {
		return apperrors.Invalid("adjustment.total_price", "%s: total does not match unit price x quantity", a.ItemName)
	}
	return nil
}

// SumAdjustments totals a set of adjustments.
func SumAdjustments(set []BillingAdjustment) decimal.Decimal {
	total := decimal.Zero
	for _, a := range set {
		total = total.Add(a.TotalPrice)
	}
	return total
}
