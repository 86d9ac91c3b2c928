// Package reconcile is the supervisor audit step: it prices the billable
// items of a submitted work record and finalizes the booking.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/julianstephens/crewlog/internal/errors"
	"github.com/julianstephens/crewlog/internal/logger"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/storage"
)

// Line is one billable Provide entry with its resolved and edited price.
type Line struct {
	EntryID           string
	Item              models.ItemRef
	Source            models.ProvideSource
	Quantity          int
	ResolvedUnitPrice decimal.Decimal
	PriceSource       PriceSource
	EditedUnitPrice   decimal.Decimal
	Remarks           string
	// Edited is set once a reviewer supplied the unit price, in this audit
	// or a previous one.
	Edited bool
}

// Gap reports whether the line has no catalog or unit price.
func (l Line) Gap() bool { return l.PriceSource == PriceNone }

func (l Line) Total() decimal.Decimal {
	return models.LineTotal(l.EditedUnitPrice, l.Quantity)
}

// Draft is the priced view of a booking presented for review.
type Draft struct {
	Booking models.Booking
	Record  models.WorkRecord
	Lines   []Line
	// ReAudit is set when the booking was already finalized.
	ReAudit bool
}

// Total sums the edited line totals.
func (d Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Lines {
		total = total.Add(l.Total())
	}
	return total
}

// Unpriced lists gap lines no reviewer has priced yet.
func (d Draft) Unpriced() []Line {
	var out []Line
	for _, l := range d.Lines {
		if l.Gap() && !l.Edited {
			out = append(out, l)
		}
	}
	return out
}

// Edit is a reviewer's change to one line.
type Edit struct {
	UnitPrice decimal.NullDecimal
	Remarks   string
}

type Engine struct {
	provider storage.Provider
	now      func() time.Time
	newID    func() string
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func NewEngine(provider storage.Provider, opts ...Option) *Engine {
	e := &Engine{provider: provider, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prepare loads the work record and prices every billable entry. On a
// re-audit the previous adjustments pre-fill edited prices and remarks.
func (e *Engine) Prepare(ctx context.Context, bookingID string) (Draft, error) {
	booking, err := e.provider.GetBooking(ctx, bookingID)
	if err != nil {
		return Draft{}, err
	}
	if !booking.Status.Reconcilable() {
		return Draft{}, apperrors.Invalid("booking.status", "booking %s is %s; only completed or finalized bookings can be audited",
			booking.ID, booking.Status)
	}

	record, err := e.provider.GetWorkRecord(ctx, bookingID)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Error("Booking has no work record", "booking", bookingID, "status", booking.Status)
		return Draft{}, &apperrors.MissingRecordError{BookingID: bookingID, Status: string(booking.Status)}
	}
	if err != nil {
		return Draft{}, fmt.Errorf("failed to load work record: %w", err)
	}

	items, err := e.provider.ListEquipmentItems(ctx)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to load equipment catalog: %w", err)
	}
	unitConfig, err := e.provider.ListUnitEquipmentConfig(ctx, booking.UnitID)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to load unit equipment: %w", err)
	}
	prices := NewPriceBook(items, unitConfig)

	prior := map[string]models.BillingAdjustment{}
	if booking.Status == models.BookingFinalized {
		previous, err := e.provider.GetBillingAdjustments(ctx, bookingID)
		if err != nil {
			return Draft{}, fmt.Errorf("failed to load previous adjustments: %w", err)
		}
		for _, a := range previous {
			prior[a.EntryID] = a
		}
	}

	draft := Draft{Booking: booking, Record: record, ReAudit: booking.Status == models.BookingFinalized}
	for _, p := range record.LedgerSnapshot.Billable() {
		price, source := prices.Resolve(p.Item)
		line := Line{
			EntryID:           p.ID,
			Item:              p.Item,
			Source:            p.Source,
			Quantity:          p.Quantity,
			ResolvedUnitPrice: price,
			PriceSource:       source,
			EditedUnitPrice:   price,
		}
		if prev, ok := prior[p.ID]; ok {
			line.EditedUnitPrice = prev.EditedUnitPrice
			line.Remarks = prev.Remarks
			line.Edited = prev.Manual
		}
		draft.Lines = append(draft.Lines, line)
	}
	return draft, nil
}

// Apply merges reviewer edits into the draft. Unknown entries, negative
// prices and fractions of a cent are rejected without changing the draft.
func (d Draft) Apply(edits map[string]Edit) (Draft, error) {
	index := make(map[string]int, len(d.Lines))
	for i, l := range d.Lines {
		index[l.EntryID] = i
	}
	ids := make([]string, 0, len(edits))
	for id := range edits {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := d
	out.Lines = append([]Line(nil), d.Lines...)
	for _, id := range ids {
		edit := edits[id]
		i, ok := index[id]
		if !ok {
			return d, apperrors.Invalid("edit", "no billable line %q", id)
		}
		if edit.UnitPrice.Valid {
			if edit.UnitPrice.Decimal.IsNegative() {
				return d, apperrors.Invalid("edit.unit_price", "%s: price cannot be negative", out.Lines[i].Item.Name)
			}
			if !models.IsCents(edit.UnitPrice.Decimal) {
				return d, apperrors.Invalid("edit.unit_price", "%s: price %s has more than 2 decimal places",
					out.Lines[i].Item.Name, edit.UnitPrice.Decimal)
			}
			out.Lines[i].EditedUnitPrice = edit.UnitPrice.Decimal
			out.Lines[i].Edited = true
		}
		if edit.Remarks != "" {
			out.Lines[i].Remarks = edit.Remarks
		}
	}
	return out, nil
}

// Result summarizes a finalize.
type Result struct {
	Booking     models.Booking
	Adjustments []models.BillingAdjustment
	AgreedPrice decimal.Decimal
}

// Finalize prices the record with the given edits, replaces the booking's
// adjustment set and marks it finalized. A non-zero agreed price requires
// every gap line to carry a reviewer price.
func (e *Engine) Finalize(ctx context.Context, bookingID string, agreedPrice decimal.Decimal, edits map[string]Edit) (Result, error) {
	if agreedPrice.IsNegative() {
		return Result{}, apperrors.Invalid("price", "agreed price cannot be negative")
	}
	if !models.IsCents(agreedPrice) {
		return Result{}, apperrors.Invalid("price", "agreed price %s has more than 2 decimal places", agreedPrice)
	}
	draft, err := e.Prepare(ctx, bookingID)
	if err != nil {
		return Result{}, err
	}
	draft, err = draft.Apply(edits)
	if err != nil {
		return Result{}, err
	}

	if unpriced := draft.Unpriced(); len(unpriced) > 0 && agreedPrice.IsPositive() {
		names := make([]string, len(unpriced))
		for i, l := range unpriced {
			names[i] = l.Item.Name
		}
		return Result{}, &apperrors.PricingGapError{BookingID: bookingID, Items: names}
	}

	now := e.now()
	set := make([]models.BillingAdjustment, 0, len(draft.Lines))
	for _, l := range draft.Lines {
		set = append(set, models.BillingAdjustment{
			ID:                e.newID(),
			BookingID:         bookingID,
			EntryID:           l.EntryID,
			ItemName:          l.Item.Name,
			Quantity:          l.Quantity,
			ResolvedUnitPrice: l.ResolvedUnitPrice,
			EditedUnitPrice:   l.EditedUnitPrice,
			TotalPrice:        l.Total(),
			Remarks:           l.Remarks,
			Manual:            l.Edited,
			CreatedAt:         now,
		})
	}

	if err := e.provider.FinalizeBooking(ctx, bookingID, agreedPrice, set); err != nil {
		return Result{}, fmt.Errorf("failed to finalize booking %s: %w", bookingID, err)
	}
	booking, err := e.provider.GetBooking(ctx, bookingID)
	if err != nil {
		return Result{}, err
	}
	logger.Info("Booking finalized", "booking", bookingID, "price", agreedPrice.StringFixed(2),
		"lines", len(set), "re_audit", draft.ReAudit)
	return Result{Booking: booking, Adjustments: set, AgreedPrice: agreedPrice}, nil
}
