package models

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/julianstephens/crewlog/internal/errors"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingFinalized BookingStatus = "finalized"
)

// bookingTransitions lists every status change the core may produce.
// Finalized -> Finalized is a re-audit; nothing ever leads back to Completed.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingActive, BookingCompleted},
	BookingActive:    {BookingPending, BookingCompleted},
	BookingCompleted: {BookingFinalized},
	BookingFinalized: {BookingFinalized},
}

func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcceptsWork reports whether a work session may be started or submitted.
func (s BookingStatus) AcceptsWork() bool {
	return s == BookingPending || s == BookingActive
}

// Reconcilable reports whether the booking can go through the audit step.
func (s BookingStatus) Reconcilable() bool {
	return s == BookingCompleted || s == BookingFinalized
}

// SourcesFor returns every status that may transition into next.
func SourcesFor(next BookingStatus) []BookingStatus {
	var out []BookingStatus
	for _, from := range []BookingStatus{BookingPending, BookingActive, BookingCompleted, BookingFinalized} {
		if from.CanTransitionTo(next) {
			out = append(out, from)
		}
	}
	return out
}

type Booking struct {
	ID                  string              `json:"id"`
	Status              BookingStatus       `json:"status"`
	Price               decimal.NullDecimal `json:"price"` // null until finalized
	UnitID              string              `json:"unit_id"`
	AssignedCrewID      string              `json:"assigned_crew_id,omitempty"`
	ChecklistTemplateID string              `json:"checklist_template_id,omitempty"`
	ScheduledAt         string              `json:"scheduled_at,omitempty"` // YYYY-MM-DD HH:MM
	UpdatedAt           time.Time           `json:"updated_at"`
}

func (b *Booking) Validate() error {
	if b.ID == "" {
		return apperrors.Invalid("booking.id", "cannot be empty")
	}
	if b.UnitID == "" {
		return apperrors.Invalid("booking.unit_id", "cannot be empty")
	}
	if !b.Status.Valid() {
		return apperrors.Invalid("booking.status", "unknown status %q", b.Status)
	}
	if b.Price.Valid && b.Price.Decimal.IsNegative() {
		return apperrors.Invalid("booking.price", "cannot be negative")
	}
	if b.Price.Valid && !IsCents(b.Price.Decimal) {
		return apperrors.Invalid("booking.price", "more than 2 decimal places")
	}
	return nil
}
