package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/crewlog/internal/models"
)

var (
	// ErrNotFound is returned when a booking, template, record or item does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned when a booking status change is not allowed
	ErrInvalidTransition = errors.New("invalid booking status transition")
	// ErrSessionNotFound is returned when no work session is stored for a booking
	ErrSessionNotFound = errors.New("no stored work session")
)

// Provider is the shared data store: bookings, catalog and configuration,
// work records and billing adjustments.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Bookings
	SaveBooking(ctx context.Context, b models.Booking) error
	GetBooking(ctx context.Context, id string) (models.Booking, error)
	ListBookings(ctx context.Context, statuses ...models.BookingStatus) ([]models.Booking, error)
	// TransitionBooking moves a booking to the given status. It returns
	// ErrInvalidTransition if the current status cannot move there.
	TransitionBooking(ctx context.Context, id string, to models.BookingStatus) error

	// Checklist templates
	SaveChecklistTemplate(ctx context.Context, t models.ChecklistTemplate) error
	GetChecklistTemplate(ctx context.Context, id string) (models.ChecklistTemplate, error)

	// Catalog & unit configuration
	SaveEquipmentItem(ctx context.Context, item models.EquipmentMasterItem) error
	ListEquipmentItems(ctx context.Context) ([]models.EquipmentMasterItem, error)
	SaveUnitEquipmentConfig(ctx context.Context, cfg models.UnitEquipmentConfig) error
	ListUnitEquipmentConfig(ctx context.Context, unitID string) ([]models.UnitEquipmentConfig, error)

	// Work records
	// SubmitWorkRecord stores the record and moves the booking to completed in
	// one transaction. A second submission for the same booking replaces the
	// record instead of adding one.
	SubmitWorkRecord(ctx context.Context, rec models.WorkRecord) error
	GetWorkRecord(ctx context.Context, bookingID string) (models.WorkRecord, error)

	// Billing
	// ReplaceBillingAdjustments deletes every adjustment of the booking and
	// inserts the given set.
	ReplaceBillingAdjustments(ctx context.Context, bookingID string, set []models.BillingAdjustment) error
	GetBillingAdjustments(ctx context.Context, bookingID string) ([]models.BillingAdjustment, error)
	// FinalizeBooking replaces the adjustment set, sets the agreed price and
	// moves the booking to finalized, atomically.
	FinalizeBooking(ctx context.Context, bookingID string, price decimal.Decimal, set []models.BillingAdjustment) error

	// Utils
	GetConfigPath() string
}

// SessionStore persists in-progress work sessions on the device, keyed by booking.
type SessionStore interface {
	LoadSession(bookingID string) (models.WorkSession, error)
	SaveSession(s models.WorkSession) error
	ClearSession(bookingID string) error
	ListSessions() ([]models.WorkSession, error)
}

// CheckTransition validates a status change against the booking lifecycle.
func CheckTransition(id string, from, to models.BookingStatus) error {
	if !from.CanTransitionTo(to) {
		return &TransitionError{BookingID: id, From: from, To: to}
	}
	return nil
}

// TransitionError describes a rejected status change. It matches ErrInvalidTransition.
type TransitionError struct {
	BookingID string
	From      models.BookingStatus
	To        models.BookingStatus
}

func (e *TransitionError) Error() string {
	return "booking " + e.BookingID + ": cannot move from " + string(e.From) + " to " + string(e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }
