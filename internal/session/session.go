// Package session drives one operative's work session for one booking:
// start, checklist, equipment ledger and photo queue. Every mutation on an
// active session is persisted to the device-local SessionStore before it
// becomes visible, so a crash or reload resumes exactly where work stopped.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/crewlog/internal/constants"
	apperrors "github.com/julianstephens/crewlog/internal/errors"
	"github.com/julianstephens/crewlog/internal/logger"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/storage"
)

// Machine opens work sessions against a shared Provider and a local SessionStore.
type Machine struct {
	provider storage.Provider
	store    storage.SessionStore
	now      func() time.Time
	newID    func() string
}

type Option func(*Machine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithIDs replaces the uuid generator used for entries and photos.
func WithIDs(newID func() string) Option {
	return func(m *Machine) { m.newID = newID }
}

func NewMachine(provider storage.Provider, store storage.SessionStore, opts ...Option) *Machine {
	m := &Machine{
		provider: provider,
		store:    store,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session is a handle on one booking's work session.
type Session struct {
	m        *Machine
	state    models.WorkSession
	restored bool
}

// Open returns the stored session for the booking if there is one, restored
// verbatim; otherwise a fresh NotStarted session bound to the booking.
func (m *Machine) Open(ctx context.Context, bookingID string) (*Session, error) {
	booking, err := m.provider.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	stored, err := m.store.LoadSession(bookingID)
	switch {
	case err == nil:
		logger.Debug("Restored work session", "booking", bookingID, "status", stored.Status)
		return &Session{m: m, state: stored, restored: true}, nil
	case errors.Is(err, storage.ErrSessionNotFound):
		return &Session{m: m, state: models.NewWorkSession(booking)}, nil
	default:
		return nil, fmt.Errorf("failed to load work session: %w", err)
	}
}

// State returns a copy of the current session.
func (s *Session) State() models.WorkSession { return s.state.Clone() }

// Restored reports whether Open found a persisted session.
func (s *Session) Restored() bool { return s.restored }

func (s *Session) BookingID() string { return s.state.BookingID }

// HasUnsavedWork is true while the session is active. Callers must confirm
// before navigating away from it.
func (s *Session) HasUnsavedWork() bool { return s.state.IsActive() }

// commit persists next and only then makes it the current state.
func (s *Session) commit(next models.WorkSession) error {
	next.UpdatedAt = s.m.now()
	if err := s.m.store.SaveSession(next); err != nil {
		return fmt.Errorf("failed to persist work session: %w", err)
	}
	s.state = next
	return nil
}

// StartOptions controls Start.
type StartOptions struct {
	// Restart discards an active session and seeds a new one.
	Restart bool
}

// Start begins work on the booking: the checklist template is snapshotted
// with every task pending and the ledger is seeded with one standard
// exchange per unit equipment row.
func (s *Session) Start(ctx context.Context, opts StartOptions) error {
	booking, err := s.m.provider.GetBooking(ctx, s.state.BookingID)
	if err != nil {
		return err
	}
	if !booking.Status.AcceptsWork() {
		return apperrors.Invalid("booking.status", "booking %s is %s; work can only start on pending or active bookings",
			booking.ID, booking.Status)
	}
	if s.state.IsActive() && !opts.Restart {
		return apperrors.Invalid("session.status", "session for booking %s is already active since %s",
			booking.ID, s.state.StartedAt.Format(constants.DateTimeFormat))
	}

	template, err := s.loadTemplate(ctx, booking)
	if err != nil {
		return err
	}
	ledger, err := s.seedLedger(ctx, booking.UnitID)
	if err != nil {
		return err
	}

	next := models.NewWorkSession(booking)
	next.Status = models.SessionActive
	next.StartedAt = s.m.now()
	next.Template = template
	next.Checklist = models.NewChecklistState(template)
	next.Ledger = ledger

	if err := s.commit(next); err != nil {
		return err
	}
	logger.Info("Work session started", "booking", booking.ID, "tasks", template.TaskCount(),
		"standard_items", len(ledger), "restart", opts.Restart)
	return nil
}

func (s *Session) loadTemplate(ctx context.Context, booking models.Booking) (models.ChecklistTemplate, error) {
	if booking.ChecklistTemplateID == "" {
		return models.ChecklistTemplate{}, nil
	}
	t, err := s.m.provider.GetChecklistTemplate(ctx, booking.ChecklistTemplateID)
	if err != nil {
		return models.ChecklistTemplate{}, fmt.Errorf("failed to load checklist template: %w", err)
	}
	return t.Clone(), nil
}

func (s *Session) seedLedger(ctx context.Context, unitID string) (models.Ledger, error) {
	rows, err := s.m.provider.ListUnitEquipmentConfig(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unit equipment: %w", err)
	}
	items, err := s.m.provider.ListEquipmentItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load equipment catalog: %w", err)
	}
	catalog := models.NewCatalog(items)

	ledger := make(models.Ledger, 0, len(rows))
	for _, row := range rows {
		name := row.EquipmentID
		if item, ok := catalog.Get(row.EquipmentID); ok {
			name = item.Name
		}
		ledger = append(ledger, models.StandardExchange{
			ID:               s.m.newID(),
			Item:             models.ItemRef{EquipmentID: row.EquipmentID, Name: name},
			ExpectedQuantity: row.StandardQty,
		})
	}
	return ledger, nil
}

// ToggleChecklistItem flips one task. It does nothing unless the session is
// active. An unknown key leaves the session untouched and returns a
// ValidationError the caller may ignore.
func (s *Session) ToggleChecklistItem(key string) error {
	if !s.state.IsActive() {
		return nil
	}
	current, ok := s.state.Checklist[key]
	if !ok {
		return apperrors.Invalid("checklist", "unknown task %q", key)
	}
	next := s.state.Clone()
	next.Checklist[key] = !current
	if err := s.commit(next); err != nil {
		return err
	}
	logger.Debug("Checklist item toggled", "booking", next.BookingID, "key", key, "done", !current)
	return nil
}

// RecordLedgerQuantity sets an entry's quantity, clamped to the allowed range.
func (s *Session) RecordLedgerQuantity(entryID string, qty int) error {
	if !s.state.IsActive() {
		return nil
	}
	next := s.state.Clone()
	if err := next.Ledger.SetQuantity(entryID, qty); err != nil {
		return err
	}
	return s.commit(next)
}

// AddLedgerEntry appends an operative-added entry. Catalog kinds must name
// an item that exists in the equipment catalog.
func (s *Session) AddLedgerEntry(ctx context.Context, kind models.LedgerKind, item models.ItemRef) (models.LedgerEntry, error) {
	if !s.state.IsActive() {
		return nil, apperrors.Invalid("session.status", "session is not active; start it first")
	}
	if kind.FromCatalog() {
		items, err := s.m.provider.ListEquipmentItems(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load equipment catalog: %w", err)
		}
		found, ok := models.NewCatalog(items).Lookup(item)
		if !ok {
			label := item.Name
			if item.EquipmentID != "" {
				label = item.EquipmentID
			}
			return nil, apperrors.Invalid("item", "%q is not in the equipment catalog", label)
		}
		item = models.ItemRef{EquipmentID: found.ID, Name: found.Name}
	}

	entry, err := models.NewLedgerEntry(s.m.newID(), kind, item)
	if err != nil {
		return nil, err
	}
	next := s.state.Clone()
	next.Ledger = append(next.Ledger, entry)
	if err := s.commit(next); err != nil {
		return nil, err
	}
	logger.Info("Ledger entry added", "booking", next.BookingID, "kind", kind, "item", item.Name)
	return entry, nil
}

// RemoveLedgerEntry drops an operative-added entry.
func (s *Session) RemoveLedgerEntry(entryID string) error {
	if !s.state.IsActive() {
		return nil
	}
	next := s.state.Clone()
	ledger, err := next.Ledger.Remove(entryID)
	if err != nil {
		return err
	}
	next.Ledger = ledger
	return s.commit(next)
}

// QueuePhoto adds evidence to the upload queue. Nothing is uploaded until submission.
func (s *Session) QueuePhoto(name, contentType string, data []byte) (models.Photo, error) {
	if !s.state.IsActive() {
		return models.Photo{}, apperrors.Invalid("session.status", "session is not active; start it first")
	}
	if len(data) == 0 {
		return models.Photo{}, apperrors.Invalid("photo", "%s is empty", name)
	}
	photo := models.Photo{
		ID:          s.m.newID(),
		Name:        name,
		ContentType: contentType,
		Data:        append([]byte(nil), data...),
		QueuedAt:    s.m.now(),
	}
	next := s.state.Clone()
	next.Photos = append(next.Photos, photo)
	if err := s.commit(next); err != nil {
		return models.Photo{}, err
	}
	logger.Info("Photo queued", "booking", next.BookingID, "name", name, "bytes", len(data))
	return photo, nil
}

// DequeuePhoto removes the photo at index from the queue.
func (s *Session) DequeuePhoto(index int) error {
	if !s.state.IsActive() {
		return nil
	}
	if index < 0 || index >= len(s.state.Photos) {
		return apperrors.Invalid("photo", "no queued photo #%d", index+1)
	}
	next := s.state.Clone()
	next.Photos = append(next.Photos[:index], next.Photos[index+1:]...)
	return s.commit(next)
}
