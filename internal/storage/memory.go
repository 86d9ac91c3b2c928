package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/crewlog/internal/models"
)

// MemoryStore is an in-process Provider and SessionStore. Sessions are kept
// in their serialized form so restores go through the same encoding as the
// durable stores. The Fail* hooks let tests inject I/O failures.
type MemoryStore struct {
	mu          sync.Mutex
	bookings    map[string]models.Booking
	templates   map[string]models.ChecklistTemplate
	items       map[string]models.EquipmentMasterItem
	unitConfigs map[string][]models.UnitEquipmentConfig
	records     map[string]models.WorkRecord
	adjustments map[string][]models.BillingAdjustment
	sessions    map[string][]byte

	FailSubmit      error
	FailFinalize    error
	FailSaveSession error
	FailClear       error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings:    make(map[string]models.Booking),
		templates:   make(map[string]models.ChecklistTemplate),
		items:       make(map[string]models.EquipmentMasterItem),
		unitConfigs: make(map[string][]models.UnitEquipmentConfig),
		records:     make(map[string]models.WorkRecord),
		adjustments: make(map[string][]models.BillingAdjustment),
		sessions:    make(map[string][]byte),
	}
}

func (m *MemoryStore) Init() error           { return nil }
func (m *MemoryStore) Load() error           { return nil }
func (m *MemoryStore) Close() error          { return nil }
func (m *MemoryStore) GetConfigPath() string { return "memory" }

func (m *MemoryStore) SaveBooking(_ context.Context, b models.Booking) error {
	if err := b.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b.UpdatedAt = time.Now().UTC()
	m.bookings[b.ID] = b
	return nil
}

func (m *MemoryStore) GetBooking(_ context.Context, id string) (models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return models.Booking{}, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return b, nil
}

func (m *MemoryStore) ListBookings(_ context.Context, statuses ...models.BookingStatus) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[models.BookingStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []models.Booking
	for _, b := range m.bookings {
		if len(want) == 0 || want[b.Status] {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) TransitionBooking(_ context.Context, id string, to models.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	if err := CheckTransition(id, b.Status, to); err != nil {
		return err
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	m.bookings[id] = b
	return nil
}

func (m *MemoryStore) SaveChecklistTemplate(_ context.Context, t models.ChecklistTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.ID] = t.Clone()
	return nil
}

func (m *MemoryStore) GetChecklistTemplate(_ context.Context, id string) (models.ChecklistTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return models.ChecklistTemplate{}, fmt.Errorf("checklist template %s: %w", id, ErrNotFound)
	}
	return t.Clone(), nil
}

func (m *MemoryStore) SaveEquipmentItem(_ context.Context, item models.EquipmentMasterItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

func (m *MemoryStore) ListEquipmentItems(_ context.Context) ([]models.EquipmentMasterItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.EquipmentMasterItem, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) SaveUnitEquipmentConfig(_ context.Context, cfg models.UnitEquipmentConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.unitConfigs[cfg.UnitID]
	for i, row := range rows {
		if row.EquipmentID == cfg.EquipmentID {
			rows[i] = cfg
			return nil
		}
	}
	m.unitConfigs[cfg.UnitID] = append(rows, cfg)
	return nil
}

func (m *MemoryStore) ListUnitEquipmentConfig(_ context.Context, unitID string) ([]models.UnitEquipmentConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := append([]models.UnitEquipmentConfig(nil), m.unitConfigs[unitID]...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].EquipmentID < rows[j].EquipmentID })
	return rows, nil
}

func (m *MemoryStore) SubmitWorkRecord(_ context.Context, rec models.WorkRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSubmit != nil {
		return m.FailSubmit
	}
	b, ok := m.bookings[rec.BookingID]
	if !ok {
		return fmt.Errorf("booking %s: %w", rec.BookingID, ErrNotFound)
	}
	if err := CheckTransition(b.ID, b.Status, models.BookingCompleted); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	m.records[rec.BookingID] = rec
	b.Status = models.BookingCompleted
	b.UpdatedAt = time.Now().UTC()
	m.bookings[b.ID] = b
	return nil
}

func (m *MemoryStore) GetWorkRecord(_ context.Context, bookingID string) (models.WorkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[bookingID]
	if !ok {
		return models.WorkRecord{}, fmt.Errorf("work record for booking %s: %w", bookingID, ErrNotFound)
	}
	return rec, nil
}

// RecordCount returns how many work records are stored.
func (m *MemoryStore) RecordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// DeleteWorkRecord drops a record without touching the booking. Tests use it
// to reproduce a completed booking that lost its record.
func (m *MemoryStore) DeleteWorkRecord(bookingID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, bookingID)
}

func (m *MemoryStore) ReplaceBillingAdjustments(_ context.Context, bookingID string, set []models.BillingAdjustment) error {
	for i := range set {
		if err := set[i].Validate(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjustments[bookingID] = append([]models.BillingAdjustment(nil), set...)
	return nil
}

func (m *MemoryStore) GetBillingAdjustments(_ context.Context, bookingID string) ([]models.BillingAdjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.BillingAdjustment(nil), m.adjustments[bookingID]...), nil
}

func (m *MemoryStore) FinalizeBooking(_ context.Context, bookingID string, price decimal.Decimal, set []models.BillingAdjustment) error {
	for i := range set {
		if err := set[i].Validate(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFinalize != nil {
		return m.FailFinalize
	}
	b, ok := m.bookings[bookingID]
	if !ok {
		return fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if err := CheckTransition(bookingID, b.Status, models.BookingFinalized); err != nil {
		return err
	}
	m.adjustments[bookingID] = append([]models.BillingAdjustment(nil), set...)
	b.Price = decimal.NewNullDecimal(price)
	b.Status = models.BookingFinalized
	b.UpdatedAt = time.Now().UTC()
	m.bookings[bookingID] = b
	return nil
}

func (m *MemoryStore) LoadSession(bookingID string) (models.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.sessions[bookingID]
	if !ok {
		return models.WorkSession{}, fmt.Errorf("booking %s: %w", bookingID, ErrSessionNotFound)
	}
	var s models.WorkSession
	if err := json.Unmarshal(data, &s); err != nil {
		return models.WorkSession{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return s, nil
}

func (m *MemoryStore) SaveSession(s models.WorkSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaveSession != nil {
		return m.FailSaveSession
	}
	m.sessions[s.BookingID] = data
	return nil
}

func (m *MemoryStore) ClearSession(bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailClear != nil {
		return m.FailClear
	}
	delete(m.sessions, bookingID)
	return nil
}

func (m *MemoryStore) ListSessions() ([]models.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.WorkSession, 0, len(m.sessions))
	for _, data := range m.sessions {
		var s models.WorkSession
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to decode session: %w", err)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingID < out[j].BookingID })
	return out, nil
}
