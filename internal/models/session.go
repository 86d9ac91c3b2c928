package models

import (
	"time"

	apperrors "github.com/julianstephens/crewlog/internal/errors"
)

type SessionStatus string

const (
	SessionNotStarted SessionStatus = "not_started"
	SessionActive     SessionStatus = "active"
)

// Photo is a queued evidence blob awaiting upload at submission time.
type Photo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"data"`
	QueuedAt    time.Time `json:"queued_at"`
}

// WorkSession is the device-resident, mutable state of one operative
// performing one booking.
type WorkSession struct {
	BookingID string            `json:"booking_id"`
	UnitID    string            `json:"unit_id"`
	Status    SessionStatus     `json:"status"`
	StartedAt time.Time         `json:"started_at"`
	Template  ChecklistTemplate `json:"template"`
	Checklist ChecklistState    `json:"checklist"`
	Ledger    Ledger            `json:"ledger"`
	Photos    []Photo           `json:"photos"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewWorkSession returns an unstarted session bound to the booking.
func NewWorkSession(b Booking) WorkSession {
	return WorkSession{
		BookingID: b.ID,
		UnitID:    b.UnitID,
		Status:    SessionNotStarted,
		Checklist: ChecklistState{},
		Ledger:    Ledger{},
		Photos:    []Photo{},
	}
}

func (s WorkSession) IsActive() bool { return s.Status == SessionActive }

// Clone deep-copies everything a mutation can touch.
func (s WorkSession) Clone() WorkSession {
	out := s
	out.Template = s.Template.Clone()
	out.Checklist = s.Checklist.Clone()
	out.Ledger = s.Ledger.Clone()
	if out.Ledger == nil {
		out.Ledger = Ledger{}
	}
	out.Photos = append([]Photo{}, s.Photos...)
	return out
}

// ChecklistSnapshot returns the final state of every template task, including
// tasks that were never toggled.
func (s WorkSession) ChecklistSnapshot() ChecklistState {
	snapshot := make(ChecklistState, s.Template.TaskCount())
	for _, key := range s.Template.Keys() {
		snapshot[key] = s.Checklist[key]
	}
	return snapshot
}

func (s WorkSession) Validate() error {
	if s.BookingID == "" {
		return apperrors.Invalid("session.booking_id", "cannot be empty")
	}
	switch s.Status {
	case SessionNotStarted, SessionActive:
	default:
		return apperrors.Invalid("session.status", "unknown status %q", s.Status)
	}
	if s.IsActive() && s.StartedAt.IsZero() {
		return apperrors.Invalid("session.started_at", "active session has no start time")
	}
	return s.Ledger.Validate()
}
