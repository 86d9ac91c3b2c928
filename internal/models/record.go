package models

import (
	"time"

	apperrors "github.com/julianstephens/crewlog/internal/errors"
)

// WorkRecord is the immutable result of a submitted session. There is at most
// one per booking.
type WorkRecord struct {
	ID                string         `json:"id"`
	BookingID         string         `json:"booking_id"`
	SubmittedBy       string         `json:"submitted_by"`
	StartedAt         time.Time      `json:"started_at"`
	EndedAt           time.Time      `json:"ended_at"`
	ChecklistSnapshot ChecklistState `json:"checklist_snapshot"`
	PhotoReferences   []string       `json:"photo_references"`
	LedgerSnapshot    Ledger         `json:"ledger_snapshot"`
	CreatedAt         time.Time      `json:"created_at"`
}

func (r WorkRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

func (r *WorkRecord) Validate() error {
	if r.ID == "" || r.BookingID == "" {
		return apperrors.Invalid("record", "id and booking id are required")
	}
	if r.SubmittedBy == "" {
		return apperrors.Invalid("record.submitted_by", "cannot be empty")
	}
	if r.EndedAt.Before(r.StartedAt) {
		return apperrors.Invalid("record.ended_at", "ends before it starts")
	}
	return r.LedgerSnapshot.Validate()
}
