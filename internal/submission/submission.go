// Package submission turns an active work session into an immutable work
// record and completes the booking.
package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/crewlog/internal/errors"
	"github.com/julianstephens/crewlog/internal/evidence"
	"github.com/julianstephens/crewlog/internal/logger"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/storage"
)

type AdvisoryKind string

const (
	AdvisoryIncompleteChecklist AdvisoryKind = "incomplete_checklist"
	AdvisoryEmptyLedger         AdvisoryKind = "empty_ledger"
	AdvisoryNoPhotos            AdvisoryKind = "no_photos"
)

// Advisory is a soft gate: the operative is asked to confirm, never blocked.
type Advisory struct {
	Kind    AdvisoryKind
	Message string
}

// Review lists the advisories for a session about to be submitted.
func Review(ws models.WorkSession) []Advisory {
	var out []Advisory
	if pending := ws.Checklist.Pending(ws.Template); len(pending) > 0 {
		out = append(out, Advisory{
			Kind:    AdvisoryIncompleteChecklist,
			Message: fmt.Sprintf("%d of %d checklist tasks are not done", len(pending), ws.Template.TaskCount()),
		})
	}
	if !ws.Ledger.HasActivity() {
		out = append(out, Advisory{
			Kind:    AdvisoryEmptyLedger,
			Message: "no equipment was exchanged or provided",
		})
	}
	if len(ws.Photos) == 0 {
		out = append(out, Advisory{
			Kind:    AdvisoryNoPhotos,
			Message: "no photo evidence is attached",
		})
	}
	return out
}

// Submitter runs the submission pipeline: upload evidence, write the record
// and complete the booking, then drop the local session.
type Submitter struct {
	provider  storage.Provider
	sessions  storage.SessionStore
	pipeline  *evidence.Pipeline
	operative string
	now       func() time.Time
	newID     func() string
}

type Option func(*Submitter)

func WithClock(now func() time.Time) Option {
	return func(s *Submitter) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Submitter) { s.newID = newID }
}

func NewSubmitter(provider storage.Provider, sessions storage.SessionStore, pipeline *evidence.Pipeline, operative string, opts ...Option) *Submitter {
	s := &Submitter{
		provider:  provider,
		sessions:  sessions,
		pipeline:  pipeline,
		operative: operative,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit finishes the session. Upload failures return *errors.UploadFailure
// and record or status failures return *errors.WriteFailure; in both cases
// the local session is kept so the operative can retry.
func (s *Submitter) Submit(ctx context.Context, ws models.WorkSession) (models.WorkRecord, error) {
	if !ws.IsActive() {
		return models.WorkRecord{}, apperrors.Invalid("session.status", "session for booking %s was never started", ws.BookingID)
	}
	if s.operative == "" {
		return models.WorkRecord{}, apperrors.Invalid("operative", "no operative identity configured")
	}

	booking, err := s.provider.GetBooking(ctx, ws.BookingID)
	if err != nil {
		return models.WorkRecord{}, err
	}
	if !booking.Status.AcceptsWork() {
		return models.WorkRecord{}, apperrors.Invalid("booking.status", "booking %s is already %s", booking.ID, booking.Status)
	}

	refs, err := s.pipeline.UploadAll(ctx, ws.BookingID, ws.Photos)
	if err != nil {
		return models.WorkRecord{}, err
	}

	now := s.now()
	record := models.WorkRecord{
		ID:                s.newID(),
		BookingID:         ws.BookingID,
		SubmittedBy:       s.operative,
		StartedAt:         ws.StartedAt,
		EndedAt:           now,
		ChecklistSnapshot: ws.ChecklistSnapshot(),
		PhotoReferences:   refs,
		LedgerSnapshot:    ws.Ledger.Clone(),
		CreatedAt:         now,
	}
	if err := s.provider.SubmitWorkRecord(ctx, record); err != nil {
		logger.Error("Work record write failed", "booking", ws.BookingID, "orphaned_photos", len(refs), "error", err)
		return models.WorkRecord{}, &apperrors.WriteFailure{Step: "work record write", Err: err}
	}

	if err := s.sessions.ClearSession(ws.BookingID); err != nil {
		logger.Warn("Submitted session could not be cleared", "booking", ws.BookingID, "error", err)
	}
	logger.Info("Work record submitted", "booking", ws.BookingID, "record", record.ID,
		"duration", record.Duration().String(), "photos", len(refs))
	return record, nil
}
