package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/storage"
)

func (s *Store) SubmitWorkRecord(ctx context.Context, rec models.WorkRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	checklist, err := json.Marshal(rec.ChecklistSnapshot)
	if err != nil {
		return fmt.Errorf("failed to encode checklist: %w", err)
	}
	refs := rec.PhotoReferences
	if refs == nil {
		refs = []string{}
	}
	photoRefs, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("failed to encode photo references: %w", err)
	}
	ledger, err := json.Marshal(rec.LedgerSnapshot)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := transitionTx(ctx, tx, rec.BookingID, models.BookingCompleted); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO work_records (id, booking_id, submitted_by, started_at, ended_at, checklist, photo_refs, ledger, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(booking_id) DO UPDATE SET
				id = excluded.id,
				submitted_by = excluded.submitted_by,
				started_at = excluded.started_at,
				ended_at = excluded.ended_at,
				checklist = excluded.checklist,
				photo_refs = excluded.photo_refs,
				ledger = excluded.ledger,
				created_at = excluded.created_at`,
			rec.ID, rec.BookingID, rec.SubmittedBy, formatTime(rec.StartedAt), formatTime(rec.EndedAt),
			string(checklist), string(photoRefs), string(ledger), formatTime(rec.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to write work record: %w", err)
		}
		return nil
	})
}

func (s *Store) GetWorkRecord(ctx context.Context, bookingID string) (models.WorkRecord, error) {
	var rec models.WorkRecord
	var startedAt, endedAt, createdAt, checklist, photoRefs, ledger string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, booking_id, submitted_by, started_at, ended_at, checklist, photo_refs, ledger, created_at
		FROM work_records WHERE booking_id = ?`, bookingID).
		Scan(&rec.ID, &rec.BookingID, &rec.SubmittedBy, &startedAt, &endedAt,
			&checklist, &photoRefs, &ledger, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WorkRecord{}, fmt.Errorf("work record for booking %s: %w", bookingID, storage.ErrNotFound)
	}
	if err != nil {
		return models.WorkRecord{}, err
	}

	if rec.StartedAt, err = parseTime(startedAt); err != nil {
		return models.WorkRecord{}, fmt.Errorf("work record %s: bad started_at: %w", rec.ID, err)
	}
	if rec.EndedAt, err = parseTime(endedAt); err != nil {
		return models.WorkRecord{}, fmt.Errorf("work record %s: bad ended_at: %w", rec.ID, err)
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.WorkRecord{}, fmt.Errorf("work record %s: bad created_at: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(checklist), &rec.ChecklistSnapshot); err != nil {
		return models.WorkRecord{}, fmt.Errorf("work record %s: bad checklist: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(photoRefs), &rec.PhotoReferences); err != nil {
		return models.WorkRecord{}, fmt.Errorf("work record %s: bad photo references: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(ledger), &rec.LedgerSnapshot); err != nil {
		return models.WorkRecord{}, fmt.Errorf("work record %s: bad ledger: %w", rec.ID, err)
	}
	return rec, nil
}
