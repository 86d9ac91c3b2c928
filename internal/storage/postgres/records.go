package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/julianstephens/crewlog/internal/errors"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/storage"
)

func (s *Store) SubmitWorkRecord(ctx context.Context, rec models.WorkRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	refs := rec.PhotoReferences
	if refs == nil {
		refs = []string{}
	}
	checklist, err := json.Marshal(rec.ChecklistSnapshot)
	if err != nil {
		return fmt.Errorf("failed to encode checklist: %w", err)
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
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (booking_id) DO UPDATE SET
				id = EXCLUDED.id,
				submitted_by = EXCLUDED.submitted_by,
				started_at = EXCLUDED.started_at,
				ended_at = EXCLUDED.ended_at,
				checklist = EXCLUDED.checklist,
				photo_refs = EXCLUDED.photo_refs,
				ledger = EXCLUDED.ledger,
				created_at = EXCLUDED.created_at`,
			rec.ID, rec.BookingID, rec.SubmittedBy, rec.StartedAt, rec.EndedAt,
			string(checklist), string(photoRefs), string(ledger), rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to write work record: %w", err)
		}
		return nil
	})
}

func (s *Store) GetWorkRecord(ctx context.Context, bookingID string) (models.WorkRecord, error) {
	var rec models.WorkRecord
	var checklist, photoRefs, ledger []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, booking_id, submitted_by, started_at, ended_at, checklist, photo_refs, ledger, created_at
		FROM work_records WHERE booking_id = $1`, bookingID).
		Scan(&rec.ID, &rec.BookingID, &rec.SubmittedBy, &rec.StartedAt, &rec.EndedAt,
			&checklist, &photoRefs, &ledger, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WorkRecord{}, fmt.Errorf("work record for booking %s: %w", bookingID, storage.ErrNotFound)
	}
	if err != nil {
		return models.WorkRecord{}, err
	}
	if err := json.Unmarshal(checklist, &rec.ChecklistSnapshot); err != nil {
		return models.WorkRecord{}, fmt.Errorf("work record %s: bad checklist: %w", rec.ID, err)
	}
	if err := json.Unmarshal(photoRefs, &rec.PhotoReferences); err != nil {
		return models.WorkRecord{}, fmt.Errorf("work record %s: bad photo references: %w", rec.ID, err)
	}
	if err := json.Unmarshal(ledger, &rec.LedgerSnapshot); err != nil {
		return models.WorkRecord{}, fmt.Errorf("work record %s: bad ledger: %w", rec.ID, err)
	}
	return rec, nil
}

func (s *Store) ReplaceBillingAdjustments(ctx context.Context, bookingID string, set []models.BillingAdjustment) error {
	if err := validateSet(bookingID, set); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return replaceAdjustmentsTx(ctx, tx, bookingID, set)
	})
}

func (s *Store) GetBillingAdjustments(ctx context.Context, bookingID string) ([]models.BillingAdjustment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, booking_id, entry_id, item_name, quantity, resolved_unit_price,
		       edited_unit_price, total_price, remarks, manual, created_at
		FROM billing_adjustments WHERE booking_id = $1 ORDER BY created_at, id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list billing adjustments: %w", err)
	}
	defer rows.Close()

	var out []models.BillingAdjustment
	for rows.Next() {
		var a models.BillingAdjustment
		if err := rows.Scan(&a.ID, &a.BookingID, &a.EntryID, &a.ItemName, &a.Quantity,
			&a.ResolvedUnitPrice, &a.EditedUnitPrice, &a.TotalPrice, &a.Remarks, &a.Manual, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) FinalizeBooking(ctx context.Context, bookingID string, price decimal.Decimal, set []models.BillingAdjustment) error {
	if err := validateSet(bookingID, set); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := transitionTx(ctx, tx, bookingID, models.BookingFinalized); err != nil {
			return err
		}
		if err := replaceAdjustmentsTx(ctx, tx, bookingID, set); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE bookings SET price = $1, updated_at = now() WHERE id = $2`,
			price, bookingID); err != nil {
			return fmt.Errorf("failed to set agreed price: %w", err)
		}
		return nil
	})
}

func replaceAdjustmentsTx(ctx context.Context, tx *sql.Tx, bookingID string, set []models.BillingAdjustment) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM billing_adjustments WHERE booking_id = $1`, bookingID); err != nil {
		return fmt.Errorf("failed to clear billing adjustments: %w", err)
	}
	for _, a := range set {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO billing_adjustments (id, booking_id, entry_id, item_name, quantity, resolved_unit_price,
			                                 edited_unit_price, total_price, remarks, manual, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			a.ID, a.BookingID, a.EntryID, a.ItemName, a.Quantity,
			a.ResolvedUnitPrice, a.EditedUnitPrice, a.TotalPrice, a.Remarks, a.Manual, a.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert adjustment for %s: %w", a.ItemName, err)
		}
	}
	return nil
}

func validateSet(bookingID string, set []models.BillingAdjustment) error {
	for i := range set {
		if err := set[i].Validate(); err != nil {
			return err
		}
		if set[i].BookingID != bookingID {
			return apperrors.Invalid("adjustment.booking_id", "adjustment %s belongs to booking %s, not %s",
				set[i].ID, set[i].BookingID, bookingID)
		}
	}
	return nil
}
