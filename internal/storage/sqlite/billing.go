package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/julianstephens/crewlog/internal/errors"
	"github.com/julianstephens/crewlog/internal/models"
)

func (s *Store) ReplaceBillingAdjustments(ctx context.Context, bookingID string, set []models.BillingAdjustment) error {
	if err := validateSet(set); err != nil {
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
		FROM billing_adjustments WHERE booking_id = ? ORDER BY created_at, id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list billing adjustments: %w", err)
	}
	defer rows.Close()

	var out []models.BillingAdjustment
	for rows.Next() {
		var a models.BillingAdjustment
		var createdAt string
		if err := rows.Scan(&a.ID, &a.BookingID, &a.EntryID, &a.ItemName, &a.Quantity,
			&a.ResolvedUnitPrice, &a.EditedUnitPrice, &a.TotalPrice, &a.Remarks, &a.Manual, &createdAt); err != nil {
			return nil, err
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("adjustment %s: bad created_at: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) FinalizeBooking(ctx context.Context, bookingID string, price decimal.Decimal, set []models.BillingAdjustment) error {
	if err := validateSet(set); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := transitionTx(ctx, tx, bookingID, models.BookingFinalized); err != nil {
			return err
		}
		if err := replaceAdjustmentsTx(ctx, tx, bookingID, set); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE bookings SET price = ?, updated_at = ? WHERE id = ?`,
			price, formatTime(time.Now()), bookingID); err != nil {
			return fmt.Errorf("failed to set agreed price: %w", err)
		}
		return nil
	})
}

func replaceAdjustmentsTx(ctx context.Context, tx *sql.Tx, bookingID string, set []models.BillingAdjustment) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM billing_adjustments WHERE booking_id = ?`, bookingID); err != nil {
		return fmt.Errorf("failed to clear billing adjustments: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO billing_adjustments (id, booking_id, entry_id, item_name, quantity, resolved_unit_price,
		                                 edited_unit_price, total_price, remarks, manual, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare adjustment insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range set {
		if a.BookingID != bookingID {
			return apperrors.Invalid("adjustment.booking_id", "adjustment %s belongs to booking %s, not %s", a.ID, a.BookingID, bookingID)
		}
		if _, err := stmt.ExecContext(ctx, a.ID, a.BookingID, a.EntryID, a.ItemName, a.Quantity,
			a.ResolvedUnitPrice, a.EditedUnitPrice, a.TotalPrice, a.Remarks, a.Manual, formatTime(a.CreatedAt)); err != nil {
			return fmt.Errorf("failed to insert adjustment for %s: %w", a.ItemName, err)
		}
	}
	return nil
}

func validateSet(set []models.BillingAdjustment) error {
	for i := range set {
		if err := set[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
