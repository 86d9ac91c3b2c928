package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/storage"
)

const bookingColumns = `id, status, price, unit_id, assigned_crew_id, checklist_template_id, scheduled_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var b models.Booking
	var status, updatedAt string
	if err := row.Scan(&b.ID, &status, &b.Price, &b.UnitID, &b.AssignedCrewID,
		&b.ChecklistTemplateID, &b.ScheduledAt, &updatedAt); err != nil {
		return models.Booking{}, err
	}
	b.Status = models.BookingStatus(status)
	t, err := parseTime(updatedAt)
	if err != nil {
		return models.Booking{}, fmt.Errorf("booking %s: bad updated_at: %w", b.ID, err)
	}
	b.UpdatedAt = t
	return b, nil
}

func (s *Store) SaveBooking(ctx context.Context, b models.Booking) error {
	if err := b.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			price = excluded.price,
			unit_id = excluded.unit_id,
			assigned_crew_id = excluded.assigned_crew_id,
			checklist_template_id = excluded.checklist_template_id,
			scheduled_at = excluded.scheduled_at,
			updated_at = excluded.updated_at`,
		b.ID, string(b.Status), b.Price, b.UnitID, b.AssignedCrewID,
		b.ChecklistTemplateID, b.ScheduledAt, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save booking %s: %w", b.ID, err)
	}
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, fmt.Errorf("booking %s: %w", id, storage.ErrNotFound)
	}
	return b, err
}

func (s *Store) ListBookings(ctx context.Context, statuses ...models.BookingStatus) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		marks := make([]string, len(statuses))
		for i, st := range statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		query += ` WHERE status IN (` + strings.Join(marks, ", ") + `)`
	}
	query += ` ORDER BY scheduled_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) TransitionBooking(ctx context.Context, id string, to models.BookingStatus) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return transitionTx(ctx, tx, id, to)
	})
}

// transitionTx checks the current status and moves the booking inside tx.
func transitionTx(ctx context.Context, tx *sql.Tx, id string, to models.BookingStatus) error {
	var current string
	err := tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("booking %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read booking status: %w", err)
	}
	if err := storage.CheckTransition(id, models.BookingStatus(current), to); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
		string(to), formatTime(time.Now()), id); err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return nil
}
