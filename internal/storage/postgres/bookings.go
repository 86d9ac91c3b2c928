package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/storage"
)

const bookingColumns = `id, status, price, unit_id, assigned_crew_id, checklist_template_id, scheduled_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var b models.Booking
	var status string
	err := row.Scan(&b.ID, &status, &b.Price, &b.UnitID, &b.AssignedCrewID,
		&b.ChecklistTemplateID, &b.ScheduledAt, &b.UpdatedAt)
	b.Status = models.BookingStatus(status)
	return b, err
}

func (s *Store) SaveBooking(ctx context.Context, b models.Booking) error {
	if err := b.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (id, status, price, unit_id, assigned_crew_id, checklist_template_id, scheduled_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			price = EXCLUDED.price,
			unit_id = EXCLUDED.unit_id,
			assigned_crew_id = EXCLUDED.assigned_crew_id,
			checklist_template_id = EXCLUDED.checklist_template_id,
			scheduled_at = EXCLUDED.scheduled_at,
			updated_at = now()`,
		b.ID, string(b.Status), b.Price, b.UnitID, b.AssignedCrewID, b.ChecklistTemplateID, b.ScheduledAt)
	if err != nil {
		return fmt.Errorf("failed to save booking %s: %w", b.ID, err)
	}
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, fmt.Errorf("booking %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Booking{}, err
	}
	return b, nil
}

func (s *Store) ListBookings(ctx context.Context, statuses ...models.BookingStatus) ([]models.Booking, error) {
	var rows *sql.Rows
	var err error
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY scheduled_at, id`)
	} else {
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = string(st)
		}
		rows, err = s.db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings
			WHERE status = ANY($1) ORDER BY scheduled_at, id`, pq.Array(names))
	}
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

// transitionTx locks the booking row, checks the move and applies it.
func transitionTx(ctx context.Context, tx *sql.Tx, id string, to models.BookingStatus) error {
	var current string
	err := tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("booking %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read booking status: %w", err)
	}
	if err := storage.CheckTransition(id, models.BookingStatus(current), to); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`,
		string(to), id); err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return nil
}
