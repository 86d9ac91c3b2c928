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

// Work sessions are stored whole as a JSON payload, one row per booking.

func (s *Store) LoadSession(bookingID string) (models.WorkSession, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM work_sessions WHERE booking_id = ?`, bookingID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WorkSession{}, fmt.Errorf("booking %s: %w", bookingID, storage.ErrSessionNotFound)
	}
	if err != nil {
		return models.WorkSession{}, fmt.Errorf("failed to read session: %w", err)
	}
	return decodeSession(payload)
}

func (s *Store) SaveSession(ws models.WorkSession) error {
	payload, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.withTx(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO work_sessions (booking_id, status, payload, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(booking_id) DO UPDATE SET
				status = excluded.status,
				payload = excluded.payload,
				updated_at = excluded.updated_at`,
			ws.BookingID, string(ws.Status), string(payload), formatTime(time.Now()))
		if err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
}

func (s *Store) ClearSession(bookingID string) error {
	if _, err := s.db.Exec(`DELETE FROM work_sessions WHERE booking_id = ?`, bookingID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Store) ListSessions() ([]models.WorkSession, error) {
	rows, err := s.db.Query(`SELECT payload FROM work_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []models.WorkSession
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		ws, err := decodeSession(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

func decodeSession(payload string) (models.WorkSession, error) {
	var ws models.WorkSession
	if err := json.Unmarshal([]byte(payload), &ws); err != nil {
		return models.WorkSession{}, fmt.Errorf("failed to decode session: %w", err)
	}
	if ws.Checklist == nil {
		ws.Checklist = models.ChecklistState{}
	}
	if ws.Ledger == nil {
		ws.Ledger = models.Ledger{}
	}
	if ws.Photos == nil {
		ws.Photos = []models.Photo{}
	}
	return ws, nil
}
