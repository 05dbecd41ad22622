package database

import (
	"context"
	"fmt"
	"time"

	"tourcrm/internal/models"
)

func (db *DB) CreateNote(ctx context.Context, note *models.BookingNote) error {
	query := `INSERT INTO booking_notes (booking_id, text, author, created_at)
	          VALUES (?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, note.BookingID, note.Text, note.Author, now)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	note.ID = id
	note.CreatedAt = now

	return nil
}

// GetBookingNotes возвращает заметки заявки в порядке создания.
func (db *DB) GetBookingNotes(ctx context.Context, bookingID int64) ([]models.BookingNote, error) {
	query := `SELECT id, booking_id, text, author, created_at
	          FROM booking_notes WHERE booking_id = ? ORDER BY created_at ASC, id ASC`
	rows, err := db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking notes: %w", err)
	}
	defer rows.Close()

	var notes []models.BookingNote
	for rows.Next() {
		var n models.BookingNote
		if err := rows.Scan(&n.ID, &n.BookingID, &n.Text, &n.Author, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}
