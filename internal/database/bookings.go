package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tourcrm/internal/models"
)

const bookingColumns = `id, client_name, client_phone, tour_type, status, priority,
                 price, cost, tour_date, manager_id, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	var managerID sql.NullInt64
	err := row.Scan(
		&b.ID, &b.ClientName, &b.ClientPhone, &b.TourType, &b.Status, &b.Priority,
		&b.Price, &b.Cost, &b.TourDate, &managerID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if managerID.Valid {
		b.ManagerID = &managerID.Int64
	}
	return &b, nil
}

func nullManagerID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				client_name, client_phone, tour_type, status, priority,
				price, cost, tour_date, manager_id, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.ClientName,
		booking.ClientPhone,
		booking.TourType,
		booking.Status,
		booking.Priority,
		booking.Price,
		booking.Cost,
		booking.TourDate,
		nullManagerID(booking.ManagerID),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now

	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// ListBookings возвращает все заявки, новые первыми.
func (db *DB) ListBookings(ctx context.Context) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY id DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateBookingFields перезаписывает редактируемые поля заявки.
// Слияние патча со старыми значениями делает сервисный слой.
func (db *DB) UpdateBookingFields(ctx context.Context, booking *models.Booking) error {
	query := `UPDATE bookings
	          SET client_name = ?, tour_type = ?, priority = ?, price = ?,
	              tour_date = ?, manager_id = ?, updated_at = ?
	          WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		booking.ClientName,
		booking.TourType,
		booking.Priority,
		booking.Price,
		booking.TourDate,
		nullManagerID(booking.ManagerID),
		time.Now(),
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateBookingStatus безусловно перезаписывает статус. Значение не
// валидируется против канонического набора.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBooking удаляет заявку; её заметки уходят каскадом.
func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
