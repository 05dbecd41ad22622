package models

import "time"

// BookingNote заметка к заявке. Неизменяема после создания и не
// переживает удаление своей заявки.
type BookingNote struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"booking_id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}
