package models

import "time"

type Booking struct {
	ID          int64     `json:"id"`
	ClientName  string    `json:"client_name"`
	ClientPhone string    `json:"client_phone"`
	TourType    string    `json:"tour_type"`
	Status      string    `json:"status"` // new, confirmed, in_progress, paid, completed
	Priority    string    `json:"priority"` // low, medium, high
	Price       float64   `json:"price"`
	Cost        float64   `json:"cost"`
	TourDate    time.Time `json:"tour_date"`
	ManagerID   *int64    `json:"manager_id"` // nil — заявка не назначена
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BookingPatch частичное обновление заявки. nil-поля не трогают
// текущее значение; ManagerID — исключение, см. UpdateBooking.
type BookingPatch struct {
	ClientName *string
	TourType   *string
	Priority   *string
	Price      *string // числовое значение или строка; мусор молча игнорируется
	ManagerID  string  // пустая строка снимает назначение
	TourDate   string  // YYYY-MM-DD; мусор молча игнорируется
}

// BookingDetail денормализованное представление для окна редактирования.
type BookingDetail struct {
	ID        int64        `json:"id"`
	Client    string       `json:"client"`
	Phone     string       `json:"phone"`
	Tour      string       `json:"tour"`
	Price     float64      `json:"price"`
	Priority  string       `json:"priority"`
	ManagerID *int64       `json:"manager_id"`
	Date      string       `json:"date"` // YYYY-MM-DD
	Notes     []NoteDetail `json:"notes"`
}

type NoteDetail struct {
	Author string `json:"author"`
	Text   string `json:"text"`
	Date   string `json:"date"` // DD.MM HH:MM
}
