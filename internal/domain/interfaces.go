package domain

import (
	"context"
	"time"

	"tourcrm/internal/models"
)

// Repository хранилище записей CRM. Сервисы зависят только от него,
// в тестах подменяется моками.
type Repository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
	UpdateBookingFields(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, id int64, status string) error
	DeleteBooking(ctx context.Context, id int64) error

	CreateNote(ctx context.Context, note *models.BookingNote) error
	GetBookingNotes(ctx context.Context, bookingID int64) ([]models.BookingNote, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error
	GetRecentChatMessages(ctx context.Context, limit int) ([]models.ChatMessage, error)
}

// CacheRepository кэш снимков дашборда и счётчики частоты сообщений.
// Redis с памятью как запасным вариантом.
type CacheRepository interface {
	GetSnapshot(ctx context.Context, key string) ([]byte, error)
	SetSnapshot(ctx context.Context, key string, data []byte) error
	Invalidate(ctx context.Context, key string) error
	CheckRateLimit(ctx context.Context, sender string, limit int, window time.Duration) (bool, error)
}

// EventPublisher публикация доменных событий.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ReportWorker постановка задач на построение отчётов.
type ReportWorker interface {
	EnqueueReport(ctx context.Context, startDate, endDate time.Time) error
}
