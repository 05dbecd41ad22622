package database

import (
	"context"
	"fmt"
	"time"

	"tourcrm/internal/models"
)

// SeedRecord запись демо-данных из seed-файла.
type SeedRecord struct {
	Managers []string `yaml:"managers"`
	Booking  struct {
		ClientName string  `yaml:"client_name"`
		TourType   string  `yaml:"tour_type"`
		Priority   string  `yaml:"priority"`
		Price      float64 `yaml:"price"`
		Note       string  `yaml:"note"`
	} `yaml:"booking"`
	ChatGreeting string `yaml:"chat_greeting"`
}

// DefaultSeed демо-данные, когда seed-файл не задан.
func DefaultSeed() SeedRecord {
	var s SeedRecord
	s.Managers = []string{"Manager Anna", "Manager Ivan"}
	s.Booking.ClientName = "Test Client"
	s.Booking.TourType = "Red Bus"
	s.Booking.Priority = models.PriorityHigh
	s.Booking.Price = 5000
	s.Booking.Note = "Клиент просил место у окна"
	s.ChatGreeting = "CRM запущена"
	return s
}

// SeedDemoData наполняет пустую базу демо-данными. Возвращает true,
// если сидинг выполнялся.
func (db *DB) SeedDemoData(ctx context.Context, seed SeedRecord) (bool, error) {
	users, err := db.ListUsers(ctx)
	if err != nil {
		return false, err
	}
	if len(users) > 0 {
		return false, nil
	}

	db.logger.Info().Msg("empty database, seeding demo data")

	var firstManager *models.User
	for _, name := range seed.Managers {
		u := &models.User{Username: name, Role: models.RoleManager}
		if err := db.CreateUser(ctx, u); err != nil {
			return false, fmt.Errorf("seed user %q: %w", name, err)
		}
		if firstManager == nil {
			firstManager = u
		}
	}

	booking := &models.Booking{
		ClientName: seed.Booking.ClientName,
		TourType:   seed.Booking.TourType,
		Status:     models.StatusNew,
		Priority:   seed.Booking.Priority,
		Price:      seed.Booking.Price,
		TourDate:   time.Now(),
	}
	if firstManager != nil {
		booking.ManagerID = &firstManager.ID
	}
	if err := db.CreateBooking(ctx, booking); err != nil {
		return false, fmt.Errorf("seed booking: %w", err)
	}

	if seed.Booking.Note != "" {
		author := models.SystemAuthor
		if firstManager != nil {
			author = firstManager.Username
		}
		note := &models.BookingNote{BookingID: booking.ID, Text: seed.Booking.Note, Author: author}
		if err := db.CreateNote(ctx, note); err != nil {
			return false, fmt.Errorf("seed note: %w", err)
		}
	}

	if seed.ChatGreeting != "" {
		msg := &models.ChatMessage{
			Sender:  models.SystemAuthor,
			Text:    seed.ChatGreeting,
			Channel: models.DefaultChatChannel,
		}
		if err := db.CreateChatMessage(ctx, msg); err != nil {
			return false, fmt.Errorf("seed chat message: %w", err)
		}
	}

	db.logger.Info().Msg("demo data seeded")
	return true, nil
}
