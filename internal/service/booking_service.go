package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"tourcrm/internal/domain"
	"tourcrm/internal/events"
	"tourcrm/internal/models"

	"github.com/rs/zerolog"
)

// BookingService движок жизненного цикла заявок: карточка, частичное
// редактирование, заметки, смена статуса, быстрая заявка.
type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// GetDetails собирает денормализованную карточку заявки для окна
// редактирования. Даты заметок отформатированы как DD.MM HH:MM.
func (s *BookingService) GetDetails(ctx context.Context, id int64) (*models.BookingDetail, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	notes, err := s.repo.GetBookingNotes(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.BookingDetail{
		ID:        booking.ID,
		Client:    booking.ClientName,
		Phone:     booking.ClientPhone,
		Tour:      booking.TourType,
		Price:     booking.Price,
		Priority:  booking.Priority,
		ManagerID: booking.ManagerID,
		Date:      booking.TourDate.Format(models.TourDateFormat),
		Notes:     make([]models.NoteDetail, 0, len(notes)),
	}
	for _, n := range notes {
		detail.Notes = append(detail.Notes, models.NoteDetail{
			Author: n.Author,
			Text:   n.Text,
			Date:   n.CreatedAt.Format(models.NoteTimeFormat),
		})
	}

	return detail, nil
}

// UpdateBooking применяет частичный патч. Нечитаемые price и tour_date
// молча оставляют старое значение: это осознанная устойчивость к
// мусорному вводу, а не ошибка. Отсутствующий manager_id снимает
// назначение — единственное асимметричное поле патча.
func (s *BookingService) UpdateBooking(ctx context.Context, id int64, patch models.BookingPatch) error {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}

	if patch.ClientName != nil {
		booking.ClientName = *patch.ClientName
	}
	if patch.TourType != nil {
		booking.TourType = *patch.TourType
	}
	if patch.Priority != nil {
		booking.Priority = *patch.Priority
	}

	if patch.Price != nil {
		if price, err := strconv.ParseFloat(strings.TrimSpace(*patch.Price), 64); err == nil {
			booking.Price = price
		}
	}

	if managerID := strings.TrimSpace(patch.ManagerID); managerID == "" {
		booking.ManagerID = nil
	} else if parsed, err := strconv.ParseInt(managerID, 10, 64); err == nil {
		booking.ManagerID = &parsed
	} else {
		booking.ManagerID = nil
	}

	if patch.TourDate != "" {
		if date, err := time.Parse(models.TourDateFormat, patch.TourDate); err == nil {
			booking.TourDate = date
		}
	}

	if err := s.repo.UpdateBookingFields(ctx, booking); err != nil {
		return err
	}

	s.publishBookingEvent(events.EventBookingUpdated, booking, "")
	return nil
}

// AddNote прикрепляет неизменяемую заметку. Пустой текст — отказ без
// записи. Пустой автор заменяется на идентичность вызывающего.
func (s *BookingService) AddNote(ctx context.Context, bookingID int64, text, author string) (*models.NoteDetail, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if author == "" {
		author = models.DefaultNoteAuthor
	}

	note := &models.BookingNote{
		BookingID: bookingID,
		Text:      truncateText(text, models.NoteMaxLength),
		Author:    author,
	}
	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		payload := events.NoteEventPayload{BookingID: bookingID, Author: author, Text: note.Text}
		if err := s.eventBus.PublishJSON(events.EventNoteAdded, payload); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("publish event error")
		}
	}

	return &models.NoteDetail{
		Author: note.Author,
		Text:   note.Text,
		Date:   note.CreatedAt.Format(models.NoteTimeFormat),
	}, nil
}

// SetStatus безусловно перезаписывает статус заявки. Значение не
// сверяется с каноническим набором: доска сама игнорирует неизвестные.
func (s *BookingService) SetStatus(ctx context.Context, id int64, status string) error {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateBookingStatus(ctx, id, status); err != nil {
		return err
	}

	oldStatus := booking.Status
	booking.Status = status
	s.publishBookingEvent(events.EventBookingStatusChanged, booking, oldStatus)
	return nil
}

// QuickCreate создает демо-заявку с плейсхолдерами: кнопка на дашборде.
func (s *BookingService) QuickCreate(ctx context.Context) (*models.Booking, error) {
	managerID := int64(models.DefaultManagerID)
	booking := &models.Booking{
		ClientName:  fmt.Sprintf("New Client %d", 100+rand.Intn(900)),
		ClientPhone: models.QuickCreatePhone,
		TourType:    models.QuickCreateTourType,
		Status:      models.StatusNew,
		Priority:    models.PriorityMedium,
		Price:       models.QuickCreatePrice,
		Cost:        models.QuickCreateCost,
		TourDate:    time.Now().AddDate(0, 0, models.QuickCreateDaysOut),
		ManagerID:   &managerID,
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.publishBookingEvent(events.EventBookingCreated, booking, "")
	return booking, nil
}

// ListAll возвращает все заявки, новые первыми.
func (s *BookingService) ListAll(ctx context.Context) ([]models.Booking, error) {
	return s.repo.ListBookings(ctx)
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking, oldStatus string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:  booking.ID,
		ClientName: booking.ClientName,
		TourType:   booking.TourType,
		Status:     booking.Status,
		Priority:   booking.Priority,
		Price:      booking.Price,
		TourDate:   booking.TourDate,
		ManagerID:  booking.ManagerID,
		OldStatus:  oldStatus,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func truncateText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
