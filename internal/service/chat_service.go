package service

import (
	"context"
	"strings"
	"time"

	"tourcrm/internal/domain"
	"tourcrm/internal/events"
	"tourcrm/internal/models"

	"github.com/rs/zerolog"
)

// ChatService общий канал персонала. Журнал только на добавление,
// сообщения не редактируются и не удаляются.
type ChatService struct {
	repo              domain.Repository
	cache             domain.CacheRepository
	eventBus          domain.EventPublisher
	rateLimitMessages int
	rateLimitWindow   time.Duration
	logger            *zerolog.Logger
}

func NewChatService(repo domain.Repository, cache domain.CacheRepository, eventBus domain.EventPublisher, rateLimitMessages, rateLimitWindowSec int, logger *zerolog.Logger) *ChatService {
	if rateLimitMessages <= 0 {
		rateLimitMessages = models.ChatRateLimitMessages
	}
	if rateLimitWindowSec <= 0 {
		rateLimitWindowSec = models.ChatRateLimitWindow
	}
	return &ChatService{
		repo:              repo,
		cache:             cache,
		eventBus:          eventBus,
		rateLimitMessages: rateLimitMessages,
		rateLimitWindow:   time.Duration(rateLimitWindowSec) * time.Second,
		logger:            logger,
	}
}

// Post добавляет сообщение в общий канал. Пустой текст — отказ без
// записи; пустой отправитель заменяется на идентичность вызывающего.
func (s *ChatService) Post(ctx context.Context, sender, text string) (*models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if sender == "" {
		sender = models.DefaultNoteAuthor
	}

	if s.cache != nil {
		allowed, err := s.cache.CheckRateLimit(ctx, sender, s.rateLimitMessages, s.rateLimitWindow)
		if err != nil {
			// Лимитер — защита от потопа, не предохранитель: при сбое пропускаем
			s.logger.Warn().Err(err).Msg("chat rate limit check failed")
		} else if !allowed {
			return nil, ErrRateLimited
		}
	}

	msg := &models.ChatMessage{
		Sender:  sender,
		Text:    truncateText(text, models.NoteMaxLength),
		Channel: models.DefaultChatChannel,
	}
	if err := s.repo.CreateChatMessage(ctx, msg); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		payload := events.ChatEventPayload{Sender: msg.Sender, Text: msg.Text, Channel: msg.Channel}
		if err := s.eventBus.PublishJSON(events.EventChatMessage, payload); err != nil {
			s.logger.Error().Err(err).Msg("publish event error")
		}
	}

	return msg, nil
}

// Recent возвращает последние limit сообщений в хронологическом порядке.
func (s *ChatService) Recent(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = models.ChatHistorySize
	}
	messages, err := s.repo.GetRecentChatMessages(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
