package notify

import (
	"encoding/json"
	"fmt"

	"tourcrm/internal/events"
	"tourcrm/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender минимальный интерфейс Telegram-клиента, в тестах подменяется.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier шлёт смены статусов и сообщения чата в канал
// менеджеров. Только исходящие уведомления, без приёма команд.
type TelegramNotifier struct {
	bot    Sender
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// NewTelegramNotifierWithSender используется в тестах.
func NewTelegramNotifierWithSender(sender Sender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: sender, chatID: chatID, logger: logger}
}

// Subscribe вешает обработчики на шину. Уведомитель необязателен:
// nil-приёмник просто ничего не делает.
func (n *TelegramNotifier) Subscribe(bus *events.EventBus) {
	if n == nil || bus == nil {
		return
	}
	bus.Subscribe(events.EventBookingStatusChanged, n.handleStatusChange)
	bus.Subscribe(events.EventChatMessage, n.handleChatMessage)
}

func (n *TelegramNotifier) handleStatusChange(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}

	text := fmt.Sprintf("Заявка #%d (%s): %s → %s",
		payload.BookingID, payload.ClientName, payload.OldStatus, payload.Status)
	n.send(text)
	return nil
}

func (n *TelegramNotifier) handleChatMessage(event *events.Event) error {
	var payload events.ChatEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}

	// Системные сообщения сидинга в канал не дублируем
	if payload.Sender == models.SystemAuthor {
		return nil
	}

	n.send(fmt.Sprintf("[чат] %s: %s", payload.Sender, payload.Text))
	return nil
}

func (n *TelegramNotifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Warn().Err(err).Msg("telegram notify failed")
	}
}
