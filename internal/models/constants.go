package models

// Статусы заявки. Поле статуса намеренно остаётся открытой строкой:
// канбан-доска просто не показывает заявки с неизвестным статусом.
const (
	StatusNew        = "new"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusPaid       = "paid"
	StatusCompleted  = "completed"
)

// Приоритеты заявки
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Роли пользователей
const (
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

const (
	// DefaultNoteAuthor автор заметки, когда клиент API его не передал
	DefaultNoteAuthor = "Вы"

	// SystemAuthor служебный автор для сидинга и системных записей
	SystemAuthor = "System"

	// DefaultChatChannel канал общего чата
	DefaultChatChannel = "general"

	// ChatHistorySize сколько последних сообщений попадает на дашборд
	ChatHistorySize = 20

	// NoteMaxLength максимальная длина текста заметки и сообщения чата
	NoteMaxLength = 500
)

const (
	// OverheadRate доля накладных расходов от выручки в формуле маржи.
	// margin = income - costs - OverheadRate*income; это аллокация,
	// а не настоящая прибыль.
	OverheadRate = 0.15
)

// Параметры быстрой заявки (демо-действие с дашборда)
const (
	QuickCreatePhone    = "+7999..."
	QuickCreateTourType = "Hop-On Hop-Off"
	QuickCreatePrice    = 15000
	QuickCreateCost     = 5000
	QuickCreateDaysOut  = 2

	// DefaultManagerID менеджер, на которого падают быстрые заявки
	DefaultManagerID = 1
)

// Форматы отображения дат
const (
	// NoteTimeFormat человекочитаемая метка времени заметок и чата: DD.MM HH:MM
	NoteTimeFormat = "02.01 15:04"

	// TourDateFormat календарная дата тура: YYYY-MM-DD
	TourDateFormat = "2006-01-02"
)

const (
	// ExportQueueBatchSize сколько задач экспорта воркер забирает за проход
	ExportQueueBatchSize = 20

	// ChatRateLimitMessages количество сообщений в окне
	ChatRateLimitMessages = 20

	// ChatRateLimitWindow окно ограничения частоты сообщений, секунды
	ChatRateLimitWindow = 60

	// DashboardCacheTTL время жизни кэша дашборда, секунды
	DashboardCacheTTL = 30
)

// KnownStatuses возвращает канонический набор статусов воронки.
func KnownStatuses() []string {
	return []string{StatusNew, StatusConfirmed, StatusInProgress, StatusPaid, StatusCompleted}
}
