package service

import (
	"context"
	"encoding/json"
	"sort"

	"tourcrm/internal/domain"
	"tourcrm/internal/models"

	"github.com/rs/zerolog"
)

const dashboardCacheKey = "dashboard"

// DashboardService раскладывает заявки по колонкам воронки и считает
// финансовую сводку. Снимок кэшируется целиком; любая мутация заявок
// или чата инвалидирует кэш.
type DashboardService struct {
	repo            domain.Repository
	cache           domain.CacheRepository
	chatHistorySize int
	logger          *zerolog.Logger
}

func NewDashboardService(repo domain.Repository, cache domain.CacheRepository, chatHistorySize int, logger *zerolog.Logger) *DashboardService {
	if chatHistorySize <= 0 {
		chatHistorySize = models.ChatHistorySize
	}
	return &DashboardService{
		repo:            repo,
		cache:           cache,
		chatHistorySize: chatHistorySize,
		logger:          logger,
	}
}

// SortBoard упорядочивает заявки для доски: high-приоритет первым,
// далее по возрастанию даты тура. Сортировка стабильная и выполняется
// один раз над полным списком, поэтому порядок сохраняется внутри
// каждой колонки.
func SortBoard(bookings []models.Booking) []models.Booking {
	sorted := append([]models.Booking(nil), bookings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		hi := sorted[i].Priority == models.PriorityHigh
		hj := sorted[j].Priority == models.PriorityHigh
		if hi != hj {
			return hi
		}
		return sorted[i].TourDate.Before(sorted[j].TourDate)
	})
	return sorted
}

// Classify раскладывает заявки по колонкам. Заявка с неканоническим
// статусом не попадает никуда — известный побочный эффект, который
// сознательно не исправляем.
func Classify(bookings []models.Booking) models.Board {
	board := models.Board{
		New:    []models.Booking{},
		Active: []models.Booking{},
		Paid:   []models.Booking{},
		Done:   []models.Booking{},
	}
	for _, b := range bookings {
		switch b.Status {
		case models.StatusNew:
			board.New = append(board.New, b)
		case models.StatusConfirmed, models.StatusInProgress:
			board.Active = append(board.Active, b)
		case models.StatusPaid:
			board.Paid = append(board.Paid, b)
		case models.StatusCompleted:
			board.Done = append(board.Done, b)
		}
	}
	return board
}

// ComputeKPIs считает сводку: income = сумма price,
// margin = income - сумма cost - 0.15*income. Пятнадцать процентов —
// плоская аллокация накладных на выручку; это приближение, не прибыль.
func ComputeKPIs(bookings []models.Booking) models.KPI {
	var income, costs float64
	for _, b := range bookings {
		income += b.Price
		costs += b.Cost
	}
	return models.KPI{
		Income: income,
		Margin: income - costs - income*models.OverheadRate,
	}
}

// ComputeDashboard собирает полный снимок главной страницы: колонки,
// KPI, последние сообщения чата (хронологически) и список менеджеров.
func (s *DashboardService) ComputeDashboard(ctx context.Context) (*models.Dashboard, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	bookings, err := s.repo.ListBookings(ctx)
	if err != nil {
		return nil, err
	}

	sorted := SortBoard(bookings)

	chat, err := s.recentChat(ctx)
	if err != nil {
		return nil, err
	}

	managers, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	dashboard := &models.Dashboard{
		Board:    Classify(sorted),
		KPI:      ComputeKPIs(bookings),
		Chat:     chat,
		Managers: managers,
	}

	s.toCache(ctx, dashboard)
	return dashboard, nil
}

// InvalidateCache сбрасывает кэшированный снимок.
func (s *DashboardService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn().Err(err).Msg("dashboard cache invalidate failed")
	}
}

func (s *DashboardService) recentChat(ctx context.Context) ([]models.ChatMessage, error) {
	messages, err := s.repo.GetRecentChatMessages(ctx, s.chatHistorySize)
	if err != nil {
		return nil, err
	}
	// Хранилище отдает новые первыми, дашборду нужен хронологический порядок
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *DashboardService) fromCache(ctx context.Context) *models.Dashboard {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.GetSnapshot(ctx, dashboardCacheKey)
	if err != nil || data == nil {
		return nil
	}
	var dashboard models.Dashboard
	if err := json.Unmarshal(data, &dashboard); err != nil {
		s.logger.Warn().Err(err).Msg("dashboard cache decode failed")
		return nil
	}
	return &dashboard
}

func (s *DashboardService) toCache(ctx context.Context, dashboard *models.Dashboard) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(dashboard)
	if err != nil {
		return
	}
	if err := s.cache.SetSnapshot(ctx, dashboardCacheKey, data); err != nil {
		s.logger.Warn().Err(err).Msg("dashboard cache store failed")
	}
}
