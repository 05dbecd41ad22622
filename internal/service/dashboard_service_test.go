package service

import (
	"context"
	"os"
	"testing"
	"time"

	"tourcrm/internal/events"
	"tourcrm/internal/models"
	"tourcrm/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkBooking(id int64, status, priority string, price, cost float64, tourDate string) models.Booking {
	date, _ := time.Parse(models.TourDateFormat, tourDate)
	return models.Booking{
		ID:       id,
		Status:   status,
		Priority: priority,
		Price:    price,
		Cost:     cost,
		TourDate: date,
	}
}

func TestSortBoardHighPriorityFirst(t *testing.T) {
	bookings := []models.Booking{
		mkBooking(1, models.StatusNew, models.PriorityLow, 0, 0, "2026-09-01"),
		mkBooking(2, models.StatusNew, models.PriorityHigh, 0, 0, "2026-09-20"),
		mkBooking(3, models.StatusNew, models.PriorityMedium, 0, 0, "2026-08-15"),
		mkBooking(4, models.StatusNew, models.PriorityHigh, 0, 0, "2026-09-05"),
	}

	sorted := SortBoard(bookings)
	require.Len(t, sorted, 4)

	// high первыми, внутри группы — по дате тура
	assert.Equal(t, int64(4), sorted[0].ID)
	assert.Equal(t, int64(2), sorted[1].ID)
	assert.Equal(t, int64(3), sorted[2].ID)
	assert.Equal(t, int64(1), sorted[3].ID)

	// Исходный слайс не изменён
	assert.Equal(t, int64(1), bookings[0].ID)
}

func TestClassifyColumns(t *testing.T) {
	bookings := []models.Booking{
		mkBooking(1, models.StatusNew, models.PriorityLow, 0, 0, "2026-09-01"),
		mkBooking(2, models.StatusConfirmed, models.PriorityLow, 0, 0, "2026-09-01"),
		mkBooking(3, models.StatusInProgress, models.PriorityLow, 0, 0, "2026-09-01"),
		mkBooking(4, models.StatusPaid, models.PriorityLow, 0, 0, "2026-09-01"),
		mkBooking(5, models.StatusCompleted, models.PriorityLow, 0, 0, "2026-09-01"),
	}

	board := Classify(bookings)
	assert.Len(t, board.New, 1)
	assert.Len(t, board.Active, 2)
	assert.Len(t, board.Paid, 1)
	assert.Len(t, board.Done, 1)
}

func TestClassifyDropsUnknownStatus(t *testing.T) {
	bookings := []models.Booking{
		mkBooking(1, "archived", models.PriorityLow, 0, 0, "2026-09-01"),
		mkBooking(2, models.StatusNew, models.PriorityLow, 0, 0, "2026-09-01"),
	}

	board := Classify(bookings)
	// archived не попадает ни в одну колонку
	total := len(board.New) + len(board.Active) + len(board.Paid) + len(board.Done)
	assert.Equal(t, 1, total)
	assert.Equal(t, int64(2), board.New[0].ID)
}

func TestClassifyEmptyColumnsNotNil(t *testing.T) {
	board := Classify(nil)
	assert.NotNil(t, board.New)
	assert.NotNil(t, board.Active)
	assert.NotNil(t, board.Paid)
	assert.NotNil(t, board.Done)
}

func TestComputeKPIs(t *testing.T) {
	bookings := []models.Booking{
		mkBooking(1, models.StatusPaid, models.PriorityLow, 15000, 2000, "2026-09-01"),
	}

	kpi := ComputeKPIs(bookings)
	assert.Equal(t, 15000.0, kpi.Income)
	// 15000 - 2000 - 0.15*15000 = 10750
	assert.Equal(t, 10750.0, kpi.Margin)
}

func TestComputeKPIsEmpty(t *testing.T) {
	kpi := ComputeKPIs(nil)
	assert.Equal(t, 0.0, kpi.Income)
	assert.Equal(t, 0.0, kpi.Margin)
}

func TestComputeDashboard(t *testing.T) {
	db := newTestDB(t)
	logger := zerolog.New(os.Stdout)
	svc := NewDashboardService(db, nil, 20, &logger)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &models.User{Username: "Manager Anna", Role: models.RoleManager}))

	low := seedBooking(t, db)
	require.NoError(t, db.UpdateBookingStatus(ctx, low.ID, models.StatusPaid))

	chatSvc := NewChatService(db, nil, events.NewEventBus(), 0, 0, &logger)
	_, err := chatSvc.Post(ctx, "Manager Anna", "привет")
	require.NoError(t, err)

	dashboard, err := svc.ComputeDashboard(ctx)
	require.NoError(t, err)
	assert.Len(t, dashboard.Board.Paid, 1)
	assert.Equal(t, 5000.0, dashboard.KPI.Income)
	require.Len(t, dashboard.Chat, 1)
	assert.Equal(t, "привет", dashboard.Chat[0].Text)
	require.Len(t, dashboard.Managers, 1)
	assert.Equal(t, "Manager Anna", dashboard.Managers[0].Username)
}

func TestComputeDashboardUsesCache(t *testing.T) {
	db := newTestDB(t)
	logger := zerolog.New(os.Stdout)
	cache := repository.NewMemoryCacheRepository(time.Minute)
	svc := NewDashboardService(db, cache, 20, &logger)
	ctx := context.Background()

	seedBooking(t, db)

	first, err := svc.ComputeDashboard(ctx)
	require.NoError(t, err)
	require.Len(t, first.Board.New, 1)

	// Прямая запись в БД не видна, пока кэш не сброшен
	seedBooking(t, db)
	cached, err := svc.ComputeDashboard(ctx)
	require.NoError(t, err)
	assert.Len(t, cached.Board.New, 1)

	svc.InvalidateCache(ctx)
	fresh, err := svc.ComputeDashboard(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh.Board.New, 2)
}

func TestDashboardChatChronological(t *testing.T) {
	db := newTestDB(t)
	logger := zerolog.New(os.Stdout)
	svc := NewDashboardService(db, nil, 2, &logger)
	ctx := context.Background()

	for _, text := range []string{"первое", "второе", "третье"} {
		require.NoError(t, db.CreateChatMessage(ctx, &models.ChatMessage{
			Sender:  "Manager Anna",
			Text:    text,
			Channel: models.DefaultChatChannel,
		}))
	}

	dashboard, err := svc.ComputeDashboard(ctx)
	require.NoError(t, err)
	require.Len(t, dashboard.Chat, 2)
	// Последние два сообщения, старое первым
	assert.Equal(t, "второе", dashboard.Chat[0].Text)
	assert.Equal(t, "третье", dashboard.Chat[1].Text)
}
