package worker

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"tourcrm/internal/database"
	"tourcrm/internal/export"
	"tourcrm/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWorker(t *testing.T) (*ExportWorker, *database.DB) {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	builder := export.NewBuilder(t.TempDir())
	w := NewExportWorker(db, builder, nil, RetryPolicy{}, &logger)
	return w, db
}

func addBooking(t *testing.T, db *database.DB, tourDate time.Time) {
	b := &models.Booking{
		ClientName:  "Test Client",
		ClientPhone: "+79990001122",
		TourType:    "Red Bus",
		Status:      models.StatusPaid,
		Priority:    models.PriorityMedium,
		Price:       15000,
		Cost:        2000,
		TourDate:    tourDate,
	}
	require.NoError(t, db.CreateBooking(context.Background(), b))
}

func TestEnqueueReportPersistsTask(t *testing.T) {
	w, db := setupWorker(t)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, w.EnqueueReport(ctx, start, end))

	tasks, err := db.GetPendingExportTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.ExportStatusPending, tasks[0].Status)

	var payload reportPayload
	require.NoError(t, json.Unmarshal([]byte(tasks[0].Payload), &payload))
	assert.True(t, payload.StartDate.Equal(start))
	assert.True(t, payload.EndDate.Equal(end))
}

func TestEnqueueReportRejectsInvertedPeriod(t *testing.T) {
	w, _ := setupWorker(t)

	start := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	assert.Error(t, w.EnqueueReport(context.Background(), start, end))
}

func TestProcessTaskBuildsReport(t *testing.T) {
	w, db := setupWorker(t)
	ctx := context.Background()

	addBooking(t, db, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, w.EnqueueReport(ctx, start, end))

	tasks, err := db.GetPendingExportTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	w.processTask(ctx, &tasks[0])

	// Задача выполнена и из pending исчезла
	tasks, err = db.GetPendingExportTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestProcessTaskRetriesBrokenPayload(t *testing.T) {
	w, db := setupWorker(t)
	ctx := context.Background()

	task := models.ExportTask{Payload: "не json", Status: models.ExportStatusPending}
	require.NoError(t, db.CreateExportTask(ctx, &task))

	w.processTask(ctx, &task)

	// Повтор запланирован в будущем, в текущей выборке задачи нет
	tasks, err := db.GetPendingExportTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Equal(t, 1, task.RetryCount)
}

func TestProcessTaskFailsAfterMaxRetries(t *testing.T) {
	w, db := setupWorker(t)
	ctx := context.Background()

	task := models.ExportTask{
		Payload:    "не json",
		Status:     models.ExportStatusRetry,
		RetryCount: w.retryPolicy.MaxRetries,
	}
	require.NoError(t, db.CreateExportTask(ctx, &task))

	w.processTask(ctx, &task)
	assert.Equal(t, w.retryPolicy.MaxRetries+1, task.RetryCount)

	tasks, err := db.GetPendingExportTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestProcessTaskSkipsAlreadyDone(t *testing.T) {
	w, db := setupWorker(t)
	ctx := context.Background()

	task := models.ExportTask{Payload: "не json", Status: models.ExportStatusPending}
	require.NoError(t, db.CreateExportTask(ctx, &task))
	require.NoError(t, db.MarkExportTaskDone(ctx, task.ID))

	// Вторая доставка той же задачи со старым статусом из очереди
	stale := task
	w.processTask(ctx, &stale)

	current, err := db.GetExportTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusDone, current.Status)
	assert.Zero(t, stale.RetryCount)
}

func TestProcessTaskSkipsMissingTask(t *testing.T) {
	w, _ := setupWorker(t)

	ghost := models.ExportTask{ID: 999, Payload: "{}", Status: models.ExportStatusPending}
	assert.NotPanics(t, func() {
		w.processTask(context.Background(), &ghost)
	})
}

func TestFilterByTourDate(t *testing.T) {
	mk := func(day int) models.Booking {
		return models.Booking{TourDate: time.Date(2026, 9, day, 0, 0, 0, 0, time.UTC)}
	}
	start := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)

	filtered := filterByTourDate([]models.Booking{mk(5), mk(10), mk(15), mk(20), mk(25)}, start, end)
	require.Len(t, filtered, 3)
	assert.Equal(t, 10, filtered[0].TourDate.Day())
	assert.Equal(t, 20, filtered[2].TourDate.Day())
}
