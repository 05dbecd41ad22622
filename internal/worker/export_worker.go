package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tourcrm/internal/database"
	"tourcrm/internal/export"
	"tourcrm/internal/metrics"
	"tourcrm/internal/models"
	"tourcrm/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// reportPayload is persisted in ExportTask.Payload as JSON.
type reportPayload struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// ExportWorker consumes export_queue tasks and renders xlsx reports.
// Tasks survive restarts in the DB; redis (when present) is only a
// wake-up channel ahead of the polling loop.
type ExportWorker struct {
	db            *database.DB
	builder       *export.Builder
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.ExportTask
	redisQueueKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewExportWorker builds a worker with sane defaults.
func NewExportWorker(db *database.DB, builder *export.Builder, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *ExportWorker {
	return &ExportWorker{
		db:            db,
		builder:       builder,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan models.ExportTask, 128),
		redisQueueKey: "exports:queue",
		pollInterval:  2 * time.Second,
		batchSize:     models.ExportQueueBatchSize,
		logger:        logger,
	}
}

// EnqueueReport persists a report task and schedules it.
func (w *ExportWorker) EnqueueReport(ctx context.Context, startDate, endDate time.Time) error {
	if endDate.Before(startDate) {
		return errors.New("end date is before start date")
	}

	payloadBytes, err := json.Marshal(reportPayload{StartDate: startDate, EndDate: endDate})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.ExportTask{
		Payload: string(payloadBytes),
		Status:  models.ExportStatusPending,
	}
	if err := w.db.CreateExportTask(ctx, &task); err != nil {
		return fmt.Errorf("persist export task: %w", err)
	}

	// Redis будит воркер раньше очередного опроса БД
	if w.redis != nil {
		data, _ := json.Marshal(task)
		if err := w.redis.LPush(ctx, w.redisQueueKey, data).Err(); err != nil {
			w.logger.Warn().Err(err).Msg("export_worker: redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		// Очередь полна — задачу подберет опрос БД
		w.logger.Warn().Int64("task_id", task.ID).Msg("export_worker: in-memory queue full, task left to polling")
	}

	return nil
}

// Start launches main loop; stops when ctx is done.
func (w *ExportWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("export worker started")
	defer w.logger.Info().Msg("export worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingExportTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("export_worker: fetch pending")
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *ExportWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

func (w *ExportWorker) tryLocalQueue() (models.ExportTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.ExportTask{}, false
	}
}

func (w *ExportWorker) tryRedis(ctx context.Context) (models.ExportTask, bool) {
	if w.redis == nil {
		return models.ExportTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			w.logger.Warn().Err(err).Msg("export_worker: redis pop failed")
		}
		return models.ExportTask{}, false
	}
	if len(res) != 2 {
		return models.ExportTask{}, false
	}

	var task models.ExportTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Warn().Err(err).Msg("export_worker: decode redis task")
		return models.ExportTask{}, false
	}
	return task, true
}

func (w *ExportWorker) processTask(ctx context.Context, task *models.ExportTask) {
	// Задача могла приехать дважды: из очереди и из опроса БД.
	// Сверяемся с текущим состоянием, а не с копией из очереди.
	current, err := w.db.GetExportTask(ctx, task.ID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("export_worker: refresh task")
		}
		return
	}
	if current.Status == models.ExportStatusDone || current.Status == models.ExportStatusFailed {
		return
	}
	task.RetryCount = current.RetryCount

	err = w.runTask(ctx, task)
	if err == nil {
		if markErr := w.db.MarkExportTaskDone(ctx, task.ID); markErr != nil {
			w.logger.Error().Err(markErr).Int64("task_id", task.ID).Msg("export_worker: mark done")
		}
		metrics.IncExportTask("done")
		return
	}

	w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("export_worker: task failed")

	task.RetryCount++
	if task.RetryCount > w.retryPolicy.MaxRetries {
		if markErr := w.db.MarkExportTaskFailed(ctx, task.ID, err.Error()); markErr != nil {
			w.logger.Error().Err(markErr).Int64("task_id", task.ID).Msg("export_worker: mark failed")
		}
		metrics.IncExportTask("failed")
		return
	}

	nextRetry := time.Now().Add(w.retryPolicy.NextDelay(task.RetryCount))
	if markErr := w.db.MarkExportTaskRetry(ctx, task.ID, task.RetryCount, err.Error(), nextRetry); markErr != nil {
		w.logger.Error().Err(markErr).Int64("task_id", task.ID).Msg("export_worker: mark retry")
	}
	metrics.IncExportTask("retry")
}

func (w *ExportWorker) runTask(ctx context.Context, task *models.ExportTask) error {
	var payload reportPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	bookings, err := w.db.ListBookings(ctx)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}

	filtered := filterByTourDate(bookings, payload.StartDate, payload.EndDate)
	kpi := service.ComputeKPIs(filtered)

	path, err := w.builder.BuildBookingsReport(filtered, kpi, payload.StartDate, payload.EndDate)
	if err != nil {
		return err
	}

	w.logger.Info().Int64("task_id", task.ID).Str("path", path).Msg("export_worker: report built")
	return nil
}

func filterByTourDate(bookings []models.Booking, start, end time.Time) []models.Booking {
	var out []models.Booking
	for _, b := range bookings {
		if b.TourDate.Before(start) || b.TourDate.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}
