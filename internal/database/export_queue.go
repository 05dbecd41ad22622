package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tourcrm/internal/models"
)

func (db *DB) CreateExportTask(ctx context.Context, task *models.ExportTask) error {
	query := `INSERT INTO export_queue (payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		task.Payload,
		task.Status,
		task.RetryCount,
		task.LastError,
		now,
		task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create export task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now

	return nil
}

func (db *DB) GetExportTask(ctx context.Context, id int64) (*models.ExportTask, error) {
	query := `SELECT id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
              FROM export_queue WHERE id = ?`
	var t models.ExportTask
	err := db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Payload, &t.Status, &t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get export task: %w", err)
	}
	return &t, nil
}

func (db *DB) GetPendingExportTasks(ctx context.Context, limit int) ([]models.ExportTask, error) {
	query := `SELECT id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
              FROM export_queue
              WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending export tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.ExportTask
	for rows.Next() {
		var t models.ExportTask
		err := rows.Scan(&t.ID, &t.Payload, &t.Status, &t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (db *DB) MarkExportTaskDone(ctx context.Context, id int64) error {
	query := `UPDATE export_queue SET status = ?, processed_at = ?, last_error = NULL WHERE id = ?`
	_, err := db.ExecContext(ctx, query, models.ExportStatusDone, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark export task done: %w", err)
	}
	return nil
}

func (db *DB) MarkExportTaskRetry(ctx context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error {
	query := `UPDATE export_queue SET status = ?, retry_count = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, models.ExportStatusRetry, retryCount, lastError, nextRetryAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark export task for retry: %w", err)
	}
	return nil
}

func (db *DB) MarkExportTaskFailed(ctx context.Context, id int64, lastError string) error {
	query := `UPDATE export_queue SET status = ?, last_error = ?, processed_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, models.ExportStatusFailed, lastError, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark export task failed: %w", err)
	}
	return nil
}
