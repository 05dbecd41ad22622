package models

import "time"

// Статусы задач очереди экспорта
const (
	ExportStatusPending = "pending"
	ExportStatusRetry   = "retry"
	ExportStatusDone    = "done"
	ExportStatusFailed  = "failed"
)

// ExportTask отложенная задача построения Excel-отчёта.
type ExportTask struct {
	ID          int64      `json:"id"`
	Payload     string     `json:"payload"` // JSON с параметрами отчёта
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}
