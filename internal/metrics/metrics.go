package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tourcrm",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	statusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tourcrm",
			Name:      "booking_status_changes_total",
			Help:      "Booking status transitions by target status.",
		},
		[]string{"status"},
	)

	chatMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tourcrm",
			Name:      "chat_messages_total",
			Help:      "Chat messages posted to the shared channel.",
		},
	)

	exportTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tourcrm",
			Name:      "export_tasks_total",
			Help:      "Report export tasks by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, statusChanges, chatMessages, exportTasks)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncStatusChange increments the transition counter for a target status.
func IncStatusChange(status string) {
	statusChanges.WithLabelValues(status).Inc()
}

// IncChatMessage increments the chat message counter.
func IncChatMessage() {
	chatMessages.Inc()
}

// IncExportTask increments the export counter for an outcome label.
func IncExportTask(outcome string) {
	exportTasks.WithLabelValues(outcome).Inc()
}
