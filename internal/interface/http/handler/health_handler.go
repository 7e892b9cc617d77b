package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger: зависимость, доступность которой проверяет health check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc адаптирует функцию к Pinger (например, Ping кэша).
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// QueueDepth сообщает длину очереди уведомлений.
type QueueDepth interface {
	Len() int
}

type HealthHandler struct {
	checks map[string]Pinger
	queue  QueueDepth
}

// NewHealthHandler принимает именованные проверки; nil значения пропускаются.
func NewHealthHandler(checks map[string]Pinger, queue QueueDepth) *HealthHandler {
	filtered := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			filtered[name] = p
		}
	}
	return &HealthHandler{checks: filtered, queue: queue}
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Checks     map[string]string `json:"checks"`
	QueueDepth *int              `json:"notificationQueueDepth,omitempty"`
}

// Health обрабатывает GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	status := "healthy"
	for name, p := range h.checks {
		if err := p.PingContext(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			status = "unhealthy"
			continue
		}
		checks[name] = "healthy"
	}

	resp := HealthResponse{Status: status, Timestamp: time.Now().UTC(), Checks: checks}
	if h.queue != nil {
		depth := h.queue.Len()
		resp.QueueDepth = &depth
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, resp)
}
