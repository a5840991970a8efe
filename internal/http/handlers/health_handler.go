package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fairticket/ticketing-backend/internal/http/response"
	"github.com/fairticket/ticketing-backend/internal/logger"
)

// DBPinger: то, что нужно health check от пула соединений.
type DBPinger interface {
	PingContext(ctx context.Context) error
	Stats() sql.DBStats
}

// HealthHandler предоставляет endpoint для проверки здоровья сервиса.
type HealthHandler struct {
	db DBPinger
}

// NewHealthHandler создаёт новый health handler.
func NewHealthHandler(db DBPinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthReport: содержимое data в ответе health check.
type HealthReport struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health обрабатывает GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	report := HealthReport{Status: "healthy", Timestamp: time.Now(), Checks: map[string]string{}}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.Log.WithFields(logrus.Fields{"error": err.Error()}).Warn("Health check: database unreachable")
		report.Checks["database"] = "unhealthy"
		report.Status = "unhealthy"
	} else {
		report.Checks["database"] = "healthy"
	}

	stats := h.db.Stats()
	if stats.MaxOpenConnections > 0 && stats.OpenConnections >= stats.MaxOpenConnections {
		report.Checks["connection_pool"] = "warning: pool exhausted"
	} else {
		report.Checks["connection_pool"] = "healthy"
	}

	if report.Status != "healthy" {
		response.JSON(c, http.StatusServiceUnavailable, response.Envelope{
			Message: "Service unavailable",
			Data:    report,
			Error:   "database unreachable",
		})
		return
	}
	response.Success(c, "Service is healthy", report)
}
