package handler

import (
	"net/http"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthHandler reports whether the service and its database are reachable
type HealthHandler struct {
	db      *gorm.DB
	service string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, service string) *HealthHandler {
	return &HealthHandler{db: db, service: service}
}

// Check pings the database
func (h *HealthHandler) Check(c echo.Context) error {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		logger.FromContext(c).Error("Health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":  "unavailable",
			"service": h.service,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"service": h.service,
	})
}
