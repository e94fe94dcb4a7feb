package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/replyhq/reply-backend/internal/objectstore"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the service's two external
// dependencies: the database and the attachment object store.
type HealthHandler struct {
	db    *gorm.DB
	store objectstore.ObjectStore
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *gorm.DB, store objectstore.ObjectStore) *HealthHandler {
	return &HealthHandler{db: db, store: store}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Health handles GET /health. The database is load-bearing: when it is
// down the service is unhealthy. Storage being down only degrades the
// service, since every mailbox operation except attachment content
// still works.
func (h *HealthHandler) Health(c echo.Context) error {
	services := make(map[string]string)
	status := "healthy"

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		services["database"] = "unhealthy"
		status = "unhealthy"
	} else {
		services["database"] = "healthy"
	}

	if err := h.store.Check(c.Request().Context()); err != nil {
		services["storage"] = "unhealthy"
		if status == "healthy" {
			status = "degraded"
		}
	} else {
		services["storage"] = "healthy"
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, HealthResponse{
		Status:   status,
		Services: services,
	})
}

// Ready handles GET /ready. Readiness only requires the database;
// storage outages must not take the whole service out of rotation.
func (h *HealthHandler) Ready(c echo.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database connection failed",
		})
	}

	if err := sqlDB.Ping(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database ping failed",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}
