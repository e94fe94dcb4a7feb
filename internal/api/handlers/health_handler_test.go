package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/replyhq/reply-backend/internal/objectstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupHealthTestDB creates a gorm DB backed by sqlmock with ping monitoring
func setupHealthTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	// gorm pings once on open
	mock.ExpectPing()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock
}

func healthTestContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHealth_Healthy(t *testing.T) {
	gormDB, mock := setupHealthTestDB(t)
	mock.ExpectPing()

	handler := NewHealthHandler(gormDB, objectstore.NewMemoryStore())
	c, rec := healthTestContext()

	err := handler.Health(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"database":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"storage":"healthy"`)
}

func TestHealth_DatabaseDown(t *testing.T) {
	gormDB, mock := setupHealthTestDB(t)
	mock.ExpectPing().WillReturnError(assert.AnError)

	handler := NewHealthHandler(gormDB, objectstore.NewMemoryStore())
	c, rec := healthTestContext()

	err := handler.Health(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
}

func TestHealth_StorageDownIsDegradedNotUnhealthy(t *testing.T) {
	gormDB, mock := setupHealthTestDB(t)
	mock.ExpectPing()

	store := objectstore.NewMemoryStore()
	store.FailCheck = true

	handler := NewHealthHandler(gormDB, store)
	c, rec := healthTestContext()

	err := handler.Health(c)

	assert.NoError(t, err)
	// Storage outages degrade, they do not take the service down
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	assert.Contains(t, rec.Body.String(), `"storage":"unhealthy"`)
}

func TestReady_Ready(t *testing.T) {
	gormDB, mock := setupHealthTestDB(t)
	mock.ExpectPing()

	handler := NewHealthHandler(gormDB, objectstore.NewMemoryStore())
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.Ready(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)
}

func TestReady_NotReady(t *testing.T) {
	gormDB, mock := setupHealthTestDB(t)
	mock.ExpectPing().WillReturnError(assert.AnError)

	handler := NewHealthHandler(gormDB, objectstore.NewMemoryStore())
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.Ready(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not ready")
}
