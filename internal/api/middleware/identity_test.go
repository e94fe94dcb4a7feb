package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/replyhq/reply-backend/internal/models"
	"github.com/replyhq/reply-backend/internal/repository"
	"github.com/replyhq/reply-backend/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func identityTestContext(t *testing.T, username string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/inbox", nil)
	if username != "" {
		req.Header.Set(HeaderAuthUser, username)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/inbox")
	return c, rec
}

func TestIdentity_ResolvesUser(t *testing.T) {
	users := new(mocks.MockUserRepository)
	user := &models.User{ID: 1, Username: "alice"}
	users.On("GetByUsername", mock.Anything, "alice").Return(user, nil)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, _ := identityTestContext(t, "alice")

	var seen *models.User
	next := func(c echo.Context) error {
		seen = CurrentUser(c)
		return nil
	}

	err := Identity(users, log)(next)(c)

	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "alice", seen.Username)
	users.AssertExpectations(t)
}

func TestIdentity_MissingHeader(t *testing.T) {
	users := new(mocks.MockUserRepository)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, _ := identityTestContext(t, "")

	err := Identity(users, log)(func(c echo.Context) error { return nil })(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	users.AssertNotCalled(t, "GetByUsername", mock.Anything, mock.Anything)
}

func TestIdentity_UnknownUsername(t *testing.T) {
	users := new(mocks.MockUserRepository)
	users.On("GetByUsername", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, _ := identityTestContext(t, "ghost")

	err := Identity(users, log)(func(c echo.Context) error { return nil })(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestIdentity_RepositoryFailure(t *testing.T) {
	users := new(mocks.MockUserRepository)
	users.On("GetByUsername", mock.Anything, "alice").Return(nil, errors.New("db down"))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, _ := identityTestContext(t, "alice")

	err := Identity(users, log)(func(c echo.Context) error { return nil })(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
}

func TestIdentity_SkipsHealthEndpoints(t *testing.T) {
	users := new(mocks.MockUserRepository)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/health")

	called := false
	err := Identity(users, log)(func(c echo.Context) error {
		called = true
		return nil
	})(c)

	require.NoError(t, err)
	assert.True(t, called)
	users.AssertNotCalled(t, "GetByUsername", mock.Anything, mock.Anything)
}

func TestCurrentUser_NilOutsideAuthenticatedRequest(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Nil(t, CurrentUser(c))
}
