package jwt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/recipemanager/api/apierror"
	"github.com/tech-arch1tect/recipemanager/services/jwt"
	"github.com/tech-arch1tect/recipemanager/services/user"
	"github.com/tech-arch1tect/recipemanager/testutils"
)

type stubUsers struct {
	users map[uint]*user.User
	err   error
}

func (s *stubUsers) GetByID(_ context.Context, id uint) (*user.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func setupTestTokens(t *testing.T) *jwt.Service {
	t.Helper()
	tokens, err := jwt.NewService(testutils.GetTestConfig().Token, nil)
	require.NoError(t, err)
	return tokens
}

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, status, apiErr.Status)
	assert.Equal(t, code, apiErr.Code)
}

func TestGate_RequireUser(t *testing.T) {
	e := echo.New()
	tokens := setupTestTokens(t)
	pere := &user.User{ID: 123, Name: "Pere", Email: "a@b.com"}
	gate := NewGate(tokens, &stubUsers{users: map[uint]*user.User{123: pere}}, nil)

	var seen *user.User
	successHandler := func(c echo.Context) error {
		seen, _ = CurrentUser(c)
		return c.NoContent(http.StatusOK)
	}

	run := func(header string) (echo.Context, *httptest.ResponseRecorder, error) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/my-account", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		return c, rec, gate.RequireUser()(successHandler)(c)
	}

	issue := func(t *testing.T, id uint, tokenType jwt.TokenType) string {
		t.Helper()
		token, err := tokens.Issue(id, tokenType)
		require.NoError(t, err)
		return token
	}

	rejected := []struct {
		name   string
		header func(t *testing.T) string
	}{
		{"missing authorization header", func(*testing.T) string { return "" }},
		{"wrong scheme", func(t *testing.T) string { return "Basic " + issue(t, 123, jwt.TypeAuth) }},
		{"no space", func(t *testing.T) string { return "Bearer" + issue(t, 123, jwt.TypeAuth) }},
		{"empty bearer token", func(*testing.T) string { return "Bearer " }},
		{"extra segment", func(t *testing.T) string { return "Bearer " + issue(t, 123, jwt.TypeAuth) + " x" }},
		{"garbage token", func(*testing.T) string { return "Bearer invalid.jwt.token" }},
		{"verify-email token", func(t *testing.T) string { return "Bearer " + issue(t, 123, jwt.TypeVerifyEmail) }},
		{"password-reset token", func(t *testing.T) string { return "Bearer " + issue(t, 123, jwt.TypePasswordReset) }},
		{"deleted user", func(t *testing.T) string { return "Bearer " + issue(t, 999, jwt.TypeAuth) }},
		{"expired token", func(t *testing.T) string {
			old := tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
			token, err := old.Issue(123, jwt.TypeAuth)
			require.NoError(t, err)
			return "Bearer " + token
		}},
	}

	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(tt.header(t))

			requireAPIError(t, err, http.StatusUnauthorized, apierror.CodeValidAuthTokenRequired)
			assert.Nil(t, seen)
		})
	}

	t.Run("valid auth token", func(t *testing.T) {
		c, rec, err := run("Bearer " + issue(t, 123, jwt.TypeAuth))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Same(t, pere, seen)
		assert.Equal(t, uint(123), GetClaims(c).UserID)

		fromCtx, ok := UserFromContext(c.Request().Context())
		require.True(t, ok)
		assert.Same(t, pere, fromCtx)
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		_, _, err := run("bearer " + issue(t, 123, jwt.TypeAuth))

		require.NoError(t, err)
		assert.Same(t, pere, seen)
	})

	t.Run("user lookup failure is a server error", func(t *testing.T) {
		broken := NewGate(tokens, &stubUsers{err: errors.New("db down")}, nil)
		req := httptest.NewRequest(http.MethodGet, "/my-account", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+issue(t, 123, jwt.TypeAuth))
		c := e.NewContext(req, httptest.NewRecorder())

		err := broken.RequireUser()(successHandler)(c)

		requireAPIError(t, err, http.StatusInternalServerError, apierror.CodeInternal)
	})
}

func TestGate_OptionalUser(t *testing.T) {
	e := echo.New()
	tokens := setupTestTokens(t)
	pere := &user.User{ID: 123, Name: "Pere"}
	gate := NewGate(tokens, &stubUsers{users: map[uint]*user.User{123: pere}}, nil)

	run := func(t *testing.T, header string) (*user.User, error) {
		t.Helper()
		var seen *user.User
		req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		c := e.NewContext(req, httptest.NewRecorder())
		err := gate.OptionalUser()(func(c echo.Context) error {
			seen, _ = CurrentUser(c)
			return nil
		})(c)
		return seen, err
	}

	t.Run("anonymous", func(t *testing.T) {
		seen, err := run(t, "")

		require.NoError(t, err)
		assert.Nil(t, seen)
	})

	t.Run("invalid token treated as anonymous", func(t *testing.T) {
		seen, err := run(t, "Bearer nope")

		require.NoError(t, err)
		assert.Nil(t, seen)
	})

	t.Run("valid token attaches user", func(t *testing.T) {
		token, err := tokens.Issue(123, jwt.TypeAuth)
		require.NoError(t, err)

		seen, err := run(t, "Bearer "+token)

		require.NoError(t, err)
		assert.Same(t, pere, seen)
	})
}

func TestMustCurrentUser(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/my-account", nil), httptest.NewRecorder())

	_, err := MustCurrentUser(c)
	requireAPIError(t, err, http.StatusInternalServerError, apierror.CodeInternal)
	assert.ErrorIs(t, err, ErrNoUser)

	pere := &user.User{ID: 1}
	c.Set(UserKey, pere)
	u, err := MustCurrentUser(c)
	require.NoError(t, err)
	assert.Same(t, pere, u)
}
