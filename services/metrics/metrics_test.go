package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/recipemanager/api/apierror"
	"github.com/tech-arch1tect/recipemanager/config"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRegistration("success")
	c.RecordRegistration("success")
	c.RecordRegistration("duplicate_email")
	c.RecordLogin("invalid_credentials")
	c.RecordTokenIssued("auth")
	c.RecordMail("verify-email", "sent")
	c.RecordRecipeMutation("delete", "forbidden")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.registrations.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.registrations.WithLabelValues("duplicate_email")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.logins.WithLabelValues("invalid_credentials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tokensIssued.WithLabelValues("auth")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.mailsSent.WithLabelValues("verify-email", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.recipeMutations.WithLabelValues("delete", "forbidden")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordRegistration("success")
		c.RecordLogin("success")
		c.RecordTokenIssued("auth")
		c.RecordMail("password-reset", "failed")
		c.RecordRecipeMutation("create", "success")
		c.RecordHTTPRequest(http.MethodGet, "/api/recipes", http.StatusOK, time.Millisecond)
	})

	e := echo.New()
	e.Use(c.Middleware())
	e.GET("/ok", func(ctx echo.Context) error { return ctx.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCollector_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	e := echo.New()
	e.Use(c.Middleware("/health"))
	e.GET("/api/recipes/:id", func(ctx echo.Context) error { return ctx.NoContent(http.StatusOK) })
	e.GET("/api/fail", func(ctx echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden)
	})
	e.GET("/api/boom", func(ctx echo.Context) error { return errors.New("boom") })
	e.GET("/api/missing", func(ctx echo.Context) error { return apierror.RecipeNotFound(9) })
	e.GET("/health", func(ctx echo.Context) error { return ctx.NoContent(http.StatusOK) })

	for _, path := range []string{"/api/recipes/1", "/api/recipes/2", "/api/fail", "/api/boom", "/api/missing", "/health"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	t.Run("route template used as path label", func(t *testing.T) {
		assert.Equal(t, 2.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/api/recipes/:id", "200")))
	})

	t.Run("http error status recorded", func(t *testing.T) {
		assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/api/fail", "403")))
	})

	t.Run("plain error recorded as 500", func(t *testing.T) {
		assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/api/boom", "500")))
	})

	t.Run("api error status recorded", func(t *testing.T) {
		assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/api/missing", "404")))
	})

	t.Run("skipped path not recorded", func(t *testing.T) {
		assert.Equal(t, 4, testutil.CollectAndCount(c.httpRequests))
	})
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := NewRegistry()
	c := NewCollector(reg)
	c.RecordLogin("success")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := rec.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "recipemanager_logins_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestProvideCollector(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		cfg := &config.Config{Metrics: config.MetricsConfig{Enabled: true}}
		assert.NotNil(t, ProvideCollector(cfg, prometheus.NewRegistry()))
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := &config.Config{Metrics: config.MetricsConfig{Enabled: false}}
		assert.Nil(t, ProvideCollector(cfg, prometheus.NewRegistry()))
	})
}
