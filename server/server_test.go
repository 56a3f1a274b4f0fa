package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/recipemanager/api/apierror"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"github.com/tech-arch1tect/recipemanager/services/metrics"
	"github.com/tech-arch1tect/recipemanager/testutils"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := testutils.GetTestConfig()
	reg := metrics.NewRegistry()
	return New(cfg, logging.NewNop(), metrics.NewCollector(reg), reg)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apierror.Detail {
	t.Helper()

	var body apierror.Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestNew(t *testing.T) {
	t.Run("with logger", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		logger := logging.NewNop()
		s := New(cfg, logger, nil, nil)

		require.NotNil(t, s)
		assert.Same(t, cfg, s.cfg)
		assert.Same(t, logger, s.logger)
		assert.NotNil(t, s.echo)
		assert.True(t, s.echo.HideBanner)
	})

	t.Run("without logger", func(t *testing.T) {
		s := New(testutils.GetTestConfig(), nil, nil, nil)

		require.NotNil(t, s)
		assert.Nil(t, s.logger)

		s.Group("/api").GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestServer_RequestID(t *testing.T) {
	s := newTestServer(t)
	s.Echo().GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	t.Run("generated", func(t *testing.T) {
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/ping", nil))

		_, err := uuid.Parse(rec.Header().Get(echo.HeaderXRequestID))
		assert.NoError(t, err)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(echo.HeaderXRequestID, "abc-123")

		rec := serve(s, req)
		assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))
	})
}

func TestServer_ErrorEnvelope(t *testing.T) {
	s := newTestServer(t)
	s.Echo().GET("/panic", func(c echo.Context) error { panic("kaboom") })
	s.Echo().GET("/recipe", func(c echo.Context) error { return apierror.RecipeNotFound(7) })

	t.Run("panic recovered as 500", func(t *testing.T) {
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/panic", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		detail := decodeError(t, rec)
		assert.Equal(t, apierror.CodeInternal, detail.Code)
		assert.NotContains(t, detail.Message, "kaboom")
	})

	t.Run("api error rendered", func(t *testing.T) {
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/recipe", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apierror.CodeRecipeNotFound, decodeError(t, rec).Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apierror.CodeNotFound, decodeError(t, rec).Code)
	})
}

func TestServer_BodyLimit(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.Server.BodyLimit = "1K"
	s := New(cfg, nil, nil, nil)
	s.Echo().POST("/upload", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	t.Run("within limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"title":"Soup"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

		assert.Equal(t, http.StatusNoContent, serve(s, req).Code)
	})

	t.Run("over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("a", 4096)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

		rec := serve(s, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, apierror.CodeRequestTooLarge, decodeError(t, rec).Code)
	})
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t)
	s.Echo().GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")

		rec := serve(s, req)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlExposeHeaders), echo.HeaderLocation)
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
		req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)

		rec := serve(s, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowHeaders), echo.HeaderAuthorization)
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(echo.HeaderOrigin, "https://evil.example.com")

		rec := serve(s, req)
		assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	})
}

func TestServer_Metrics(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		s := newTestServer(t)
		s.Echo().GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

		serve(s, httptest.NewRequest(http.MethodGet, "/ping", nil))
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `recipemanager_http_requests_total{method="GET",path="/ping",status="200"} 1`)
		assert.NotContains(t, rec.Body.String(), `path="/metrics"`)
	})

	t.Run("disabled", func(t *testing.T) {
		s := New(testutils.GetTestConfig(), nil, nil, metrics.NewRegistry())

		rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestConfigureTrustedProxies(t *testing.T) {
	realIP := func(proxies []string, remoteAddr, forwardedFor string) string {
		e := echo.New()
		configureTrustedProxies(e, proxies, nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remoteAddr
		if forwardedFor != "" {
			req.Header.Set(echo.HeaderXForwardedFor, forwardedFor)
		}
		return e.NewContext(req, httptest.NewRecorder()).RealIP()
	}

	tests := []struct {
		name         string
		proxies      []string
		remoteAddr   string
		forwardedFor string
		want         string
	}{
		{
			name:         "no proxies ignores header",
			remoteAddr:   "203.0.113.9:4000",
			forwardedFor: "198.51.100.1",
			want:         "203.0.113.9",
		},
		{
			name:         "trusted single address",
			proxies:      []string{"203.0.113.9"},
			remoteAddr:   "203.0.113.9:4000",
			forwardedFor: "198.51.100.1",
			want:         "198.51.100.1",
		},
		{
			name:         "trusted cidr",
			proxies:      []string{"10.0.0.0/8"},
			remoteAddr:   "10.1.2.3:4000",
			forwardedFor: "198.51.100.1, 10.9.9.9",
			want:         "198.51.100.1",
		},
		{
			name:         "untrusted peer ignores header",
			proxies:      []string{"10.0.0.0/8"},
			remoteAddr:   "203.0.113.9:4000",
			forwardedFor: "198.51.100.1",
			want:         "203.0.113.9",
		},
		{
			name:         "invalid entries skipped",
			proxies:      []string{"", "not-an-ip"},
			remoteAddr:   "203.0.113.9:4000",
			forwardedFor: "198.51.100.1",
			want:         "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, realIP(tt.proxies, tt.remoteAddr, tt.forwardedFor))
		})
	}
}

func TestServer_StartShutdown(t *testing.T) {
	s := newTestServer(t)
	s.Echo().GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	require.NoError(t, s.Start(context.Background()))
	addr := s.Addr()
	require.NotEmpty(t, addr)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/ping", addr))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	_, err = client.Get(fmt.Sprintf("http://%s/ping", addr))
	assert.Error(t, err)
}

func TestServer_StartAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	cfg := testutils.GetTestConfig()
	cfg.Server.Port = port
	s := New(cfg, nil, nil, nil)

	err = s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
	assert.Empty(t, s.Addr())
}

func TestServer_ShutdownWithoutStart(t *testing.T) {
	s := newTestServer(t)
	assert.NoError(t, s.Shutdown(context.Background()))
}
