package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tech-arch1tect/recipemanager/api/apierror"
	"github.com/tech-arch1tect/recipemanager/config"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"github.com/tech-arch1tect/recipemanager/services/metrics"
	"go.uber.org/zap"
)

type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	logger *logging.Service
	done   chan error
}

// New builds the echo instance with the middleware every route shares.
// collector may be nil when metrics are disabled.
func New(cfg *config.Config, logger *logging.Service, collector *metrics.Collector, gatherer prometheus.Gatherer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apierror.NewHTTPErrorHandler(logger)

	configureTrustedProxies(e, cfg.Server.TrustedProxies, logger)

	skip := []string{"/api/health", cfg.Metrics.Path}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(logging.RequestLogger(logger, skip...))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered",
				zap.Error(err),
				zap.String("uri", c.Request().RequestURI),
				zap.ByteString("stack", stack))
			return err
		},
	}))
	if collector != nil {
		e.Use(collector.Middleware(skip...))
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
		ExposeHeaders: []string{
			echo.HeaderLocation,
			echo.HeaderRetryAfter,
			echo.HeaderXRequestID,
		},
	}))
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if collector != nil && gatherer != nil {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(metrics.Handler(gatherer)))
	}

	return &Server{
		echo:   e,
		cfg:    cfg,
		logger: logger,
	}
}

// Start binds the listen address and serves in the background. A bind
// failure is returned rather than logged.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.echo.Listener = ln

	s.echo.Server.ReadTimeout = s.cfg.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.cfg.Server.WriteTimeout

	s.done = make(chan error, 1)
	go func() {
		err := s.echo.Start(addr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			s.logger.Error("server stopped unexpectedly", zap.Error(err))
		}
		s.done <- err
	}()

	s.logger.Info("server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	if s.done == nil {
		return nil
	}
	select {
	case err := <-s.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr is the bound address once Start has returned, for tests that listen
// on port 0.
func (s *Server) Addr() string {
	if s.echo.Listener == nil {
		return ""
	}
	return s.echo.Listener.Addr().String()
}

func (s *Server) Group(prefix string, m ...echo.MiddlewareFunc) *echo.Group {
	return s.echo.Group(prefix, m...)
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// configureTrustedProxies makes RealIP honour X-Forwarded-For only from the
// given addresses or CIDR ranges. Without any, the peer address is used.
func configureTrustedProxies(e *echo.Echo, proxies []string, logger *logging.Service) {
	var options []echo.TrustOption
	for _, proxy := range proxies {
		if proxy == "" {
			continue
		}

		if _, ipNet, err := net.ParseCIDR(proxy); err == nil {
			options = append(options, echo.TrustIPRange(ipNet))
			continue
		}

		if ip := net.ParseIP(proxy); ip != nil {
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			options = append(options, echo.TrustIPRange(&net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}))
			continue
		}

		logger.Warn("ignoring invalid trusted proxy", zap.String("proxy", proxy))
	}

	if len(options) == 0 {
		e.IPExtractor = echo.ExtractIPDirect()
		return
	}

	options = append(options,
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	)
	e.IPExtractor = echo.ExtractIPFromXFFHeader(options...)
}
