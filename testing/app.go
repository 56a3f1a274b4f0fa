// Package e2etesting runs the whole application on a loopback port for
// end-to-end tests and talks to it over HTTP.
package e2etesting

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/recipemanager/api"
	"github.com/tech-arch1tect/recipemanager/app"
	"github.com/tech-arch1tect/recipemanager/config"
	"github.com/tech-arch1tect/recipemanager/services/auth"
	"github.com/tech-arch1tect/recipemanager/services/mail"
	"github.com/tech-arch1tect/recipemanager/testutils"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type TestConfig struct {
	OverrideConfig   func(*config.Config)
	EnableCoverage   bool
	ExcludePaths     []string
	ReadinessTimeout time.Duration
}

type E2EApp struct {
	App             *app.App
	BaseURL         string
	Config          *config.Config
	DB              *gorm.DB
	Mail            *mail.MemorySender
	AuthSvc         *auth.Service
	CoverageTracker *CoverageTracker

	readinessTimeout time.Duration
}

// BuildTestApp builds the application on the test configuration: sqlite in
// memory, port 0 and the memory mail driver.
func BuildTestApp(testConfig *TestConfig) (*E2EApp, error) {
	if testConfig == nil {
		testConfig = &TestConfig{}
	}

	cfg := testutils.GetTestConfig()
	if testConfig.OverrideConfig != nil {
		testConfig.OverrideConfig(cfg)
	}

	e2eApp := &E2EApp{
		Config:           cfg,
		readinessTimeout: testConfig.ReadinessTimeout,
	}
	if e2eApp.readinessTimeout == 0 {
		e2eApp.readinessTimeout = 5 * time.Second
	}

	var sender mail.Sender
	builtApp, err := app.NewApp().
		WithConfig(cfg).
		WithFxOptions(fx.Populate(&e2eApp.DB, &e2eApp.AuthSvc, &sender)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build test app: %w", err)
	}
	e2eApp.App = builtApp

	if memory, ok := sender.(*mail.MemorySender); ok {
		e2eApp.Mail = memory
	}

	if testConfig.EnableCoverage {
		e2eApp.CoverageTracker = NewCoverageTracker(api.BasePath, testConfig.ExcludePaths...)
		builtApp.Echo().Use(e2eApp.CoverageTracker.TrackingMiddleware())
		e2eApp.CoverageTracker.RegisterRoutes(builtApp.Echo())
	}

	return e2eApp, nil
}

// Start runs the application and waits until its listener accepts
// connections.
func (e *E2EApp) Start(ctx context.Context) error {
	if e.App == nil {
		return fmt.Errorf("application not built - call BuildTestApp first")
	}

	if err := e.App.Start(ctx); err != nil {
		return fmt.Errorf("failed to start test app: %w", err)
	}

	if err := e.waitForListener(); err != nil {
		return fmt.Errorf("server failed to become ready: %w", err)
	}

	e.BaseURL = fmt.Sprintf("http://%s%s", e.App.Addr(), api.BasePath)
	return nil
}

func (e *E2EApp) waitForListener() error {
	deadline := time.After(e.readinessTimeout)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		if addr := e.App.Addr(); addr != "" {
			conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
			if err == nil {
				conn.Close()
				return nil
			}
		}
		select {
		case <-ticker.C:
		case <-deadline:
			return fmt.Errorf("timeout after %s waiting for HTTP listener", e.readinessTimeout)
		}
	}
}

func (e *E2EApp) Stop(ctx context.Context) error {
	if e.App == nil {
		return nil
	}
	e.WaitForMail()
	return e.App.Stop(ctx)
}

// Client returns an anonymous client for the running application.
func (e *E2EApp) Client() *HTTPClient {
	return NewHTTPClient(e.BaseURL)
}

// WaitForMail blocks until background emails have been handed to the sender.
func (e *E2EApp) WaitForMail() {
	if e.AuthSvc != nil {
		e.AuthSvc.Wait()
	}
}

// StartTestApp builds and starts the application and stops it when t ends.
func StartTestApp(t *testing.T, testConfig *TestConfig) *E2EApp {
	t.Helper()

	e2eApp, err := BuildTestApp(testConfig)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), e2eApp.readinessTimeout)
	defer cancel()
	require.NoError(t, e2eApp.Start(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, e2eApp.Stop(ctx))
	})

	return e2eApp
}
