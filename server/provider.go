package server

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tech-arch1tect/recipemanager/config"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"github.com/tech-arch1tect/recipemanager/services/metrics"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(ProvideServer),
	fx.Invoke(registerLifecycle),
)

func ProvideServer(cfg *config.Config, logger *logging.Service, collector *metrics.Collector, reg *prometheus.Registry) *Server {
	return New(cfg, logger.Named("http"), collector, reg)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return srv.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
