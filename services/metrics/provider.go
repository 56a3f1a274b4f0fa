package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tech-arch1tect/recipemanager/config"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewRegistry),
	fx.Provide(ProvideCollector),
)

// NewRegistry returns a private registry carrying the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideCollector returns nil when metrics are disabled.
func ProvideCollector(cfg *config.Config, reg *prometheus.Registry) *Collector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return NewCollector(reg)
}
