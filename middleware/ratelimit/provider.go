package ratelimit

import (
	"context"

	"github.com/tech-arch1tect/recipemanager/config"
	"go.uber.org/fx"
	"golang.org/x/time/rate"
)

var Module = fx.Options(
	fx.Provide(ProvideStore),
)

// ProvideStore converts the per-minute budget into a token bucket rate.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config) *MemoryStore {
	store := NewMemoryStore(
		PerMinute(cfg.RateLimit.RequestsPerMinute),
		cfg.RateLimit.Burst,
		cfg.RateLimit.CleanupInterval,
	)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			store.Stop()
			return nil
		},
	})

	return store
}

func PerMinute(requests int) rate.Limit {
	if requests <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(requests) / 60.0)
}
