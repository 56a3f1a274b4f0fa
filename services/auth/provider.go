package auth

import (
	"context"

	"github.com/tech-arch1tect/recipemanager/config"
	"github.com/tech-arch1tect/recipemanager/services/jwt"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"github.com/tech-arch1tect/recipemanager/services/mail"
	"github.com/tech-arch1tect/recipemanager/services/metrics"
	"github.com/tech-arch1tect/recipemanager/services/password"
	"github.com/tech-arch1tect/recipemanager/services/user"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(ProvideService),
	fx.Invoke(registerShutdown),
)

func ProvideService(cfg *config.Config, users *user.Store, hasher *password.Hasher, tokens *jwt.Service, mailer *mail.Mailer, logger *logging.Service, collector *metrics.Collector) *Service {
	return NewService(users, hasher, tokens, mailer, Config{
		ClientURL:   cfg.App.ClientURL,
		SendTimeout: cfg.Mail.SendTimeout,
	}, logger.Named("auth"), collector)
}

func registerShutdown(lc fx.Lifecycle, service *Service) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return service.Shutdown(ctx)
		},
	})
}
