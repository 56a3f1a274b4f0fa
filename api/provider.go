package api

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/recipemanager/config"
	"github.com/tech-arch1tect/recipemanager/database"
	jwtmw "github.com/tech-arch1tect/recipemanager/middleware/jwt"
	"github.com/tech-arch1tect/recipemanager/middleware/ratelimit"
	"github.com/tech-arch1tect/recipemanager/openapi"
	"github.com/tech-arch1tect/recipemanager/server"
	"github.com/tech-arch1tect/recipemanager/services/auth"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"github.com/tech-arch1tect/recipemanager/services/recipe"
	"github.com/tech-arch1tect/recipemanager/services/user"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Version is reported in the OpenAPI document.
var Version = "1.0.0"

var Module = fx.Options(
	fx.Provide(ProvideHandler),
	fx.Provide(ProvideDocument),
	fx.Invoke(mount),
)

func ProvideHandler(
	cfg *config.Config,
	accounts *auth.Service,
	recipes *recipe.Service,
	users *user.Service,
	gate *jwtmw.Gate,
	store *ratelimit.MemoryStore,
	db *gorm.DB,
	logger *logging.Service,
) *Handler {
	logger = logger.Named("api")

	var limiter echo.MiddlewareFunc
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.Middleware(ratelimit.Config{
			Store:        store,
			Limit:        cfg.RateLimit.RequestsPerMinute,
			KeyGenerator: ratelimit.RouteKeyGenerator,
			Logger:       logger,
		})
	}

	return NewHandler(Deps{
		Accounts: accounts,
		Recipes:  recipes,
		Users:    users,
		Gate:     gate,
		Health: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
		Limiter:           limiter,
		PasswordMinLength: cfg.Auth.PasswordMinLength,
		PasswordMaxLength: cfg.Auth.PasswordMaxLength,
		Logger:            logger,
	})
}

func ProvideDocument(cfg *config.Config) *openapi.Document {
	return NewDocument(cfg.App.Name, Version)
}

func mount(lc fx.Lifecycle, h *Handler, srv *server.Server, doc *openapi.Document) {
	h.Register(srv.Echo(), doc)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return validateDocument(ctx, doc, h.logger)
		},
	})
}

// validateDocument refuses to start with a document that clients could not
// consume.
func validateDocument(ctx context.Context, doc *openapi.Document, logger *logging.Service) error {
	if err := doc.Validate(ctx); err != nil {
		logger.Error("openapi document is invalid", zap.Error(err))
		return fmt.Errorf("invalid openapi document: %w", err)
	}
	return nil
}
