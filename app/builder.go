package app

import (
	"errors"
	"fmt"

	"github.com/tech-arch1tect/recipemanager/api"
	"github.com/tech-arch1tect/recipemanager/config"
	"github.com/tech-arch1tect/recipemanager/database"
	jwtmw "github.com/tech-arch1tect/recipemanager/middleware/jwt"
	"github.com/tech-arch1tect/recipemanager/middleware/ratelimit"
	"github.com/tech-arch1tect/recipemanager/server"
	"github.com/tech-arch1tect/recipemanager/services/auth"
	"github.com/tech-arch1tect/recipemanager/services/jwt"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"github.com/tech-arch1tect/recipemanager/services/mail"
	"github.com/tech-arch1tect/recipemanager/services/metrics"
	"github.com/tech-arch1tect/recipemanager/services/password"
	"github.com/tech-arch1tect/recipemanager/services/recipe"
	"github.com/tech-arch1tect/recipemanager/services/user"
	"go.uber.org/fx"
)

// Models are migrated on start when DB_AUTO_MIGRATE is set.
var Models = []any{&user.User{}, &recipe.Recipe{}}

type AppBuilder struct {
	config    *config.Config
	fxOptions []fx.Option
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		fxOptions: make([]fx.Option, 0),
		errors:    make([]error, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.addError("config cannot be nil")
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.addError(fmt.Sprintf("failed to load config: %v", err))
		return b
	}
	b.config = cfg
	return b
}

// WithFxOptions adds options to the graph, typically fx.Invoke or fx.Decorate
// calls from tests.
func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	if b.config == nil {
		if err := b.WithAutoConfig().validate(); err != nil {
			return nil, err
		}
	}

	a := &App{config: b.config}

	options := b.buildFxOptions()
	options = append(options, fx.Populate(&a.logger, &a.db, &a.server))

	a.fx = fx.New(options...)
	if err := a.fx.Err(); err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}

	return a, nil
}

func (b *AppBuilder) addError(msg string) {
	b.errors = append(b.errors, errors.New(msg))
}

func (b *AppBuilder) validate() error {
	if len(b.errors) > 0 {
		return fmt.Errorf("configuration errors: %w", errors.Join(b.errors...))
	}

	if b.config != nil {
		if err := b.config.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	return nil
}

func (b *AppBuilder) buildFxOptions() []fx.Option {
	options := []fx.Option{
		config.NewProvider(b.config),
		fx.Supply(database.WithModels(Models...)),
		fx.NopLogger,

		logging.Module,
		metrics.Module,
		database.Module,
		fx.Provide(jwt.ProvideService),
		fx.Provide(password.ProvideHasher),
		user.Module,
		recipe.Module,
		mail.Module,
		auth.Module,
		jwtmw.Module,
		ratelimit.Module,
		server.Module,
		api.Module,
	}

	return append(options, b.fxOptions...)
}
