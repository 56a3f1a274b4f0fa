package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/recipemanager/config"
	"github.com/tech-arch1tect/recipemanager/services/auth"
	"github.com/tech-arch1tect/recipemanager/testutils"
	"go.uber.org/fx"
)

func TestNewApp(t *testing.T) {
	builder := NewApp()

	assert.NotNil(t, builder)
	assert.Nil(t, builder.config)
	assert.Empty(t, builder.fxOptions)
	assert.Empty(t, builder.errors)
}

func TestAppBuilder_WithConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		builder := NewApp()

		result := builder.WithConfig(cfg)

		assert.Same(t, builder, result)
		assert.Same(t, cfg, builder.config)
	})

	t.Run("nil config", func(t *testing.T) {
		builder := NewApp()

		result := builder.WithConfig(nil)

		assert.Same(t, builder, result)
		assert.Nil(t, builder.config)
		require.Len(t, builder.errors, 1)
		assert.Contains(t, builder.errors[0].Error(), "config cannot be nil")
	})
}

func TestAppBuilder_WithAutoConfig(t *testing.T) {
	t.Run("from environment", func(t *testing.T) {
		t.Setenv("TOKEN_SECRET", testutils.TestTokenSecret)
		t.Setenv("APP_NAME", "Recipes Test")

		builder := NewApp().WithAutoConfig()

		assert.Empty(t, builder.errors)
		require.NotNil(t, builder.config)
		assert.Equal(t, "Recipes Test", builder.config.App.Name)
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("TOKEN_SECRET", "")

		builder := NewApp().WithAutoConfig()

		assert.Nil(t, builder.config)
		require.Len(t, builder.errors, 1)
		assert.Contains(t, builder.errors[0].Error(), "failed to load config")
	})
}

func TestAppBuilder_WithFxOptions(t *testing.T) {
	builder := NewApp()

	result := builder.WithFxOptions(fx.Invoke(func() {}), fx.Invoke(func() {}))

	assert.Same(t, builder, result)
	assert.Len(t, builder.fxOptions, 2)
}

func TestAppBuilder_validate(t *testing.T) {
	t.Run("accumulated errors", func(t *testing.T) {
		builder := NewApp().WithConfig(nil)

		err := builder.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration errors")
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.Token.Secret = "short"

		err := NewApp().WithConfig(cfg).validate()
		assert.ErrorIs(t, err, config.ErrTokenSecretTooShort)
	})

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, NewApp().WithConfig(testutils.GetTestConfig()).validate())
	})
}

func TestAppBuilder_Build(t *testing.T) {
	t.Run("wires the graph", func(t *testing.T) {
		var accounts *auth.Service

		a, err := NewApp().
			WithConfig(testutils.GetTestConfig()).
			WithFxOptions(fx.Populate(&accounts)).
			Build()

		require.NoError(t, err)
		require.NotNil(t, a)
		assert.NotNil(t, a.fx)
		assert.NotNil(t, a.DB())
		assert.NotNil(t, a.Logger())
		assert.NotNil(t, a.Echo())
		assert.NotNil(t, accounts)
		assert.True(t, a.DB().Migrator().HasTable("users"))
		assert.True(t, a.DB().Migrator().HasTable("recipes"))
	})

	t.Run("builder errors", func(t *testing.T) {
		a, err := NewApp().WithConfig(nil).Build()

		assert.Nil(t, a)
		assert.Error(t, err)
	})

	t.Run("unsupported database driver", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.Database.Driver = "oracle"

		a, err := NewApp().WithConfig(cfg).Build()

		assert.Nil(t, a)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})

	t.Run("missing dependency from extra options", func(t *testing.T) {
		type missing struct{}

		a, err := NewApp().
			WithConfig(testutils.GetTestConfig()).
			WithFxOptions(fx.Invoke(func(*missing) {})).
			Build()

		assert.Nil(t, a)
		assert.Error(t, err)
	})
}

func TestAppBuilder_addError(t *testing.T) {
	builder := NewApp()

	builder.addError("first")
	builder.addError("second")

	require.Len(t, builder.errors, 2)
	assert.EqualError(t, builder.errors[1], "second")
}
