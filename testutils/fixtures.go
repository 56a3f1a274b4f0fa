package testutils

import (
	"time"

	"github.com/tech-arch1tect/recipemanager/config"
	"golang.org/x/crypto/bcrypt"
)

const TestTokenSecret = "test-secret-key-32-chars-long!!!"

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:      "Recipe Manager",
			ClientURL: "http://localhost:3000",
			Env:       "test",
		},
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         "0",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			BodyLimit:    "1M",
			CORSOrigins:  []string{"http://localhost:3000"},
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "json",
			Output: "stdout",
		},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		Token: config.TokenConfig{
			Secret:   TestTokenSecret,
			Issuer:   "test-issuer",
			Validity: time.Hour,
		},
		Auth: config.AuthConfig{
			BcryptCost:        bcrypt.MinCost,
			PasswordMinLength: 6,
			PasswordMaxLength: 60,
		},
		Mail: config.MailConfig{
			Driver:         "memory",
			Host:           "localhost",
			Port:           587,
			Encryption:     "none",
			FromAddress:    "donotreply@recipemanager.com",
			FromName:       "Recipe Manager",
			SupportAddress: "hello@recipemanager.com",
			SendTimeout:    5 * time.Second,
		},
		RateLimit: config.RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 10,
			Burst:             5,
			CleanupInterval:   time.Minute,
		},
		Metrics: config.MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

var TestUsers = struct {
	Name     string
	Email    string
	Password string
}{
	Name:     "Pere",
	Email:    "a@b.com",
	Password: "secret1",
}
