package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	MinTokenSecretLength = 32

	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

var (
	ErrTokenSecretTooShort  = fmt.Errorf("TOKEN_SECRET must be at least %d bytes", MinTokenSecretLength)
	ErrUnknownMailDriver    = errors.New("unknown MAIL_DRIVER (supported: smtp, log, memory)")
	ErrInvalidPasswordRange = fmt.Errorf("AUTH_PASSWORD_MIN_LENGTH and AUTH_PASSWORD_MAX_LENGTH must satisfy 1 <= min <= max <= %d", MaxPasswordBytes)
	ErrInvalidRateLimit     = errors.New("RATE_LIMIT_BURST and RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
)

type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Server    ServerConfig    `envPrefix:"SERVER_"`
	Log       LogConfig       `envPrefix:"LOG_"`
	Database  DatabaseConfig  `envPrefix:"DB_"`
	Token     TokenConfig     `envPrefix:"TOKEN_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	Mail      MailConfig      `envPrefix:"MAIL_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Metrics   MetricsConfig   `envPrefix:"METRICS_"`
}

type AppConfig struct {
	Name      string `env:"NAME" envDefault:"Recipe Manager"`
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`
	Env       string `env:"ENV" envDefault:"development"`
}

type ServerConfig struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	Host           string        `env:"HOST" envDefault:"localhost"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	BodyLimit      string        `env:"BODY_LIMIT" envDefault:"1M"`
	CORSOrigins    []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	TrustedProxies []string      `env:"TRUSTED_PROXIES" envSeparator:","`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"recipemanager.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type TokenConfig struct {
	Secret   string        `env:"SECRET"`
	Issuer   string        `env:"ISSUER" envDefault:"recipemanager"`
	Validity time.Duration `env:"VALIDITY" envDefault:"1h"`
}

type AuthConfig struct {
	BcryptCost        int `env:"BCRYPT_COST" envDefault:"15"`
	PasswordMinLength int `env:"PASSWORD_MIN_LENGTH" envDefault:"6"`
	PasswordMaxLength int `env:"PASSWORD_MAX_LENGTH" envDefault:"60"`
}

type MailConfig struct {
	Driver         string        `env:"DRIVER" envDefault:"log"`
	Host           string        `env:"HOST" envDefault:"localhost"`
	Port           int           `env:"PORT" envDefault:"587"`
	Username       string        `env:"USERNAME"`
	Password       string        `env:"PASSWORD"`
	Encryption     string        `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress    string        `env:"FROM_ADDRESS" envDefault:"donotreply@recipemanager.com"`
	FromName       string        `env:"FROM_NAME" envDefault:"Recipe Manager"`
	SupportAddress string        `env:"SUPPORT_ADDRESS" envDefault:"hello@recipemanager.com"`
	SendTimeout    time.Duration `env:"SEND_TIMEOUT" envDefault:"30s"`
}

type RateLimitConfig struct {
	Enabled           bool          `env:"ENABLED" envDefault:"true"`
	RequestsPerMinute int           `env:"REQUESTS_PER_MINUTE" envDefault:"10"`
	Burst             int           `env:"BURST" envDefault:"5"`
	CleanupInterval   time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`
}

type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`
}

func LoadConfig(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg.Validate()
}

func (c *Config) Validate() error {
	if len(c.Token.Secret) < MinTokenSecretLength {
		return ErrTokenSecretTooShort
	}

	switch c.Mail.Driver {
	case "smtp", "log", "memory":
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMailDriver, c.Mail.Driver)
	}

	if c.Token.Validity <= 0 {
		return errors.New("TOKEN_VALIDITY must be positive")
	}

	if c.Auth.PasswordMinLength < 1 || c.Auth.PasswordMinLength > c.Auth.PasswordMaxLength ||
		c.Auth.PasswordMaxLength > MaxPasswordBytes {
		return fmt.Errorf("%w: got %d..%d", ErrInvalidPasswordRange, c.Auth.PasswordMinLength, c.Auth.PasswordMaxLength)
	}

	if c.RateLimit.Enabled && (c.RateLimit.Burst <= 0 || c.RateLimit.RequestsPerMinute <= 0) {
		return fmt.Errorf("%w: burst %d, requests per minute %d", ErrInvalidRateLimit, c.RateLimit.Burst, c.RateLimit.RequestsPerMinute)
	}

	return nil
}
