package ratelimit

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/recipemanager/api/apierror"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"go.uber.org/zap"
)

type Config struct {
	Store          Store
	Limit          int
	KeyGenerator   func(c echo.Context) string
	OnLimitReached func(c echo.Context) error
	Logger         *logging.Service
}

// Middleware admits a request when the bucket for its key has a token and
// answers 429 with Retry-After otherwise.
func Middleware(cfg Config) echo.MiddlewareFunc {
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = DefaultKeyGenerator
	}

	if cfg.OnLimitReached == nil {
		cfg.OnLimitReached = DefaultOnLimitReached
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.KeyGenerator(c)
			limiter := cfg.Store.Limiter(key)

			now := time.Now()
			reservation := limiter.ReserveN(now, 1)
			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))

			if delay := reservation.DelayFrom(now); !reservation.OK() || delay > 0 {
				reservation.CancelAt(now)

				retryAfter := int(math.Ceil(delay.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				header.Set("X-RateLimit-Remaining", "0")
				header.Set(echo.HeaderRetryAfter, strconv.Itoa(retryAfter))

				cfg.Logger.Warn("rate limit exceeded",
					zap.String("key", key),
					zap.String("path", c.Path()))
				return cfg.OnLimitReached(c)
			}

			remaining := int(math.Floor(limiter.TokensAt(now)))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))

			return next(c)
		}
	}
}

func DefaultKeyGenerator(c echo.Context) string {
	realIP := c.RealIP()

	if realIP == "" || realIP == "unknown" {
		realIP = "fallback"
	}

	return "rate_limit:" + realIP
}

// RouteKeyGenerator limits each client separately per route.
func RouteKeyGenerator(c echo.Context) string {
	return fmt.Sprintf("%s:%s %s", DefaultKeyGenerator(c), c.Request().Method, c.Path())
}

func DefaultOnLimitReached(c echo.Context) error {
	return apierror.TooManyRequests()
}
