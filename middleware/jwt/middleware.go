package jwt

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/recipemanager/api/apierror"
	"github.com/tech-arch1tect/recipemanager/services/jwt"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"github.com/tech-arch1tect/recipemanager/services/user"
	"go.uber.org/zap"
)

const (
	UserKey   = "_auth_user"
	ClaimsKey = "_auth_claims"
)

var ErrNoUser = errors.New("no authenticated user on request")

type TokenParser interface {
	Parse(token string, expected jwt.TokenType) (*jwt.Claims, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*user.User, error)
}

// Gate resolves the user behind an auth token.
type Gate struct {
	tokens TokenParser
	users  UserLoader
	logger *logging.Service
}

func NewGate(tokens TokenParser, users UserLoader, logger *logging.Service) *Gate {
	return &Gate{tokens: tokens, users: users, logger: logger}
}

// RequireUser rejects the request with 401 unless it carries a valid auth
// token for a user that still exists.
func (g *Gate) RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, claims, err := g.authenticate(c)
			if err != nil {
				return err
			}
			attach(c, u, claims)
			return next(c)
		}
	}
}

// OptionalUser attaches the user when the request carries a valid auth token
// and lets every other request through anonymously.
func (g *Gate) OptionalUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}

			u, claims, err := g.authenticate(c)
			if err != nil {
				var apiErr *apierror.Error
				if errors.As(err, &apiErr) && apiErr.Code == apierror.CodeValidAuthTokenRequired {
					return next(c)
				}
				return err
			}
			attach(c, u, claims)
			return next(c)
		}
	}
}

func (g *Gate) authenticate(c echo.Context) (*user.User, *jwt.Claims, error) {
	token, err := jwt.ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		g.logger.Debug("auth header rejected", zap.Error(err))
		return nil, nil, apierror.ValidAuthTokenRequired().WithCause(err)
	}

	claims, err := g.tokens.Parse(token, jwt.TypeAuth)
	if err != nil {
		g.logger.Debug("auth token rejected", zap.Error(err))
		return nil, nil, apierror.ValidAuthTokenRequired().WithCause(err)
	}

	u, err := g.users.GetByID(c.Request().Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			g.logger.Warn("valid auth token for a user that does not exist",
				zap.Uint("user_id", claims.UserID),
				zap.String("jti", claims.ID))
			return nil, nil, apierror.ValidAuthTokenRequired().WithCause(err)
		}
		return nil, nil, apierror.Internal(fmt.Errorf("failed to load authenticated user: %w", err))
	}

	return u, claims, nil
}

func attach(c echo.Context, u *user.User, claims *jwt.Claims) {
	c.Set(UserKey, u)
	c.Set(ClaimsKey, claims)
	c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), u)))
}

// CurrentUser returns the user attached by RequireUser or OptionalUser.
func CurrentUser(c echo.Context) (*user.User, bool) {
	u, ok := c.Get(UserKey).(*user.User)
	return u, ok && u != nil
}

// MustCurrentUser is for handlers mounted behind RequireUser. A missing user
// means the route was wired without the gate and is reported as a 500.
func MustCurrentUser(c echo.Context) (*user.User, error) {
	u, ok := CurrentUser(c)
	if !ok {
		return nil, apierror.Internal(fmt.Errorf("%w: %s %s", ErrNoUser, c.Request().Method, c.Path()))
	}
	return u, nil
}

func GetClaims(c echo.Context) *jwt.Claims {
	if claims, ok := c.Get(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

type contextKey struct{}

func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(contextKey{}).(*user.User)
	return u, ok && u != nil
}
