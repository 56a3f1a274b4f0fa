// Package api serves the JSON HTTP API under /api.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/recipemanager/api/apierror"
	"github.com/tech-arch1tect/recipemanager/services/auth"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"github.com/tech-arch1tect/recipemanager/services/recipe"
	"github.com/tech-arch1tect/recipemanager/services/user"
)

const BasePath = "/api"

type Accounts interface {
	Register(ctx context.Context, name, email, password string) (*auth.Result, error)
	Login(ctx context.Context, email, password string, client auth.ClientInfo) (*auth.Result, error)
	SendVerificationEmail(ctx context.Context, u *user.User) error
	VerifyEmail(ctx context.Context, token string) error
	SendPasswordResetEmail(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	UpdateProfile(ctx context.Context, u *user.User, name string) error
	UpdateEmail(ctx context.Context, u *user.User, password, newEmail string) error
	UpdatePassword(ctx context.Context, u *user.User, currentPassword, newPassword string) error
	DeleteAccount(ctx context.Context, u *user.User, password string) error
}

type Recipes interface {
	List(ctx context.Context) ([]recipe.Recipe, error)
	ListByUser(ctx context.Context, userID uint) ([]recipe.Recipe, error)
	Get(ctx context.Context, id uint) (*recipe.WithOwner, error)
	Create(ctx context.Context, userID uint, title string, cookingTimeMinutes int) (*recipe.Recipe, error)
	Update(ctx context.Context, userID, id uint, patch recipe.Patch) (*recipe.Recipe, error)
	Delete(ctx context.Context, userID, id uint) error
}

type Users interface {
	GetPublic(ctx context.Context, id uint) (user.Public, error)
}

// Gate is the authentication middleware pair.
type Gate interface {
	RequireUser() echo.MiddlewareFunc
	OptionalUser() echo.MiddlewareFunc
}

type Deps struct {
	Accounts Accounts
	Recipes  Recipes
	Users    Users
	Gate     Gate

	// Health reports whether storage is reachable.
	Health func(ctx context.Context) error

	// Limiter guards the credential routes. Nil disables it.
	Limiter echo.MiddlewareFunc

	PasswordMinLength int
	PasswordMaxLength int
	Logger            *logging.Service
}

type Handler struct {
	accounts Accounts
	recipes  Recipes
	users    Users
	gate     Gate
	health   func(ctx context.Context) error
	limiter  echo.MiddlewareFunc
	rules    rules
	logger   *logging.Service
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		accounts: deps.Accounts,
		recipes:  deps.Recipes,
		users:    deps.Users,
		gate:     deps.Gate,
		health:   deps.Health,
		limiter:  deps.Limiter,
		rules: rules{
			passwordMin: deps.PasswordMinLength,
			passwordMax: deps.PasswordMaxLength,
		},
		logger: deps.Logger,
	}
}

type checkable interface {
	check(c *checker)
}

// bind decodes the JSON body into req and runs its checks.
func (h *Handler) bind(c echo.Context, req checkable) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, req); err != nil {
		return apierror.InvalidRequest("The request body is not valid JSON.").WithCause(err)
	}
	ch := newChecker(h.rules)
	req.check(ch)
	return ch.result()
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// location is the absolute URL of path under the API root.
func location(c echo.Context, path string) string {
	return c.Scheme() + "://" + c.Request().Host + BasePath + path
}

func (h *Handler) healthCheck(c echo.Context) error {
	if err := h.health(c.Request().Context()); err != nil {
		return apierror.Internal(err)
	}
	return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}
