package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/recipemanager/api/apierror"
	jwtmw "github.com/tech-arch1tect/recipemanager/middleware/jwt"
	"github.com/tech-arch1tect/recipemanager/services/auth"
)

func (h *Handler) register(c echo.Context) error {
	var req registerRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	res, err := h.accounts.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return toAPIError(err, scope{})
	}

	c.Response().Header().Set(echo.HeaderLocation, location(c, fmt.Sprintf("/users/%d", res.User.ID)))
	return c.JSON(http.StatusCreated, authResponse{User: res.User.Private(), AuthToken: res.AuthToken})
}

// login answers both an unknown email and a wrong password with the same
// invalid_login_credentials body.
func (h *Handler) login(c echo.Context) error {
	var req loginRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	client := auth.ClientInfo{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
	res, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password, client)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidPassword) {
			return apierror.InvalidLoginCredentials().WithCause(err)
		}
		return toAPIError(err, scope{})
	}

	return c.JSON(http.StatusOK, authResponse{User: res.User.Private(), AuthToken: res.AuthToken})
}

func (h *Handler) verifyEmail(c echo.Context) error {
	var req tokenRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	if err := h.accounts.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		return toAPIError(err, scope{flow: flowVerifyEmail})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) sendVerificationEmail(c echo.Context) error {
	u, err := jwtmw.MustCurrentUser(c)
	if err != nil {
		return err
	}

	if err := h.accounts.SendVerificationEmail(c.Request().Context(), u); err != nil {
		return toAPIError(err, scope{id: u.ID})
	}
	return c.NoContent(http.StatusNoContent)
}

// sendPasswordResetEmail succeeds for unknown addresses too.
func (h *Handler) sendPasswordResetEmail(c echo.Context) error {
	var req emailRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	if err := h.accounts.SendPasswordResetEmail(c.Request().Context(), req.Email); err != nil {
		return toAPIError(err, scope{})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) resetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	if err := h.accounts.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return toAPIError(err, scope{flow: flowPasswordReset})
	}
	return c.NoContent(http.StatusNoContent)
}
