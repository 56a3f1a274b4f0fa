package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	jwtmw "github.com/tech-arch1tect/recipemanager/middleware/jwt"
)

func (h *Handler) myAccount(c echo.Context) error {
	u, err := jwtmw.MustCurrentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{User: u.Private()})
}

func (h *Handler) updateProfile(c echo.Context) error {
	u, err := jwtmw.MustCurrentUser(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	if err := h.accounts.UpdateProfile(c.Request().Context(), u, req.Name); err != nil {
		return toAPIError(err, scope{id: u.ID})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) updateEmail(c echo.Context) error {
	u, err := jwtmw.MustCurrentUser(c)
	if err != nil {
		return err
	}

	var req changeEmailRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	if err := h.accounts.UpdateEmail(c.Request().Context(), u, req.Password, req.NewEmail); err != nil {
		return toAPIError(err, scope{id: u.ID})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) updatePassword(c echo.Context) error {
	u, err := jwtmw.MustCurrentUser(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	if err := h.accounts.UpdatePassword(c.Request().Context(), u, req.CurrentPassword, req.NewPassword); err != nil {
		return toAPIError(err, scope{id: u.ID})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) deleteAccount(c echo.Context) error {
	u, err := jwtmw.MustCurrentUser(c)
	if err != nil {
		return err
	}

	var req passwordRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	if err := h.accounts.DeleteAccount(c.Request().Context(), u, req.Password); err != nil {
		return toAPIError(err, scope{id: u.ID})
	}
	return c.NoContent(http.StatusNoContent)
}
