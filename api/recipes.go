package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/recipemanager/api/apierror"
	jwtmw "github.com/tech-arch1tect/recipemanager/middleware/jwt"
)

func (h *Handler) getUser(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return apierror.UserNotFound(c.Param("id"))
	}

	pub, err := h.users.GetPublic(c.Request().Context(), id)
	if err != nil {
		return toAPIError(err, scope{id: id})
	}
	return c.JSON(http.StatusOK, publicUserResponse{User: pub})
}

func (h *Handler) listUserRecipes(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return apierror.UserNotFound(c.Param("id"))
	}

	ctx := c.Request().Context()
	if _, err := h.users.GetPublic(ctx, id); err != nil {
		return toAPIError(err, scope{id: id})
	}

	recipes, err := h.recipes.ListByUser(ctx, id)
	if err != nil {
		return toAPIError(err, scope{id: id})
	}

	viewer, _ := jwtmw.CurrentUser(c)
	return c.JSON(http.StatusOK, recipesResponse{Recipes: toRecipesJSON(recipes, viewer)})
}

func (h *Handler) listRecipes(c echo.Context) error {
	recipes, err := h.recipes.List(c.Request().Context())
	if err != nil {
		return toAPIError(err, scope{})
	}

	viewer, _ := jwtmw.CurrentUser(c)
	return c.JSON(http.StatusOK, recipesResponse{Recipes: toRecipesJSON(recipes, viewer)})
}

func (h *Handler) getRecipe(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return apierror.RecipeNotFound(c.Param("id"))
	}

	r, err := h.recipes.Get(c.Request().Context(), id)
	if err != nil {
		return toAPIError(err, scope{id: id})
	}

	viewer, _ := jwtmw.CurrentUser(c)
	out := toRecipeJSON(r.Recipe, viewer)
	out.User = &r.Owner
	return c.JSON(http.StatusOK, recipeResponse{Recipe: out})
}

func (h *Handler) createRecipe(c echo.Context) error {
	u, err := jwtmw.MustCurrentUser(c)
	if err != nil {
		return err
	}

	var req createRecipeRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	r, err := h.recipes.Create(c.Request().Context(), u.ID, req.Title, req.CookingTimeMinutes)
	if err != nil {
		return toAPIError(err, scope{})
	}

	c.Response().Header().Set(echo.HeaderLocation, location(c, fmt.Sprintf("/recipes/%d", r.ID)))
	return c.JSON(http.StatusCreated, createdResponse{ID: r.ID})
}

func (h *Handler) updateRecipe(c echo.Context) error {
	u, err := jwtmw.MustCurrentUser(c)
	if err != nil {
		return err
	}

	id, ok := parseID(c, "id")
	if !ok {
		return apierror.RecipeNotFound(c.Param("id"))
	}

	var req updateRecipeRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	r, err := h.recipes.Update(c.Request().Context(), u.ID, id, req.patch())
	if err != nil {
		return toAPIError(err, scope{id: id})
	}
	return c.JSON(http.StatusOK, recipeResponse{Recipe: toRecipeJSON(*r, u)})
}

// deleteRecipe answers 204 for ids that name no recipe, malformed ones
// included.
func (h *Handler) deleteRecipe(c echo.Context) error {
	u, err := jwtmw.MustCurrentUser(c)
	if err != nil {
		return err
	}

	id, ok := parseID(c, "id")
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}

	if err := h.recipes.Delete(c.Request().Context(), u.ID, id); err != nil {
		return toAPIError(err, scope{id: id})
	}
	return c.NoContent(http.StatusNoContent)
}
