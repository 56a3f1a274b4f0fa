package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/recipemanager/api/apierror"
	"github.com/tech-arch1tect/recipemanager/openapi"
	"github.com/tech-arch1tect/recipemanager/services/user"
)

const (
	bearerScheme = "bearer"

	tagAuth    = "auth"
	tagAccount = "my-account"
	tagUsers   = "users"
	tagRecipes = "recipes"
	tagSystem  = "system"
)

// router registers a route on echo and returns its documentation entry.
type router struct {
	group *echo.Group
	doc   *openapi.Document
}

func (r router) add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *openapi.Operation {
	r.group.Add(method, path, handler, middleware...)
	return r.doc.Operation(method, path)
}

// NewDocument describes the API root. Routes are added by Register.
func NewDocument(title, version string) *openapi.Document {
	return openapi.New(title, version).
		Description("Accounts and recipes. Errors share one envelope: {\"error\": {\"code\", \"message\"}}.").
		Server(BasePath, "API root").
		Tag(tagAuth, "Registration, login, email verification and password reset").
		Tag(tagAccount, "The authenticated user's own account").
		Tag(tagUsers, "Public user profiles").
		Tag(tagRecipes, "Recipes").
		Tag(tagSystem, "Service status and documentation").
		BearerAuth(bearerScheme, "Auth token returned by register and login").
		ErrorSchema("Error", apierror.Body{}).
		Schema("PrivateUser", user.Private{}).
		Schema("PublicUser", user.Public{}).
		Schema("Recipe", recipeJSON{})
}

// Register mounts every API route under BasePath on e and documents it in doc.
func (h *Handler) Register(e *echo.Echo, doc *openapi.Document) {
	r := router{group: e.Group(BasePath), doc: doc}

	required := h.gate.RequireUser()
	optional := h.gate.OptionalUser()

	limited := func(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
		if h.limiter == nil {
			return mw
		}
		return append([]echo.MiddlewareFunc{h.limiter}, mw...)
	}

	r.add(http.MethodPost, "/auth/register", h.register, limited()...).
		Summary("Create an account").ID("register").Tags(tagAuth).
		Body(registerRequest{}, "Account details").
		Response(http.StatusCreated, authResponse{}, "Account created; the user is logged in").
		ResponseHeader(http.StatusCreated, echo.HeaderLocation, "URL of the new user").
		Build()

	r.add(http.MethodPost, "/auth/login", h.login, limited()...).
		Summary("Log in").ID("login").Tags(tagAuth).
		Description("Wrong credentials are answered with 200 and the invalid_login_credentials error body.").
		Body(loginRequest{}, "Credentials").
		Response(http.StatusOK, authResponse{}, "Logged in, or an invalid_login_credentials error").
		Build()

	r.add(http.MethodPost, "/auth/email-verification", h.verifyEmail, limited()...).
		Summary("Verify an email address").ID("verifyEmail").Tags(tagAuth).
		Body(tokenRequest{}, "Token from the verification email").
		Response(http.StatusNoContent, nil, "Verified").
		Build()

	r.add(http.MethodPost, "/auth/email-verification/send", h.sendVerificationEmail, limited(required)...).
		Summary("Send the verification email again").ID("sendVerificationEmail").Tags(tagAuth).
		Security(bearerScheme).
		Response(http.StatusNoContent, nil, "Sent").
		Build()

	r.add(http.MethodPost, "/auth/password-reset/send", h.sendPasswordResetEmail, limited()...).
		Summary("Request a password reset email").ID("sendPasswordResetEmail").Tags(tagAuth).
		Description("Succeeds whether or not the address belongs to an account.").
		Body(emailRequest{}, "Account email").
		Response(http.StatusNoContent, nil, "Accepted").
		Build()

	r.add(http.MethodPost, "/auth/password-reset", h.resetPassword, limited()...).
		Summary("Set a new password with a reset token").ID("resetPassword").Tags(tagAuth).
		Body(resetPasswordRequest{}, "Token and new password").
		Response(http.StatusNoContent, nil, "Password changed").
		Build()

	r.add(http.MethodGet, "/my-account", h.myAccount, required).
		Summary("The authenticated user").ID("getMyAccount").Tags(tagAccount).
		Security(bearerScheme).
		Response(http.StatusOK, accountResponse{}, "Account").
		Build()

	r.add(http.MethodPut, "/my-account/profile", h.updateProfile, required).
		Summary("Change the display name").ID("updateProfile").Tags(tagAccount).
		Security(bearerScheme).
		Body(profileRequest{}, "New profile").
		Response(http.StatusNoContent, nil, "Updated").
		Build()

	r.add(http.MethodPut, "/my-account/email", h.updateEmail, limited(required)...).
		Summary("Change the email address").ID("updateEmail").Tags(tagAccount).
		Description("The new address starts unverified. A wrong password is answered with 200 and invalid_password.").
		Security(bearerScheme).
		Body(changeEmailRequest{}, "New address and current password").
		Response(http.StatusNoContent, nil, "Updated").
		Build()

	r.add(http.MethodPut, "/my-account/password", h.updatePassword, limited(required)...).
		Summary("Change the password").ID("updatePassword").Tags(tagAccount).
		Description("A wrong current password is answered with 200 and invalid_password.").
		Security(bearerScheme).
		Body(changePasswordRequest{}, "Current and new password").
		Response(http.StatusNoContent, nil, "Updated").
		Build()

	r.add(http.MethodPost, "/my-account/delete", h.deleteAccount, limited(required)...).
		Summary("Delete the account and its recipes").ID("deleteAccount").Tags(tagAccount).
		Description("A wrong password is answered with 200 and invalid_password.").
		Security(bearerScheme).
		Body(passwordRequest{}, "Current password").
		Response(http.StatusNoContent, nil, "Deleted").
		Build()

	r.add(http.MethodGet, "/users/:id", h.getUser).
		Summary("A user's public profile").ID("getUser").Tags(tagUsers).
		PathParam("id", "User id").Integer(1).Done().
		Response(http.StatusOK, publicUserResponse{}, "User").
		Build()

	r.add(http.MethodGet, "/users/:id/recipes", h.listUserRecipes, optional).
		Summary("A user's recipes").ID("listUserRecipes").Tags(tagUsers, tagRecipes).
		PathParam("id", "User id").Integer(1).Done().
		OptionalSecurity(bearerScheme).
		Response(http.StatusOK, recipesResponse{}, "Recipes, newest first").
		Build()

	r.add(http.MethodGet, "/recipes", h.listRecipes, optional).
		Summary("All recipes").ID("listRecipes").Tags(tagRecipes).
		OptionalSecurity(bearerScheme).
		Response(http.StatusOK, recipesResponse{}, "Recipes, newest first; user_is_owner is set when authenticated").
		Build()

	r.add(http.MethodGet, "/recipes/:id", h.getRecipe, optional).
		Summary("A recipe with its owner").ID("getRecipe").Tags(tagRecipes).
		PathParam("id", "Recipe id").Done().
		OptionalSecurity(bearerScheme).
		Response(http.StatusOK, recipeResponse{}, "Recipe").
		Build()

	r.add(http.MethodPost, "/recipes", h.createRecipe, required).
		Summary("Create a recipe").ID("createRecipe").Tags(tagRecipes).
		Security(bearerScheme).
		Body(createRecipeRequest{}, "New recipe").
		Response(http.StatusCreated, createdResponse{}, "Created").
		ResponseHeader(http.StatusCreated, echo.HeaderLocation, "URL of the new recipe").
		Build()

	r.add(http.MethodPatch, "/recipes/:id", h.updateRecipe, required).
		Summary("Change a recipe").ID("updateRecipe").Tags(tagRecipes).
		Description("Only the owner may change a recipe; absent fields are left unchanged.").
		PathParam("id", "Recipe id").Done().
		Security(bearerScheme).
		Body(updateRecipeRequest{}, "Fields to change").
		Response(http.StatusOK, recipeResponse{}, "Updated recipe").
		Build()

	r.add(http.MethodDelete, "/recipes/:id", h.deleteRecipe, required).
		Summary("Delete a recipe").ID("deleteRecipe").Tags(tagRecipes).
		Description("Only the owner may delete a recipe. Unknown ids succeed.").
		PathParam("id", "Recipe id").Done().
		Security(bearerScheme).
		Response(http.StatusNoContent, nil, "Deleted or never existed").
		Build()

	r.add(http.MethodGet, "/health", h.healthCheck).
		Summary("Liveness and database reachability").ID("health").Tags(tagSystem).
		Response(http.StatusOK, healthResponse{}, "Healthy").
		Build()

	r.group.GET("/openapi.json", doc.JSONHandler())
	r.group.GET("/openapi.yaml", doc.YAMLHandler())
}
