package api

import (
	"time"

	"github.com/tech-arch1tect/recipemanager/services/recipe"
	"github.com/tech-arch1tect/recipemanager/services/user"
)

type registerRequest struct {
	Name     string `json:"name" example:"Pere" min:"1" max:"100"`
	Email    string `json:"email" example:"a@b.com" max:"254"`
	Password string `json:"password"`
}

func (r registerRequest) check(c *checker) {
	c.name("name", r.Name)
	c.email("email", r.Email)
	c.password("password", r.Password)
}

type loginRequest struct {
	Email    string `json:"email" example:"a@b.com"`
	Password string `json:"password"`
}

func (r loginRequest) check(c *checker) {
	c.email("email", r.Email)
	c.password("password", r.Password)
}

type tokenRequest struct {
	Token string `json:"token" doc:"Token from the email link"`
}

func (r tokenRequest) check(c *checker) {
	c.token("token", r.Token)
}

type emailRequest struct {
	Email string `json:"email" example:"a@b.com"`
}

func (r emailRequest) check(c *checker) {
	c.email("email", r.Email)
}

type resetPasswordRequest struct {
	Token       string `json:"token" doc:"Token from the password reset email"`
	NewPassword string `json:"new_password"`
}

func (r resetPasswordRequest) check(c *checker) {
	c.token("token", r.Token)
	c.password("new_password", r.NewPassword)
}

type profileRequest struct {
	Name string `json:"name" example:"Pere" min:"1" max:"100"`
}

func (r profileRequest) check(c *checker) {
	c.name("name", r.Name)
}

type changeEmailRequest struct {
	NewEmail string `json:"new_email" example:"new@b.com" max:"254"`
	Password string `json:"password"`
}

func (r changeEmailRequest) check(c *checker) {
	c.email("new_email", r.NewEmail)
	c.password("password", r.Password)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r changePasswordRequest) check(c *checker) {
	c.password("current_password", r.CurrentPassword)
	c.password("new_password", r.NewPassword)
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (r passwordRequest) check(c *checker) {
	c.password("password", r.Password)
}

type createRecipeRequest struct {
	Title              string `json:"title" example:"Salad" min:"1" max:"255"`
	CookingTimeMinutes int    `json:"cooking_time_minutes" example:"22" min:"1" max:"4320"`
}

func (r createRecipeRequest) check(c *checker) {
	c.title("title", r.Title)
	c.cookingTime("cooking_time_minutes", r.CookingTimeMinutes)
}

// updateRecipeRequest leaves absent fields unchanged.
type updateRecipeRequest struct {
	Title              *string `json:"title,omitempty" example:"Salad" min:"1" max:"255"`
	CookingTimeMinutes *int    `json:"cooking_time_minutes,omitempty" example:"22" min:"1" max:"4320"`
}

func (r updateRecipeRequest) check(c *checker) {
	if r.Title != nil {
		c.title("title", *r.Title)
	}
	if r.CookingTimeMinutes != nil {
		c.cookingTime("cooking_time_minutes", *r.CookingTimeMinutes)
	}
}

func (r updateRecipeRequest) patch() recipe.Patch {
	return recipe.Patch{Title: r.Title, CookingTimeMinutes: r.CookingTimeMinutes}
}

type authResponse struct {
	User      user.Private `json:"user"`
	AuthToken string       `json:"auth_token"`
}

type accountResponse struct {
	User user.Private `json:"user"`
}

type publicUserResponse struct {
	User user.Public `json:"user"`
}

type recipeJSON struct {
	ID                 uint      `json:"id" example:"1"`
	UserID             uint      `json:"user_id" example:"1"`
	Title              string    `json:"title" example:"Salad"`
	CookingTimeMinutes int       `json:"cooking_time_minutes" example:"22"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	// UserIsOwner is only set for authenticated requests.
	UserIsOwner *bool        `json:"user_is_owner,omitempty"`
	User        *user.Public `json:"user,omitempty"`
}

type recipeResponse struct {
	Recipe recipeJSON `json:"recipe"`
}

type recipesResponse struct {
	Recipes []recipeJSON `json:"recipes"`
}

type createdResponse struct {
	ID uint `json:"id" example:"1"`
}

type healthResponse struct {
	Status string `json:"status" example:"ok"`
}

// toRecipeJSON renders r for viewer, which is nil for anonymous requests.
func toRecipeJSON(r recipe.Recipe, viewer *user.User) recipeJSON {
	out := recipeJSON{
		ID:                 r.ID,
		UserID:             r.UserID,
		Title:              r.Title,
		CookingTimeMinutes: r.CookingTimeMinutes,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if viewer != nil {
		owner := viewer.ID == r.UserID
		out.UserIsOwner = &owner
	}
	return out
}

func toRecipesJSON(recipes []recipe.Recipe, viewer *user.User) []recipeJSON {
	out := make([]recipeJSON, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, toRecipeJSON(r, viewer))
	}
	return out
}
