package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/recipemanager/api/apierror"
)

var testRules = rules{passwordMin: 6, passwordMax: 60}

func checkMessage(t *testing.T, req checkable) string {
	t.Helper()

	c := newChecker(testRules)
	req.check(c)
	err := c.result()
	if err == nil {
		return ""
	}

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.CodeInvalidRequest, apiErr.Code)
	return apiErr.Message
}

func TestChecker_Email(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"a@b.com", ""},
		{"first.last+tag@example.co.uk", ""},
		{"", "email - Required"},
		{"   ", "email - Required"},
		{"plainaddress", "email - Invalid email"},
		{"@b.com", "email - Invalid email"},
		{"Pere <a@b.com>", "email - Invalid email"},
		{strings.Repeat("a", 250) + "@b.com", "email - Should be at most 254 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, checkMessage(t, emailRequest{Email: tt.email}))
		})
	}
}

func TestChecker_FirstFailureWins(t *testing.T) {
	msg := checkMessage(t, registerRequest{Name: "", Email: "bad", Password: "x"})
	assert.Equal(t, "name - Required", msg)
}

func TestChecker_Password(t *testing.T) {
	assert.Equal(t, "", checkMessage(t, passwordRequest{Password: "secret"}))
	assert.Equal(t, "password - Required", checkMessage(t, passwordRequest{}))
	assert.Equal(t, "password - Should be at least 6 characters", checkMessage(t, passwordRequest{Password: "12345"}))
	assert.Equal(t, "password - Should be at most 60 characters", checkMessage(t, passwordRequest{Password: strings.Repeat("x", 61)}))

	// counted in characters, then capped at the bcrypt byte limit
	assert.Equal(t, "", checkMessage(t, passwordRequest{Password: strings.Repeat("é", 36)}))
	assert.Equal(t, "password - Should be at most 72 bytes", checkMessage(t, passwordRequest{Password: strings.Repeat("é", 37)}))
	assert.Equal(t, "password - Should be at most 72 bytes", checkMessage(t, passwordRequest{Password: strings.Repeat("€", 25)}))
}

func TestChecker_ChangePasswordFields(t *testing.T) {
	assert.Equal(t, "current_password - Required",
		checkMessage(t, changePasswordRequest{NewPassword: "secret1"}))
	assert.Equal(t, "new_password - Should be at least 6 characters",
		checkMessage(t, changePasswordRequest{CurrentPassword: "secret1", NewPassword: "abc"}))
}

func TestChecker_Recipe(t *testing.T) {
	title := func(s string) *string { return &s }
	minutes := func(n int) *int { return &n }

	tests := []struct {
		name string
		req  checkable
		want string
	}{
		{"valid create", createRecipeRequest{Title: "Salad", CookingTimeMinutes: 22}, ""},
		{"blank title", createRecipeRequest{Title: "  ", CookingTimeMinutes: 22}, "title - Required"},
		{"longest title", createRecipeRequest{Title: strings.Repeat("t", 255), CookingTimeMinutes: 1}, ""},
		{"longest cook", createRecipeRequest{Title: "Stew", CookingTimeMinutes: 4320}, ""},
		{"negative minutes", createRecipeRequest{Title: "Stew", CookingTimeMinutes: -1}, "cooking_time_minutes - Should be between 1 and 4320"},
		{"empty patch", updateRecipeRequest{}, ""},
		{"patch title only", updateRecipeRequest{Title: title("Soup")}, ""},
		{"patch empty title", updateRecipeRequest{Title: title("")}, "title - Required"},
		{"patch minutes", updateRecipeRequest{CookingTimeMinutes: minutes(0)}, "cooking_time_minutes - Should be between 1 and 4320"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkMessage(t, tt.req))
		})
	}
}

func TestUpdateRecipeRequest_Patch(t *testing.T) {
	title := "Soup"
	patch := updateRecipeRequest{Title: &title}.patch()

	require.NotNil(t, patch.Title)
	assert.Equal(t, "Soup", *patch.Title)
	assert.Nil(t, patch.CookingTimeMinutes)
	assert.False(t, patch.Empty())
}
