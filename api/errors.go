package api

import (
	"errors"

	"github.com/tech-arch1tect/recipemanager/api/apierror"
	"github.com/tech-arch1tect/recipemanager/services/auth"
	"github.com/tech-arch1tect/recipemanager/services/recipe"
	"github.com/tech-arch1tect/recipemanager/services/user"
)

// tokenFlow names the email flow a submitted token belongs to, since an
// expired token is reported differently by each.
type tokenFlow int

const (
	flowNone tokenFlow = iota
	flowVerifyEmail
	flowPasswordReset
)

// scope carries what an error response may need to mention.
type scope struct {
	id   any
	flow tokenFlow
}

type errorMapping struct {
	target error
	render func(s scope) *apierror.Error
}

// errorTable turns business outcomes into responses. Entries are matched in
// order with errors.Is; ErrTokenExpired precedes ErrTokenInvalid.
var errorTable = []errorMapping{
	{auth.ErrDuplicateEmail, func(scope) *apierror.Error { return apierror.DuplicateEmail() }},
	{auth.ErrInvalidPassword, func(scope) *apierror.Error { return apierror.InvalidPassword() }},
	{auth.ErrEmailAlreadyVerified, func(scope) *apierror.Error { return apierror.EmailAlreadyVerified() }},
	{auth.ErrUserNotFound, func(s scope) *apierror.Error { return apierror.UserNotFound(s.id) }},
	{user.ErrNotFound, func(s scope) *apierror.Error { return apierror.UserNotFound(s.id) }},
	{auth.ErrTokenExpired, func(s scope) *apierror.Error {
		switch s.flow {
		case flowVerifyEmail:
			return apierror.ValidateEmailTokenExpired()
		case flowPasswordReset:
			return apierror.PasswordResetTokenExpired()
		}
		return apierror.InvalidToken()
	}},
	{auth.ErrTokenInvalid, func(scope) *apierror.Error { return apierror.InvalidToken() }},
	{recipe.ErrNotFound, func(s scope) *apierror.Error { return apierror.RecipeNotFound(s.id) }},
	{recipe.ErrForbidden, func(scope) *apierror.Error { return apierror.Forbidden() }},
}

// toAPIError maps err through errorTable. Anything unmapped is a server fault
// and keeps err as its cause for the log.
func toAPIError(err error, s scope) error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.render(s).WithCause(err)
		}
	}
	return apierror.Internal(err)
}
