// Package apierror defines the JSON error envelope returned by the API:
//
//	{"error": {"code": "recipe_not_found", "message": "Recipe with id 7 not found."}}
package apierror

import (
	"fmt"
	"net/http"
)

const (
	CodeUserNotFound              = "user_not_found"
	CodeRecipeNotFound            = "recipe_not_found"
	CodeDuplicateEmail            = "duplicate_email"
	CodeInvalidLoginCredentials   = "invalid_login_credentials"
	CodeValidAuthTokenRequired    = "valid_auth_token_required"
	CodeInvalidPassword           = "invalid_password"
	CodeValidateEmailTokenExpired = "validate_email_token_expired"
	CodePasswordResetTokenExpired = "password_reset_token_expired"
	CodeEmailAlreadyVerified      = "email_already_verified"
	CodeInvalidToken              = "invalid_token"
	CodeForbidden                 = "forbidden"
	CodeInvalidRequest            = "invalid_request"
	CodeNotFound                  = "not_found"
	CodeMethodNotAllowed          = "method_not_allowed"
	CodeRequestTooLarge           = "request_too_large"
	CodeTooManyRequests           = "too_many_requests"
	CodeInternal                  = "internal_server_error"
)

type Detail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Body struct {
	Error Detail `json:"error"`
}

// Error is an API failure with its HTTP status. Cause is kept for logging and
// never rendered.
type Error struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy of e carrying err.
func (e *Error) WithCause(err error) *Error {
	clone := *e
	clone.Cause = err
	return &clone
}

func (e *Error) Body() Body {
	return Body{Error: Detail{Code: e.Code, Message: e.Message}}
}

func UserNotFound(id any) *Error {
	return New(http.StatusNotFound, CodeUserNotFound, fmt.Sprintf("User with id %v not found.", id))
}

func RecipeNotFound(id any) *Error {
	return New(http.StatusNotFound, CodeRecipeNotFound, fmt.Sprintf("Recipe with id %v not found.", id))
}

func DuplicateEmail() *Error {
	return New(http.StatusConflict, CodeDuplicateEmail, "This email is already registered.")
}

// InvalidLoginCredentials is answered with 200 so an unknown email and a wrong
// password look the same to the client.
func InvalidLoginCredentials() *Error {
	return New(http.StatusOK, CodeInvalidLoginCredentials, "The credentials are not valid.")
}

func ValidAuthTokenRequired() *Error {
	return New(http.StatusUnauthorized, CodeValidAuthTokenRequired,
		"An 'Authorization' header containing 'Bearer ${token}' with a valid token is required.")
}

func InvalidPassword() *Error {
	return New(http.StatusOK, CodeInvalidPassword, "The provided password is not valid.")
}

func ValidateEmailTokenExpired() *Error {
	return New(http.StatusBadRequest, CodeValidateEmailTokenExpired,
		"The token has expired. Please log in and request a new validation email at the Settings page.")
}

func PasswordResetTokenExpired() *Error {
	return New(http.StatusBadRequest, CodePasswordResetTokenExpired,
		"The token has expired. Please request a new password reset email at the Login page.")
}

func EmailAlreadyVerified() *Error {
	return New(http.StatusOK, CodeEmailAlreadyVerified, "The email is already verified.")
}

func InvalidToken() *Error {
	return New(http.StatusBadRequest, CodeInvalidToken, "The token is not valid.")
}

func Forbidden() *Error {
	return New(http.StatusForbidden, CodeForbidden, "You are not allowed to modify this resource.")
}

func InvalidRequest(message string) *Error {
	return New(http.StatusBadRequest, CodeInvalidRequest, message)
}

func TooManyRequests() *Error {
	return New(http.StatusTooManyRequests, CodeTooManyRequests, "Too many requests. Please try again later.")
}

func Internal(cause error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: "An unexpected error occurred.",
		Cause:   cause,
	}
}
