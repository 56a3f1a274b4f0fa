package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"go.uber.org/zap"
)

// NewHTTPErrorHandler renders every error returned by a handler or
// middleware into the envelope. Server faults are logged with their cause.
func NewHTTPErrorHandler(logger *logging.Service) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		apiErr := From(err)
		if apiErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.Error(err),
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(apiErr.Status)
		} else {
			writeErr = c.JSON(apiErr.Status, apiErr.Body())
		}
		if writeErr != nil {
			logger.Error("failed to write error response", zap.Error(writeErr))
		}
	}
}

// From converts any error into an *Error. Errors that are neither *Error nor
// *echo.HTTPError become 500.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return fromHTTPError(httpErr)
	}

	return Internal(err)
}

func fromHTTPError(he *echo.HTTPError) *Error {
	message := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		message = m
	} else if he.Message != nil {
		message = fmt.Sprint(he.Message)
	}

	switch he.Code {
	case http.StatusBadRequest:
		return New(he.Code, CodeInvalidRequest, message)
	case http.StatusUnauthorized:
		return ValidAuthTokenRequired()
	case http.StatusNotFound:
		return New(he.Code, CodeNotFound, message)
	case http.StatusMethodNotAllowed:
		return New(he.Code, CodeMethodNotAllowed, message)
	case http.StatusRequestEntityTooLarge:
		return New(he.Code, CodeRequestTooLarge, message)
	case http.StatusTooManyRequests:
		return TooManyRequests()
	}

	if he.Code >= http.StatusInternalServerError {
		return Internal(he)
	}
	return New(he.Code, CodeInvalidRequest, message)
}
