package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/centbank/facebank/internal/core/domain"
)

// errorResponse is the canonical envelope for all API errors: a success flag
// that is always false plus a human-readable message. Internal detail
// (digests, store paths) never reaches a payload.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"success": false, "message": "..."}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrWeakPassword):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "account not found"
	case errors.Is(err, domain.ErrNoSession):
		return http.StatusUnauthorized, "no active session"
	case errors.Is(err, domain.ErrPasswordRequired):
		return http.StatusForbidden, "password confirmation required"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "insufficient funds"
	case errors.Is(err, domain.ErrSelfTransfer):
		return http.StatusUnprocessableEntity, "cannot transfer to own account"
	case errors.Is(err, domain.ErrDuplicateAccount):
		return http.StatusConflict, "account already exists"
	case errors.Is(err, domain.ErrNoFaceDetected),
		errors.Is(err, domain.ErrNoMatch),
		errors.Is(err, domain.ErrInsufficientSamples):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrModelsUnavailable):
		return http.StatusServiceUnavailable, "recognition models not available"
	case errors.Is(err, domain.ErrStoreUnavailable):
		// Log the cause but keep store internals out of the response.
		log.Error().Err(err).Str("path", c.Path()).Msg("store unavailable")
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
