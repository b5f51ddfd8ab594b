package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/centbank/facebank/internal/api/middleware"
	"github.com/centbank/facebank/internal/core/domain"
)

// ctxSession extracts the session injected by the Auth middleware and
// performs a fast-fail check before any service call: the session must be
// present and bound to an account. The tier gate is a separate middleware;
// here we only prove the middleware ran.
func ctxSession(c echo.Context) (*domain.Session, error) {
	session, _ := c.Get(middleware.ContextSession).(*domain.Session)
	if session == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	if session.AccountID == 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "session not bound to an account")
	}
	return session, nil
}
