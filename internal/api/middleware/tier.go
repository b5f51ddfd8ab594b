package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/centbank/facebank/internal/core/domain"
)

// RequireTier enforces the session tier gate on a route group. A
// face-claimed session satisfies TierFaceClaimed only; a password-confirmed
// session satisfies both tiers.
func RequireTier(minimum domain.SessionTier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, _ := c.Get(ContextSession).(*domain.Session)
			if session == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
			}
			if minimum == domain.TierPasswordConfirmed && session.Tier != domain.TierPasswordConfirmed {
				return echo.NewHTTPError(http.StatusForbidden, "password confirmation required")
			}
			return next(c)
		}
	}
}
