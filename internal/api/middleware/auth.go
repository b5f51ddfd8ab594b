package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/centbank/facebank/internal/core/ports"
)

// Context keys set by the Auth middleware.
const (
	ContextSession   = "session"
	ContextSessionID = "session_id"
)

// TokenForSession wraps an opaque session id in a signed HS256 JWT. The JWT
// only carries the id; tier and expiry stay authoritative in the in-process
// session table, so elevation never requires reissuing the token.
func TokenForSession(sessionID, secret string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sid": sessionID})
	return t.SignedString([]byte(secret))
}

// Auth validates the bearer JWT, resolves the referenced session against the
// authority (which lazily expires it), and injects the live session into the
// request context.
func Auth(secret string, sessions ports.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sessionID, _ := claims["sid"].(string)
			if sessionID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing session identity")
			}

			session, err := sessions.Resolve(c.Request().Context(), sessionID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
			}

			c.Set(ContextSession, session)
			c.Set(ContextSessionID, sessionID)

			return next(c)
		}
	}
}
