package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/centbank/facebank/internal/core/domain"
)

func tierContext(t *testing.T, session *domain.Session) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if session != nil {
		c.Set(ContextSession, session)
	}
	return c, rec
}

func TestRequireTier_ConfirmedPassesConfirmedGate(t *testing.T) {
	c, _ := tierContext(t, &domain.Session{ID: "s1", Tier: domain.TierPasswordConfirmed})

	called := false
	handler := RequireTier(domain.TierPasswordConfirmed)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestRequireTier_FaceClaimedBlockedFromConfirmedGate(t *testing.T) {
	c, _ := tierContext(t, &domain.Session{ID: "s1", Tier: domain.TierFaceClaimed})

	handler := RequireTier(domain.TierPasswordConfirmed)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	err := handler(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", httpErr.Code)
	}
}

func TestRequireTier_FaceClaimedPassesFaceGate(t *testing.T) {
	c, _ := tierContext(t, &domain.Session{ID: "s1", Tier: domain.TierFaceClaimed})

	called := false
	handler := RequireTier(domain.TierFaceClaimed)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestRequireTier_NoSession(t *testing.T) {
	c, _ := tierContext(t, nil)

	handler := RequireTier(domain.TierFaceClaimed)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	err := handler(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", httpErr.Code)
	}
}
