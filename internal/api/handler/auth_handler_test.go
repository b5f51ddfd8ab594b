package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/centbank/facebank/internal/core/domain"
	"github.com/centbank/facebank/internal/core/ports"
)

type stubSessionService struct {
	registerFn        func(ctx context.Context, name, password string) (*ports.LoginResult, error)
	loginByPasswordFn func(ctx context.Context, name, password string) (*ports.LoginResult, error)
	loginByFaceFn     func(ctx context.Context, image []byte) (*ports.LoginResult, error)
	confirmFn         func(ctx context.Context, sessionID, password string) (*domain.Session, error)
	loggedOut         []string
}

func (s *stubSessionService) Register(ctx context.Context, name, password string) (*ports.LoginResult, error) {
	return s.registerFn(ctx, name, password)
}

func (s *stubSessionService) LoginByPassword(ctx context.Context, name, password string) (*ports.LoginResult, error) {
	return s.loginByPasswordFn(ctx, name, password)
}

func (s *stubSessionService) LoginByFace(ctx context.Context, image []byte) (*ports.LoginResult, error) {
	return s.loginByFaceFn(ctx, image)
}

func (s *stubSessionService) ConfirmPassword(ctx context.Context, sessionID, password string) (*domain.Session, error) {
	return s.confirmFn(ctx, sessionID, password)
}

func (s *stubSessionService) Resolve(ctx context.Context, sessionID string) (*domain.Session, error) {
	return nil, domain.ErrNoSession
}

func (s *stubSessionService) Logout(ctx context.Context, sessionID string) {
	s.loggedOut = append(s.loggedOut, sessionID)
}

func newTestContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func testLoginResult(tier domain.SessionTier) *ports.LoginResult {
	now := time.Now()
	return &ports.LoginResult{
		Session: &domain.Session{
			ID:            "sess-1",
			AccountID:     12345,
			Tier:          tier,
			EstablishedAt: now,
			ExpiresAt:     now.Add(time.Hour),
		},
		Account: &domain.Account{
			ID:             12345,
			AccountNumber:  1234567890,
			DisplayName:    "alice",
			InstitutionTag: domain.DefaultInstitutionTag,
			CreatedAt:      now,
		},
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubSessionService{
		registerFn: func(ctx context.Context, name, password string) (*ports.LoginResult, error) {
			if name != "alice" || password != "supersecret" {
				t.Fatalf("unexpected args: %s %s", name, password)
			}
			return testLoginResult(domain.TierPasswordConfirmed), nil
		},
	}
	handler := NewAuthHandler(stub, "secret")

	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/register", `{"name":"alice","password":"supersecret"}`)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["success"] != true {
		t.Fatalf("expected success envelope, got %+v", resp)
	}
	if resp["token"] == "" || resp["token"] == nil {
		t.Fatalf("expected a session token")
	}
	if resp["tier"] != string(domain.TierPasswordConfirmed) {
		t.Fatalf("expected password_confirmed tier, got %v", resp["tier"])
	}
	account, ok := resp["account"].(map[string]any)
	if !ok || account["name"] != "alice" {
		t.Fatalf("unexpected account payload: %+v", account)
	}
}

func TestAuthHandler_Register_DuplicateAccount(t *testing.T) {
	stub := &stubSessionService{
		registerFn: func(ctx context.Context, name, password string) (*ports.LoginResult, error) {
			return nil, domain.ErrDuplicateAccount
		},
	}
	handler := NewAuthHandler(stub, "secret")

	c, _ := newTestContext(t, http.MethodPost, "/v1/auth/register", `{"name":"bob","password":"supersecret"}`)

	err := handler.Register(c)
	if !errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestAuthHandler_Register_ShortPassword(t *testing.T) {
	stub := &stubSessionService{
		registerFn: func(ctx context.Context, name, password string) (*ports.LoginResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, "secret")

	c, _ := newTestContext(t, http.MethodPost, "/v1/auth/register", `{"name":"bob","password":"short"}`)

	err := handler.Register(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubSessionService{
		loginByPasswordFn: func(ctx context.Context, name, password string) (*ports.LoginResult, error) {
			if name != "alice" || password != "supersecret" {
				t.Fatalf("unexpected args: %s %s", name, password)
			}
			return testLoginResult(domain.TierPasswordConfirmed), nil
		},
	}
	handler := NewAuthHandler(stub, "secret")

	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/login", `{"name":"alice","password":"supersecret"}`)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] == "" || resp["token"] == nil {
		t.Fatalf("expected a session token")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubSessionService{
		loginByPasswordFn: func(ctx context.Context, name, password string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub, "secret")

	c, _ := newTestContext(t, http.MethodPost, "/v1/auth/login", `{"name":"alice","password":"wrongpass"}`)

	err := handler.Login(c)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_FaceLogin_Success(t *testing.T) {
	frame := []byte("frame-pixels")
	stub := &stubSessionService{
		loginByFaceFn: func(ctx context.Context, image []byte) (*ports.LoginResult, error) {
			if string(image) != string(frame) {
				t.Fatalf("frame not decoded: %q", image)
			}
			return testLoginResult(domain.TierFaceClaimed), nil
		},
	}
	handler := NewAuthHandler(stub, "secret")

	encoded := base64.StdEncoding.EncodeToString(frame)
	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/face-login", `{"image":"`+encoded+`"}`)

	if err := handler.FaceLogin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["tier"] != string(domain.TierFaceClaimed) {
		t.Fatalf("expected face_claimed tier, got %v", resp["tier"])
	}
}

func TestAuthHandler_FaceLogin_NoMatch(t *testing.T) {
	stub := &stubSessionService{
		loginByFaceFn: func(ctx context.Context, image []byte) (*ports.LoginResult, error) {
			return nil, domain.ErrNoMatch
		},
	}
	handler := NewAuthHandler(stub, "secret")

	encoded := base64.StdEncoding.EncodeToString([]byte("stranger"))
	c, _ := newTestContext(t, http.MethodPost, "/v1/auth/face-login", `{"image":"`+encoded+`"}`)

	err := handler.FaceLogin(c)
	if !errors.Is(err, domain.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestAuthHandler_ConfirmPassword_Elevates(t *testing.T) {
	stub := &stubSessionService{
		confirmFn: func(ctx context.Context, sessionID, password string) (*domain.Session, error) {
			if sessionID != "sess-1" {
				t.Fatalf("unexpected session id: %s", sessionID)
			}
			return &domain.Session{ID: sessionID, AccountID: 12345, Tier: domain.TierPasswordConfirmed}, nil
		},
	}
	handler := NewAuthHandler(stub, "secret")

	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/confirm-password", `{"password":"supersecret"}`)
	c.Set("session_id", "sess-1")

	if err := handler.ConfirmPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["tier"] != string(domain.TierPasswordConfirmed) {
		t.Fatalf("expected elevated tier, got %v", resp["tier"])
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	stub := &stubSessionService{}
	handler := NewAuthHandler(stub, "secret")

	c, rec := newTestContext(t, http.MethodPost, "/v1/auth/logout", "")
	c.Set("session_id", "sess-9")

	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(stub.loggedOut) != 1 || stub.loggedOut[0] != "sess-9" {
		t.Fatalf("logout not forwarded: %v", stub.loggedOut)
	}
}
