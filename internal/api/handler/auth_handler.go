package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/centbank/facebank/internal/api/metrics"
	"github.com/centbank/facebank/internal/api/middleware"
	"github.com/centbank/facebank/internal/core/domain"
	"github.com/centbank/facebank/internal/core/ports"
)

// AuthHandler handles registration, both login paths, tier elevation, and
// logout. It is the only handler that mints session tokens.
type AuthHandler struct {
	sessions ports.SessionService
	secret   string
}

func NewAuthHandler(sessions ports.SessionService, secret string) *AuthHandler {
	return &AuthHandler{sessions: sessions, secret: secret}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type faceLoginRequest struct {
	Image string `json:"image" validate:"required,base64"`
}

type confirmPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

type accountResponse struct {
	ID             int    `json:"id"`
	AccountNumber  int64  `json:"account_number"`
	Name           string `json:"name"`
	InstitutionTag string `json:"institution_tag"`
	Balance        string `json:"balance"`
	CreatedAt      string `json:"created_at"`
	LastLoginAt    string `json:"last_login_at,omitempty"`
}

type authResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Token   string           `json:"token,omitempty"`
	Tier    string           `json:"tier,omitempty"`
	Account *accountResponse `json:"account,omitempty"`
}

func recognitionResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoFaceDetected):
		return "no_face"
	case errors.Is(err, domain.ErrNoMatch):
		return "no_match"
	case errors.Is(err, domain.ErrModelsUnavailable):
		return "models_unavailable"
	default:
		return "error"
	}
}

func accountToResponse(a *domain.Account) *accountResponse {
	if a == nil {
		return nil
	}
	resp := &accountResponse{
		ID:             a.ID,
		AccountNumber:  a.AccountNumber,
		Name:           a.DisplayName,
		InstitutionTag: a.InstitutionTag,
		Balance:        a.Balance.StringFixed(2),
		CreatedAt:      a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if a.LastLoginAt != nil {
		resp.LastLoginAt = a.LastLoginAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// Register creates a new account and opens a password-confirmed session.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account name and password"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.sessions.Register(c.Request().Context(), req.Name, req.Password)
	if err != nil {
		return err
	}
	metrics.AccountsCreatedTotal.Inc()

	token, err := middleware.TokenForSession(result.Session.ID, h.secret)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{
		Success: true,
		Message: "account created",
		Token:   token,
		Tier:    string(result.Session.Tier),
		Account: accountToResponse(result.Account),
	})
}

// Login authenticates by name and password and opens a password-confirmed
// session.
//
// @Summary      Login with password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]any
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.sessions.LoginByPassword(c.Request().Context(), req.Name, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("password", "rejected").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("password", "ok").Inc()

	token, err := middleware.TokenForSession(result.Session.ID, h.secret)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "login successful",
		Token:   token,
		Tier:    string(result.Session.Tier),
		Account: accountToResponse(result.Account),
	})
}

// FaceLogin runs face recognition over one frame and, on a match, opens a
// face-claimed session for the matched account. The frame is a base64
// encoded image.
//
// @Summary      Login by face recognition
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      faceLoginRequest  true  "Base64 encoded frame"
// @Success      200   {object}  authResponse
// @Failure      422   {object}  map[string]any
// @Failure      503   {object}  map[string]any
// @Router       /v1/auth/face-login [post]
func (h *AuthHandler) FaceLogin(c echo.Context) error {
	var req faceLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image must be base64 encoded")
	}

	result, err := h.sessions.LoginByFace(c.Request().Context(), image)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("face", "rejected").Inc()
		metrics.RecognitionTotal.WithLabelValues(recognitionResult(err)).Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("face", "ok").Inc()
	metrics.RecognitionTotal.WithLabelValues("match").Inc()
	if result.Match != nil {
		metrics.RecognitionProbability.Observe(result.Match.Probability)
	}

	token, err := middleware.TokenForSession(result.Session.ID, h.secret)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "face recognized",
		Token:   token,
		Tier:    string(result.Session.Tier),
		Account: accountToResponse(result.Account),
	})
}

// ConfirmPassword elevates the caller's face-claimed session to
// password-confirmed. The token does not change; only the server-side tier
// does.
//
// @Summary      Confirm password for the current session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      confirmPasswordRequest  true  "Account password"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]any
// @Router       /v1/auth/confirm-password [post]
func (h *AuthHandler) ConfirmPassword(c echo.Context) error {
	var req confirmPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sessionID, _ := c.Get(middleware.ContextSessionID).(string)
	session, err := h.sessions.ConfirmPassword(c.Request().Context(), sessionID, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("confirm", "rejected").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("confirm", "ok").Inc()

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "password confirmed",
		Tier:    string(session.Tier),
	})
}

// Logout drops the caller's session. Always succeeds for a valid token.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  authResponse
// @Router       /v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sessionID, _ := c.Get(middleware.ContextSessionID).(string)
	h.sessions.Logout(c.Request().Context(), sessionID)

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "logged out",
	})
}
