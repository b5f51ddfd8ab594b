package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/centbank/facebank/internal/api/handler"
	"github.com/centbank/facebank/internal/api/middleware"
	"github.com/centbank/facebank/internal/core/domain"
	"github.com/centbank/facebank/internal/core/ports"
	"github.com/centbank/facebank/internal/infrastructure/config"
	"github.com/centbank/facebank/pkg/logger"
)

// Services bundles the core services the router exposes. All fields are
// required.
type Services struct {
	Sessions ports.SessionService
	Ledger   ports.LedgerService
	Accounts ports.AccountService
	Identity ports.IdentityService
}

// NewRouter builds and returns the Echo instance with all routes registered.
// Route tiers:
//   - public: register, both login paths, health, metrics
//   - face-claimed: balance, history, profile read
//   - password-confirmed: money movement, profile writes, enrollment
func NewRouter(cfg *config.Config, svc Services, inference handler.Pinger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(logger.For("api"))

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svc.Sessions, cfg.JWTSecret)
	ledgerHandler := handler.NewLedgerHandler(svc.Ledger)
	accountHandler := handler.NewAccountHandler(svc.Accounts)
	faceHandler := handler.NewFaceHandler(svc.Identity)

	// --- Public routes ---
	e.POST("/v1/auth/register", authHandler.Register)
	e.POST("/v1/auth/login", authHandler.Login)
	e.POST("/v1/auth/face-login", authHandler.FaceLogin)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(cfg.Data.AccountsFile, cfg.Data.TransactionsFile, inference)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// --- Authenticated routes ---
	auth := e.Group("", middleware.Auth(cfg.JWTSecret, svc.Sessions))
	auth.POST("/v1/auth/confirm-password", authHandler.ConfirmPassword)
	auth.POST("/v1/auth/logout", authHandler.Logout)

	// Read-only surface: a face-claimed session is enough.
	claimed := auth.Group("", middleware.RequireTier(domain.TierFaceClaimed))
	claimed.GET("/v1/ledger/balance", ledgerHandler.Balance)
	claimed.GET("/v1/ledger/history", ledgerHandler.History)
	claimed.GET("/v1/accounts/me", accountHandler.Profile)

	// Money movement and credential changes need the password tier.
	confirmed := auth.Group("", middleware.RequireTier(domain.TierPasswordConfirmed))
	confirmed.POST("/v1/ledger/deposit", ledgerHandler.Deposit)
	confirmed.POST("/v1/ledger/withdraw", ledgerHandler.Withdraw)
	confirmed.POST("/v1/ledger/transfer", ledgerHandler.Transfer)
	confirmed.PUT("/v1/accounts/me", accountHandler.UpdateProfile)
	confirmed.PUT("/v1/accounts/me/password", accountHandler.ChangePassword)
	confirmed.GET("/v1/accounts", accountHandler.List)
	confirmed.POST("/v1/identity/enroll", faceHandler.Enroll)

	return e
}
