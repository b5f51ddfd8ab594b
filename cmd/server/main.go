package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/centbank/facebank/internal/api"
	"github.com/centbank/facebank/internal/api/metrics"
	"github.com/centbank/facebank/internal/core/service"
	"github.com/centbank/facebank/internal/infrastructure/config"
	"github.com/centbank/facebank/internal/infrastructure/db/csvtable"
	"github.com/centbank/facebank/internal/infrastructure/vision"
	"github.com/centbank/facebank/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	// --- Flat-file stores ---
	accountRepo, err := csvtable.NewAccountRepository(cfg.Data.AccountsFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data.AccountsFile).Msg("open accounts table")
	}
	transactionRepo, err := csvtable.NewTransactionRepository(cfg.Data.TransactionsFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data.TransactionsFile).Msg("open transactions table")
	}

	// --- Face recognition pipeline ---
	inference := vision.NewClient(vision.WithBaseURL(cfg.Vision.BaseURL))
	modelStore := vision.NewArtifactStore(cfg.Data.ModelDir)
	sampleStore := vision.NewSampleStore(cfg.Data.DatasetDir)

	// --- Core services ---
	ledger := service.NewLedgerService(accountRepo, transactionRepo, logger.For("ledger"))
	identity := service.NewIdentityService(
		inference,
		inference,
		vision.CentroidTrainer{},
		modelStore,
		sampleStore,
		service.IdentityConfig{
			DetectionConfidence: cfg.Vision.DetectionConfidence,
			MatchThreshold:      cfg.Vision.MatchThreshold,
		},
		logger.For("identity"),
	)
	sessions := service.NewSessionService(accountRepo, ledger, identity, cfg.SessionTTL, logger.For("sessions"))
	accounts := service.NewAccountService(accountRepo, logger.For("accounts"))

	metrics.RegisterActiveSessions(func() float64 {
		return float64(sessions.ActiveSessions())
	})

	e := api.NewRouter(cfg, api.Services{
		Sessions: sessions,
		Ledger:   ledger,
		Accounts: accounts,
		Identity: identity,
	}, inference)

	// --- Start and shut down gracefully ---
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("facebank api started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("facebank api stopped")
}
