package handler

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler handles GET /health — liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Pinger is the connectivity check exposed by the inference client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthDependenciesHandler handles GET /health/ready — readiness probe.
// Checks the flat-file tables and the face inference sidecar before
// declaring the service ready.
type HealthDependenciesHandler struct {
	accountsFile     string
	transactionsFile string
	inference        Pinger
}

func NewHealthDependenciesHandler(accountsFile, transactionsFile string, inference Pinger) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{
		accountsFile:     accountsFile,
		transactionsFile: transactionsFile,
		inference:        inference,
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	// --- Flat-file tables reachable ---
	for name, path := range map[string]string{
		"accounts_file":     h.accountsFile,
		"transactions_file": h.transactionsFile,
	} {
		if _, err := os.Stat(path); err != nil {
			deps[name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
		} else {
			deps[name] = dependencyStatus{Status: "ok"}
		}
	}

	// --- Inference sidecar ping ---
	if err := h.inference.Ping(ctx); err != nil {
		deps["inference"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		healthy = false
	} else {
		deps["inference"] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
