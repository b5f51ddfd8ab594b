package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/centbank/facebank/internal/api/metrics"
	"github.com/centbank/facebank/internal/core/domain"
	"github.com/centbank/facebank/internal/core/ports"
)

// FaceHandler handles face enrollment for the authenticated account.
// Recognition itself lives on the auth surface (face login); enrollment
// requires a password-confirmed session.
type FaceHandler struct {
	identity ports.IdentityService
}

func NewFaceHandler(identity ports.IdentityService) *FaceHandler {
	return &FaceHandler{identity: identity}
}

type enrollRequest struct {
	// Images are base64 encoded frames captured client-side. At least three
	// must contain a usable face for the enrollment to be accepted.
	Images []string `json:"images" validate:"required,min=1"`
}

type enrollResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Enroll ingests training frames for the authenticated account and retrains
// the recognizer over the full sample set.
//
// @Summary      Enroll face samples
// @Tags         identity
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      enrollRequest  true  "Base64 encoded frames"
// @Success      200   {object}  enrollResponse
// @Failure      422   {object}  map[string]any
// @Failure      503   {object}  map[string]any
// @Router       /v1/identity/enroll [post]
func (h *FaceHandler) Enroll(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req enrollRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	images := make([][]byte, 0, len(req.Images))
	for _, encoded := range req.Images {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "images must be base64 encoded")
		}
		images = append(images, decoded)
	}

	if err := h.identity.Enroll(c.Request().Context(), session.AccountID, images); err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientSamples):
			metrics.EnrollmentsTotal.WithLabelValues("insufficient_samples").Inc()
		default:
			metrics.EnrollmentsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	metrics.EnrollmentsTotal.WithLabelValues("trained").Inc()

	return c.JSON(http.StatusOK, enrollResponse{
		Success: true,
		Message: "enrollment completed",
	})
}
