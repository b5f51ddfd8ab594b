package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/centbank/facebank/internal/core/ports"
)

// AccountHandler handles profile reads and maintenance outside the money
// path.
type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type updateProfileRequest struct {
	Name string `json:"name" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type profileResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Account *accountResponse `json:"account,omitempty"`
}

type accountListResponse struct {
	Success  bool               `json:"success"`
	Message  string             `json:"message"`
	Accounts []*accountResponse `json:"accounts"`
}

// Profile returns the authenticated account's profile.
//
// @Summary      Get profile
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileResponse
// @Router       /v1/accounts/me [get]
func (h *AccountHandler) Profile(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	account, err := h.accounts.Profile(c.Request().Context(), session.AccountID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profileResponse{
		Success: true,
		Message: "profile retrieved",
		Account: accountToResponse(account),
	})
}

// UpdateProfile changes the authenticated account's display name.
//
// @Summary      Update profile
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "New display name"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  map[string]any
// @Router       /v1/accounts/me [put]
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.accounts.UpdateProfile(c.Request().Context(), session.AccountID, req.Name)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profileResponse{
		Success: true,
		Message: "profile updated",
		Account: accountToResponse(account),
	})
}

// ChangePassword verifies the current password before storing the new one.
//
// @Summary      Change password
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  profileResponse
// @Failure      401   {object}  map[string]any
// @Router       /v1/accounts/me/password [put]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.accounts.ChangePassword(c.Request().Context(), session.AccountID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profileResponse{
		Success: true,
		Message: "password changed",
	})
}

// List returns every account in the store. Exposed for the operator
// console; balances are included.
//
// @Summary      List all accounts
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  accountListResponse
// @Router       /v1/accounts [get]
func (h *AccountHandler) List(c echo.Context) error {
	if _, err := ctxSession(c); err != nil {
		return err
	}

	accounts, err := h.accounts.ListAccounts(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]*accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountToResponse(a))
	}

	return c.JSON(http.StatusOK, accountListResponse{
		Success:  true,
		Message:  "accounts retrieved",
		Accounts: out,
	})
}
