package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/centbank/facebank/internal/api/metrics"
	"github.com/centbank/facebank/internal/core/domain"
	"github.com/centbank/facebank/internal/core/ports"
)

// defaultHistoryLimit bounds a history response when the client does not
// ask for a specific page size.
const defaultHistoryLimit = 50

// LedgerHandler handles money movement and ledger reads for the
// authenticated account.
type LedgerHandler struct {
	ledger ports.LedgerService
}

func NewLedgerHandler(ledger ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

type amountRequest struct {
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description"`
}

type transferRequest struct {
	ToAccountNumber int64  `json:"to_account_number" validate:"required,gt=0"`
	Amount          string `json:"amount" validate:"required"`
}

type balanceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Balance string `json:"balance"`
}

type transactionResponse struct {
	TransactionID int64  `json:"transaction_id"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	Description   string `json:"description"`
	Timestamp     string `json:"timestamp"`
	Status        string `json:"status"`
	TransferRef   string `json:"transfer_ref,omitempty"`
}

type historyResponse struct {
	Success      bool                  `json:"success"`
	Message      string                `json:"message"`
	Transactions []transactionResponse `json:"transactions"`
}

// parseAmount accepts the wire amount as a decimal string. Rejecting
// non-numeric input here keeps domain.ErrInvalidAmount for the sign and
// scale rules the ledger owns.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, echo.NewHTTPError(http.StatusBadRequest, "amount must be a decimal number")
	}
	return amount, nil
}

func ledgerOutcome(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrSelfTransfer):
		return "self_transfer"
	default:
		return "error"
	}
}

// Deposit credits the authenticated account.
//
// @Summary      Deposit funds
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      amountRequest  true  "Amount and optional description"
// @Success      200   {object}  balanceResponse
// @Failure      400   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Router       /v1/ledger/deposit [post]
func (h *LedgerHandler) Deposit(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req amountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}

	balance, err := h.ledger.Deposit(c.Request().Context(), session.AccountID, amount, req.Description)
	metrics.LedgerOperationsTotal.WithLabelValues("deposit", ledgerOutcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, balanceResponse{
		Success: true,
		Message: "deposit completed",
		Balance: balance.StringFixed(2),
	})
}

// Withdraw debits the authenticated account.
//
// @Summary      Withdraw funds
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      amountRequest  true  "Amount and optional description"
// @Success      200   {object}  balanceResponse
// @Failure      422   {object}  map[string]any
// @Router       /v1/ledger/withdraw [post]
func (h *LedgerHandler) Withdraw(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req amountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}

	balance, err := h.ledger.Withdraw(c.Request().Context(), session.AccountID, amount, req.Description)
	metrics.LedgerOperationsTotal.WithLabelValues("withdraw", ledgerOutcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, balanceResponse{
		Success: true,
		Message: "withdrawal completed",
		Balance: balance.StringFixed(2),
	})
}

// Transfer moves funds from the authenticated account to another account
// identified by its account number.
//
// @Summary      Transfer funds
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      transferRequest  true  "Recipient account number and amount"
// @Success      200   {object}  balanceResponse
// @Failure      404   {object}  map[string]any
// @Failure      422   {object}  map[string]any
// @Router       /v1/ledger/transfer [post]
func (h *LedgerHandler) Transfer(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req transferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}

	balance, err := h.ledger.Transfer(c.Request().Context(), session.AccountID, req.ToAccountNumber, amount)
	metrics.LedgerOperationsTotal.WithLabelValues("transfer", ledgerOutcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, balanceResponse{
		Success: true,
		Message: "transfer completed",
		Balance: balance.StringFixed(2),
	})
}

// Balance returns the authenticated account's current balance.
//
// @Summary      Get balance
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  balanceResponse
// @Router       /v1/ledger/balance [get]
func (h *LedgerHandler) Balance(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	balance, err := h.ledger.Balance(c.Request().Context(), session.AccountID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, balanceResponse{
		Success: true,
		Message: "balance retrieved",
		Balance: balance.StringFixed(2),
	})
}

// History returns the authenticated account's transaction log, newest last,
// bounded by the limit query parameter.
//
// @Summary      Get transaction history
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum number of records (default 50)"
// @Success      200    {object}  historyResponse
// @Router       /v1/ledger/history [get]
func (h *LedgerHandler) History(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	records, err := h.ledger.History(c.Request().Context(), session.AccountID, limit)
	if err != nil {
		return err
	}

	out := make([]transactionResponse, 0, len(records))
	for _, r := range records {
		out = append(out, transactionResponse{
			TransactionID: r.TransactionID,
			Kind:          string(r.Kind),
			Amount:        r.Amount.StringFixed(2),
			Description:   r.Description,
			Timestamp:     r.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			Status:        r.Status,
			TransferRef:   r.TransferRef,
		})
	}

	return c.JSON(http.StatusOK, historyResponse{
		Success:      true,
		Message:      "history retrieved",
		Transactions: out,
	})
}
