package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/centbank/facebank/internal/core/domain"
)

// LedgerService enforces atomicity and monetary invariants over the account
// store and the transaction log. All balance-mutating operations, and balance
// reads used for authorization decisions, are serialized by the engine.
type LedgerService interface {
	// CreateAccount allocates a fresh id and account number, verifies them
	// against current table contents, and inserts the account with a zero
	// balance.
	CreateAccount(ctx context.Context, displayName, credentialDigest, institutionTag string) (*domain.Account, error)

	// Deposit credits amount and appends one deposit record.
	Deposit(ctx context.Context, accountID int, amount decimal.Decimal, description string) (decimal.Decimal, error)
	// Withdraw debits amount and appends one withdraw record.
	Withdraw(ctx context.Context, accountID int, amount decimal.Decimal, description string) (decimal.Decimal, error)
	// Transfer moves amount from the sender to the account identified by
	// toAccountNumber, appending a debit and a credit record that share a
	// transfer reference. Returns the sender's new balance.
	Transfer(ctx context.Context, fromID int, toAccountNumber int64, amount decimal.Decimal) (decimal.Decimal, error)

	// Balance returns the current balance, serialized with mutations.
	Balance(ctx context.Context, accountID int) (decimal.Decimal, error)
	// History returns up to limit log records for the account.
	History(ctx context.Context, accountID int, limit int) ([]*domain.TransactionRecord, error)
}
