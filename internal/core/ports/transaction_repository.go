package ports

import (
	"context"

	"github.com/centbank/facebank/internal/core/domain"
)

// TransactionRepository is the append-only ledger log. Append is the only
// mutation; no record is ever rewritten.
type TransactionRepository interface {
	Append(ctx context.Context, record *domain.TransactionRecord) error
	// ListByAccount returns up to limit records for the account, oldest first,
	// bounded to the newest entries.
	ListByAccount(ctx context.Context, accountID int, limit int) ([]*domain.TransactionRecord, error)
	// HasID reports whether a transaction id already exists in the log.
	// Id generation verifies non-membership before accepting a candidate.
	HasID(ctx context.Context, transactionID int64) (bool, error)
}
