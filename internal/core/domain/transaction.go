package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a ledger entry.
type TransactionKind string

const (
	KindDeposit        TransactionKind = "deposit"
	KindWithdraw       TransactionKind = "withdraw"
	KindTransferDebit  TransactionKind = "transfer-debit"
	KindTransferCredit TransactionKind = "transfer-credit"
)

// StatusCompleted is the only transaction status in this design; no pending
// or compensating states are modeled.
const StatusCompleted = "completed"

// TransactionRecord is one immutable entry in the append-only ledger log.
// A transfer produces exactly two records (debit and credit) sharing the
// same TransferRef; all other kinds leave TransferRef empty.
type TransactionRecord struct {
	TransactionID int64           `json:"transaction_id"`
	AccountID     int             `json:"account_id"`
	Kind          TransactionKind `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Timestamp     time.Time       `json:"timestamp"`
	Status        string          `json:"status"`
	TransferRef   string          `json:"transfer_ref,omitempty"`
}
