package csvtable

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/centbank/facebank/internal/core/domain"
)

func testRecord(txID int64, accountID int, kind domain.TransactionKind, amount string) *domain.TransactionRecord {
	a, _ := decimal.NewFromString(amount)
	return &domain.TransactionRecord{
		TransactionID: txID,
		AccountID:     accountID,
		Kind:          kind,
		Amount:        a,
		Description:   "test entry",
		Timestamp:     time.Now().UTC().Truncate(time.Millisecond),
		Status:        domain.StatusCompleted,
	}
}

func TestTransactionRepository_AppendAndReload(t *testing.T) {
	path := tempTable(t, "transactions.csv")
	ctx := context.Background()

	repo, err := NewTransactionRepository(path)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}

	debit := testRecord(100000001, 10001, domain.KindTransferDebit, "30")
	debit.TransferRef = "ref-1"
	credit := testRecord(100000002, 10002, domain.KindTransferCredit, "30")
	credit.TransferRef = "ref-1"
	for _, rec := range []*domain.TransactionRecord{debit, credit} {
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	// Reload from disk: both legs survive with their shared ref.
	reopened, err := NewTransactionRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	records, err := reopened.ListByAccount(ctx, 10001, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record for 10001, got %d", len(records))
	}
	got := records[0]
	if got.Kind != domain.KindTransferDebit || got.TransferRef != "ref-1" {
		t.Fatalf("record lost fields on reload: %+v", got)
	}
	if !got.Amount.Equal(debit.Amount) || !got.Timestamp.Equal(debit.Timestamp) {
		t.Fatalf("amount or timestamp lost on reload: %+v", got)
	}

	taken, err := reopened.HasID(ctx, 100000002)
	if err != nil || !taken {
		t.Fatalf("expected id 100000002 present after reload, got %v %v", taken, err)
	}
}

func TestTransactionRepository_AppendRejectsDuplicateID(t *testing.T) {
	repo, err := NewTransactionRepository(tempTable(t, "transactions.csv"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	ctx := context.Background()

	if err := repo.Append(ctx, testRecord(100000001, 10001, domain.KindDeposit, "10")); err != nil {
		t.Fatalf("append: %v", err)
	}
	err = repo.Append(ctx, testRecord(100000001, 10002, domain.KindDeposit, "20"))
	if !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestTransactionRepository_ListBoundedToNewest(t *testing.T) {
	repo, err := NewTransactionRepository(tempTable(t, "transactions.csv"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	ctx := context.Background()

	amounts := []string{"1", "2", "3", "4"}
	for i, amount := range amounts {
		if err := repo.Append(ctx, testRecord(int64(100000001+i), 10001, domain.KindDeposit, amount)); err != nil {
			t.Fatalf("append %s: %v", amount, err)
		}
	}

	records, err := repo.ListByAccount(ctx, 10001, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Newest two, still oldest first.
	if records[0].Amount.String() != "3" || records[1].Amount.String() != "4" {
		t.Fatalf("unexpected window: %s, %s", records[0].Amount, records[1].Amount)
	}

	none, err := repo.ListByAccount(ctx, 99999, 10)
	if err != nil {
		t.Fatalf("list unknown account: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no records for unknown account")
	}
}

func TestTransactionRepository_HasID(t *testing.T) {
	repo, err := NewTransactionRepository(tempTable(t, "transactions.csv"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	ctx := context.Background()

	taken, err := repo.HasID(ctx, 100000001)
	if err != nil || taken {
		t.Fatalf("empty log must not report membership")
	}
	if err := repo.Append(ctx, testRecord(100000001, 10001, domain.KindDeposit, "10")); err != nil {
		t.Fatalf("append: %v", err)
	}
	taken, err = repo.HasID(ctx, 100000001)
	if err != nil || !taken {
		t.Fatalf("expected membership after append")
	}
}
