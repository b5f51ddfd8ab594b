package csvtable

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/centbank/facebank/internal/core/domain"
)

func tempTable(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

func testAccount(id int, number int64, name string) *domain.Account {
	balance, _ := decimal.NewFromString("123.45")
	return &domain.Account{
		ID:             id,
		AccountNumber:  number,
		DisplayName:    name,
		InstitutionTag: domain.DefaultInstitutionTag,
		// 64-hex digest shape, as stored after migration.
		CredentialDigest: domain.HashPassword("supersecret"),
		Balance:          balance,
		CreatedAt:        time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestAccountRepository_CreatesFileWithHeader(t *testing.T) {
	path := tempTable(t, "bank_details.csv")
	if _, err := NewAccountRepository(path); err != nil {
		t.Fatalf("new repository: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read table: %v", err)
	}
	want := "id,account_number,display_name,institution_tag,credential_digest,balance,created_at,last_login_at\n"
	if string(data) != want {
		t.Fatalf("unexpected header: %q", data)
	}
}

func TestAccountRepository_RoundTripAcrossReopen(t *testing.T) {
	path := tempTable(t, "bank_details.csv")
	ctx := context.Background()

	repo, err := NewAccountRepository(path)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}

	account := testAccount(10001, 1111111111, "alice")
	lastLogin := time.Now().UTC().Truncate(time.Millisecond)
	account.LastLoginAt = &lastLogin
	if err := repo.Insert(ctx, account); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Reopen from disk and verify every column survived.
	reopened, err := NewAccountRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.FindByID(ctx, 10001)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if got.AccountNumber != account.AccountNumber ||
		got.DisplayName != account.DisplayName ||
		got.InstitutionTag != account.InstitutionTag ||
		got.CredentialDigest != account.CredentialDigest {
		t.Fatalf("row fields lost on reopen: %+v", got)
	}
	if !got.Balance.Equal(account.Balance) {
		t.Fatalf("balance lost: %s vs %s", got.Balance, account.Balance)
	}
	if !got.CreatedAt.Equal(account.CreatedAt) {
		t.Fatalf("created_at lost: %v vs %v", got.CreatedAt, account.CreatedAt)
	}
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(lastLogin) {
		t.Fatalf("last_login_at lost: %v", got.LastLoginAt)
	}
}

func TestAccountRepository_Lookups(t *testing.T) {
	repo, err := NewAccountRepository(tempTable(t, "bank_details.csv"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	ctx := context.Background()

	if err := repo.Insert(ctx, testAccount(10001, 1111111111, "Alice")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := repo.FindByAccountNumber(ctx, 1111111111); err != nil {
		t.Fatalf("find by number: %v", err)
	}
	// Name lookup is case-insensitive.
	if _, err := repo.FindByName(ctx, "alice"); err != nil {
		t.Fatalf("find by name: %v", err)
	}
	if _, err := repo.FindByID(ctx, 99999); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := repo.FindByName(ctx, "ghost"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountRepository_InsertDuplicateKey(t *testing.T) {
	repo, err := NewAccountRepository(tempTable(t, "bank_details.csv"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	ctx := context.Background()

	if err := repo.Insert(ctx, testAccount(10001, 1111111111, "alice")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.Insert(ctx, testAccount(10001, 2222222222, "bob")); !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("duplicate id: expected ErrDuplicateKey, got %v", err)
	}
	if err := repo.Insert(ctx, testAccount(10002, 1111111111, "bob")); !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("duplicate number: expected ErrDuplicateKey, got %v", err)
	}
}

func TestAccountRepository_UpdatePersistsAndProtectsKeys(t *testing.T) {
	path := tempTable(t, "bank_details.csv")
	repo, err := NewAccountRepository(path)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	ctx := context.Background()

	if err := repo.Insert(ctx, testAccount(10001, 1111111111, "alice")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated, err := repo.Update(ctx, 10001, func(a *domain.Account) {
		a.DisplayName = "alice-renamed"
		a.ID = 55555           // must be ignored
		a.AccountNumber = 5555 // must be ignored
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != 10001 || updated.AccountNumber != 1111111111 {
		t.Fatalf("keys must be immutable, got %d/%d", updated.ID, updated.AccountNumber)
	}

	// Old name unindexed, new name resolvable, change durable.
	if _, err := repo.FindByName(ctx, "alice"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("old name must no longer resolve, got %v", err)
	}
	reopened, err := NewAccountRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := reopened.FindByName(ctx, "alice-renamed"); err != nil {
		t.Fatalf("rename not durable: %v", err)
	}

	if _, err := repo.Update(ctx, 99999, func(a *domain.Account) {}); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountRepository_AllInsertionOrder(t *testing.T) {
	repo, err := NewAccountRepository(tempTable(t, "bank_details.csv"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	ctx := context.Background()

	for i, name := range []string{"alice", "bob", "carol"} {
		if err := repo.Insert(ctx, testAccount(10001+i, int64(1111111111+i), name)); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 3 || all[0].DisplayName != "alice" || all[2].DisplayName != "carol" {
		t.Fatalf("expected insertion order, got %+v", all)
	}
}

func TestAccountRepository_ClonesProtectStore(t *testing.T) {
	repo, err := NewAccountRepository(tempTable(t, "bank_details.csv"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	ctx := context.Background()

	if err := repo.Insert(ctx, testAccount(10001, 1111111111, "alice")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, _ := repo.FindByID(ctx, 10001)
	got.DisplayName = "mutated"

	again, _ := repo.FindByID(ctx, 10001)
	if again.DisplayName != "alice" {
		t.Fatalf("store state mutated through returned pointer")
	}
}
