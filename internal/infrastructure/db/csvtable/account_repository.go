package csvtable

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/centbank/facebank/internal/core/domain"
)

var accountHeader = []string{
	"id", "account_number", "display_name", "institution_tag",
	"credential_digest", "balance", "created_at", "last_login_at",
}

const accountColumns = 8

// AccountRepository is the durable keyed account table. The CSV file is the
// source of truth; a typed in-memory index serves reads, and every mutation
// rewrites the full file atomically before updating the index. An internal
// mutex keeps the file and index consistent with each other; cross-row
// invariants (transfers) are serialized one level up by the ledger.
type AccountRepository struct {
	mu     sync.Mutex
	path   string
	byID   map[int]*domain.Account
	byNum  map[int64]int
	byName map[string]int
	order  []int
}

func NewAccountRepository(path string) (*AccountRepository, error) {
	if _, err := ensureFile(path, accountHeader); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	r := &AccountRepository{
		path:   path,
		byID:   make(map[int]*domain.Account),
		byNum:  make(map[int64]int),
		byName: make(map[string]int),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *AccountRepository) load() error {
	rows, err := readRows(r.path, accountColumns)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	for _, row := range rows {
		account, err := accountFromRow(row)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		r.index(account)
	}
	return nil
}

func (r *AccountRepository) FindByID(_ context.Context, id int) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account.Clone(), nil
}

func (r *AccountRepository) FindByAccountNumber(_ context.Context, n int64) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byNum[n]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *AccountRepository) FindByName(_ context.Context, name string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *AccountRepository) Insert(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[account.ID]; exists {
		return domain.ErrDuplicateKey
	}
	if _, exists := r.byNum[account.AccountNumber]; exists {
		return domain.ErrDuplicateKey
	}

	stored := account.Clone()
	r.index(stored)
	if err := r.flush(); err != nil {
		r.unindex(stored)
		return err
	}
	return nil
}

func (r *AccountRepository) Update(_ context.Context, id int, mutate func(*domain.Account)) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	next := current.Clone()
	mutate(next)
	// ID and AccountNumber are immutable; a mutator cannot rekey the row.
	next.ID = current.ID
	next.AccountNumber = current.AccountNumber

	delete(r.byName, strings.ToLower(current.DisplayName))
	r.byID[id] = next
	r.byName[strings.ToLower(next.DisplayName)] = id
	if err := r.flush(); err != nil {
		delete(r.byName, strings.ToLower(next.DisplayName))
		r.byID[id] = current
		r.byName[strings.ToLower(current.DisplayName)] = id
		return nil, err
	}
	return next.Clone(), nil
}

func (r *AccountRepository) All(_ context.Context) ([]*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Account, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].Clone())
	}
	return out, nil
}

func (r *AccountRepository) index(account *domain.Account) {
	r.byID[account.ID] = account
	r.byNum[account.AccountNumber] = account.ID
	r.byName[strings.ToLower(account.DisplayName)] = account.ID
	r.order = append(r.order, account.ID)
}

func (r *AccountRepository) unindex(account *domain.Account) {
	delete(r.byID, account.ID)
	delete(r.byNum, account.AccountNumber)
	delete(r.byName, strings.ToLower(account.DisplayName))
	if n := len(r.order); n > 0 && r.order[n-1] == account.ID {
		r.order = r.order[:n-1]
	}
}

// flush rewrites the full table from the index. Callers hold r.mu.
func (r *AccountRepository) flush() error {
	rows := make([][]string, 0, len(r.order))
	for _, id := range r.order {
		rows = append(rows, accountToRow(r.byID[id]))
	}
	if err := writeRows(r.path, accountHeader, rows); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func accountToRow(a *domain.Account) []string {
	lastLogin := ""
	if a.LastLoginAt != nil {
		lastLogin = a.LastLoginAt.UTC().Format(time.RFC3339Nano)
	}
	return []string{
		strconv.Itoa(a.ID),
		strconv.FormatInt(a.AccountNumber, 10),
		a.DisplayName,
		a.InstitutionTag,
		a.CredentialDigest,
		a.Balance.String(),
		a.CreatedAt.UTC().Format(time.RFC3339Nano),
		lastLogin,
	}
}

func accountFromRow(row []string) (*domain.Account, error) {
	id, err := strconv.Atoi(row[0])
	if err != nil {
		return nil, fmt.Errorf("bad account id %q: %w", row[0], err)
	}
	number, err := strconv.ParseInt(row[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad account number %q: %w", row[1], err)
	}
	balance, err := decimal.NewFromString(row[5])
	if err != nil {
		return nil, fmt.Errorf("bad balance %q: %w", row[5], err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, row[6])
	if err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", row[6], err)
	}
	var lastLogin *time.Time
	if row[7] != "" {
		t, err := time.Parse(time.RFC3339Nano, row[7])
		if err != nil {
			return nil, fmt.Errorf("bad last_login_at %q: %w", row[7], err)
		}
		lastLogin = &t
	}
	return &domain.Account{
		ID:               id,
		AccountNumber:    number,
		DisplayName:      row[2],
		InstitutionTag:   row[3],
		CredentialDigest: row[4],
		Balance:          balance,
		CreatedAt:        createdAt,
		LastLoginAt:      lastLogin,
	}, nil
}
