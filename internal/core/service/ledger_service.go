package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/centbank/facebank/internal/core/domain"
	"github.com/centbank/facebank/internal/core/ports"
)

// Identifier keyspaces. Account ids and numbers are re-sampled against
// current table contents until unused; transaction ids are additionally
// verified for non-membership against the full log before accept.
const (
	accountIDMin     = 10_000
	accountIDMax     = 99_999
	accountNumberMin = 1_000_000_000
	accountNumberMax = 9_999_999_999
	transactionIDMin = 100_000_000
	transactionIDMax = 999_999_999

	idSampleAttempts = 1000
)

// LedgerService performs every balance mutation as one read-validate-write-
// append sequence under a single process-wide lock. The backing store offers
// only whole-table reads and rewrites, so the lock is what makes a transfer's
// two balance writes and two log appends one logical unit.
type LedgerService struct {
	mu       sync.Mutex
	accounts ports.AccountRepository
	log      ports.TransactionRepository
	logger   zerolog.Logger
}

func NewLedgerService(accounts ports.AccountRepository, log ports.TransactionRepository, logger zerolog.Logger) *LedgerService {
	return &LedgerService{accounts: accounts, log: log, logger: logger}
}

// CreateAccount allocates id and account number by sampling until unused,
// then inserts the account with a zero balance.
func (s *LedgerService) CreateAccount(ctx context.Context, displayName, credentialDigest, institutionTag string) (*domain.Account, error) {
	if institutionTag == "" {
		institutionTag = domain.DefaultInstitutionTag
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.sampleAccountID(ctx)
	if err != nil {
		return nil, err
	}
	number, err := s.sampleAccountNumber(ctx)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:               id,
		AccountNumber:    number,
		DisplayName:      displayName,
		InstitutionTag:   institutionTag,
		CredentialDigest: credentialDigest,
		Balance:          decimal.Zero,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.accounts.Insert(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info().Int("account_id", id).Int64("account_number", number).Msg("account created")
	return account, nil
}

// Deposit credits amount to the account and appends one deposit record.
func (s *LedgerService) Deposit(ctx context.Context, accountID int, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.accounts.Update(ctx, accountID, func(a *domain.Account) {
		a.Balance = a.Balance.Add(amount)
	})
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.appendRecord(ctx, accountID, domain.KindDeposit, amount, description, ""); err != nil {
		return decimal.Zero, err
	}

	s.logger.Info().Int("account_id", accountID).Str("amount", amount.String()).Msg("deposit committed")
	return updated.Balance, nil
}

// Withdraw debits amount from the account and appends one withdraw record.
// The balance is never allowed below zero.
func (s *LedgerService) Withdraw(ctx context.Context, accountID int, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.GreaterThan(current.Balance) {
		return decimal.Zero, domain.ErrInsufficientFunds
	}

	updated, err := s.accounts.Update(ctx, accountID, func(a *domain.Account) {
		a.Balance = a.Balance.Sub(amount)
	})
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.appendRecord(ctx, accountID, domain.KindWithdraw, amount, description, ""); err != nil {
		return decimal.Zero, err
	}

	s.logger.Info().Int("account_id", accountID).Str("amount", amount.String()).Msg("withdrawal committed")
	return updated.Balance, nil
}

// Transfer debits the sender and credits the receiver inside one critical
// section, appending a debit and a credit record that share a transfer
// reference. No partial state is visible: every validation runs before the
// first write.
func (s *LedgerService) Transfer(ctx context.Context, fromID int, toAccountNumber int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sender, err := s.accounts.FindByID(ctx, fromID)
	if err != nil {
		return decimal.Zero, err
	}
	receiver, err := s.accounts.FindByAccountNumber(ctx, toAccountNumber)
	if err != nil {
		return decimal.Zero, err
	}
	if receiver.ID == sender.ID {
		return decimal.Zero, domain.ErrSelfTransfer
	}
	if amount.GreaterThan(sender.Balance) {
		return decimal.Zero, domain.ErrInsufficientFunds
	}

	updatedSender, err := s.accounts.Update(ctx, sender.ID, func(a *domain.Account) {
		a.Balance = a.Balance.Sub(amount)
	})
	if err != nil {
		return decimal.Zero, err
	}
	if _, err := s.accounts.Update(ctx, receiver.ID, func(a *domain.Account) {
		a.Balance = a.Balance.Add(amount)
	}); err != nil {
		return decimal.Zero, err
	}

	ref := uuid.NewString()
	debitDesc := fmt.Sprintf("Transfer to %d", toAccountNumber)
	creditDesc := fmt.Sprintf("Received from %d", sender.AccountNumber)
	if err := s.appendRecord(ctx, sender.ID, domain.KindTransferDebit, amount, debitDesc, ref); err != nil {
		return decimal.Zero, err
	}
	if err := s.appendRecord(ctx, receiver.ID, domain.KindTransferCredit, amount, creditDesc, ref); err != nil {
		return decimal.Zero, err
	}

	s.logger.Info().
		Int("from_account", sender.ID).
		Int("to_account", receiver.ID).
		Str("amount", amount.String()).
		Str("transfer_ref", ref).
		Msg("transfer committed")

	return updatedSender.Balance, nil
}

// Balance reads the current balance under the ledger lock so authorization
// decisions never observe a balance mid-transition.
func (s *LedgerService) Balance(ctx context.Context, accountID int) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// History returns up to limit records for the account in insertion order.
func (s *LedgerService) History(ctx context.Context, accountID int, limit int) ([]*domain.TransactionRecord, error) {
	return s.log.ListByAccount(ctx, accountID, limit)
}

// appendRecord writes one log entry, drawing a transaction id from the
// keyspace and verifying non-membership against the existing log before
// accepting it. Callers hold the ledger lock.
func (s *LedgerService) appendRecord(ctx context.Context, accountID int, kind domain.TransactionKind, amount decimal.Decimal, description, transferRef string) error {
	txID, err := s.sampleTransactionID(ctx)
	if err != nil {
		return err
	}
	record := &domain.TransactionRecord{
		TransactionID: txID,
		AccountID:     accountID,
		Kind:          kind,
		Amount:        amount,
		Description:   description,
		Timestamp:     time.Now().UTC(),
		Status:        domain.StatusCompleted,
		TransferRef:   transferRef,
	}
	if err := s.log.Append(ctx, record); err != nil {
		return fmt.Errorf("append %s record: %w", kind, err)
	}
	return nil
}

func (s *LedgerService) sampleAccountID(ctx context.Context) (int, error) {
	for i := 0; i < idSampleAttempts; i++ {
		candidate := int(randomInRange(accountIDMin, accountIDMax))
		_, err := s.accounts.FindByID(ctx, candidate)
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			return candidate, nil
		case err != nil:
			return 0, err
		}
	}
	return 0, fmt.Errorf("%w: account id keyspace exhausted", domain.ErrStoreUnavailable)
}

func (s *LedgerService) sampleAccountNumber(ctx context.Context) (int64, error) {
	for i := 0; i < idSampleAttempts; i++ {
		candidate := randomInRange(accountNumberMin, accountNumberMax)
		_, err := s.accounts.FindByAccountNumber(ctx, candidate)
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			return candidate, nil
		case err != nil:
			return 0, err
		}
	}
	return 0, fmt.Errorf("%w: account number keyspace exhausted", domain.ErrStoreUnavailable)
}

func (s *LedgerService) sampleTransactionID(ctx context.Context) (int64, error) {
	for i := 0; i < idSampleAttempts; i++ {
		candidate := randomInRange(transactionIDMin, transactionIDMax)
		taken, err := s.log.HasID(ctx, candidate)
		if err != nil {
			return 0, err
		}
		if !taken {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("%w: transaction id keyspace exhausted", domain.ErrStoreUnavailable)
}

// randomInRange returns a uniform random int64 in [min, max] using
// crypto/rand, falling back to a clock-derived value if the source fails.
func randomInRange(min, max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		return min + time.Now().UnixNano()%(max-min+1)
	}
	return min + n.Int64()
}
