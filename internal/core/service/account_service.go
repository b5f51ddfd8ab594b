package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/centbank/facebank/internal/core/domain"
	"github.com/centbank/facebank/internal/core/ports"
)

// AccountService covers profile and credential maintenance outside the
// money path. Balance is deliberately absent here: balance reads go through
// the ledger so they stay serialized with mutations.
type AccountService struct {
	accounts ports.AccountRepository
	logger   zerolog.Logger
}

func NewAccountService(accounts ports.AccountRepository, logger zerolog.Logger) *AccountService {
	return &AccountService{accounts: accounts, logger: logger}
}

func (s *AccountService) Profile(ctx context.Context, accountID int) (*domain.Account, error) {
	return s.accounts.FindByID(ctx, accountID)
}

func (s *AccountService) UpdateProfile(ctx context.Context, accountID int, displayName string) (*domain.Account, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, domain.ErrMissingField
	}
	updated, err := s.accounts.Update(ctx, accountID, func(a *domain.Account) {
		a.DisplayName = displayName
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("account_id", accountID).Msg("profile updated")
	return updated, nil
}

// ChangePassword verifies the current credential before storing the new
// digest. The legacy plaintext migration applies here too: a correct
// plaintext current password is accepted once.
func (s *AccountService) ChangePassword(ctx context.Context, accountID int, current, next string) error {
	if current == "" || next == "" {
		return domain.ErrMissingField
	}
	if len(next) < minPasswordLength {
		return domain.ErrWeakPassword
	}
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if ok, _ := domain.VerifyCredential(current, account.CredentialDigest); !ok {
		return domain.ErrInvalidCredentials
	}

	digest := domain.HashPassword(next)
	if _, err := s.accounts.Update(ctx, accountID, func(a *domain.Account) {
		a.CredentialDigest = digest
	}); err != nil {
		return err
	}
	s.logger.Info().Int("account_id", accountID).Msg("password changed")
	return nil
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	return s.accounts.All(ctx)
}
