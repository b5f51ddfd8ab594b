package ports

import (
	"context"

	"github.com/centbank/facebank/internal/core/domain"
)

// AccountService covers profile and credential maintenance outside the
// money path.
type AccountService interface {
	Profile(ctx context.Context, accountID int) (*domain.Account, error)
	UpdateProfile(ctx context.Context, accountID int, displayName string) (*domain.Account, error)
	// ChangePassword verifies the current credential before storing the new
	// digest.
	ChangePassword(ctx context.Context, accountID int, current, next string) error
	// ListAccounts returns all accounts for the admin view.
	ListAccounts(ctx context.Context) ([]*domain.Account, error)
}
