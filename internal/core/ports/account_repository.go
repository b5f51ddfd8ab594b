package ports

import (
	"context"

	"github.com/centbank/facebank/internal/core/domain"
)

// AccountRepository defines persistence operations for accounts. The store is
// the sole owner of account rows; it does not allocate ids — callers of
// Insert must have generated non-colliding ID and AccountNumber values by
// re-sampling against current contents.
type AccountRepository interface {
	FindByID(ctx context.Context, id int) (*domain.Account, error)
	FindByAccountNumber(ctx context.Context, n int64) (*domain.Account, error)
	// FindByName matches display names case-insensitively.
	FindByName(ctx context.Context, name string) (*domain.Account, error)
	// Insert returns domain.ErrDuplicateKey when ID or AccountNumber is taken.
	Insert(ctx context.Context, account *domain.Account) error
	// Update applies mutate to the stored row under the store lock and
	// persists the result. Returns the updated account.
	Update(ctx context.Context, id int, mutate func(*domain.Account)) (*domain.Account, error)
	// All returns every account in insertion order.
	All(ctx context.Context) ([]*domain.Account, error)
}
