package ports

import (
	"context"

	"github.com/centbank/facebank/internal/core/domain"
)

// LoginResult pairs the established session with the authenticated account.
// Match is set only for face logins.
type LoginResult struct {
	Session *domain.Session
	Account *domain.Account
	Match   *domain.IdentityMatch
}

// SessionService orchestrates password login, face login, and tier
// elevation. Tier gating is enforced here and by the transport middleware:
// money movement requires TierPasswordConfirmed, read-only operations are
// allowed at TierFaceClaimed.
type SessionService interface {
	// Register creates an account and establishes a password-confirmed
	// session for it.
	Register(ctx context.Context, name, password string) (*LoginResult, error)
	// LoginByPassword verifies the password against the stored credential,
	// migrating a legacy plaintext value to its digest form on first success.
	LoginByPassword(ctx context.Context, name, password string) (*LoginResult, error)
	// LoginByFace runs face recognition and, on a match, establishes a
	// face-claimed session bound to the matched account.
	LoginByFace(ctx context.Context, image []byte) (*LoginResult, error)
	// ConfirmPassword elevates a face-claimed session to password-confirmed
	// after verifying the password for the bound account.
	ConfirmPassword(ctx context.Context, sessionID, password string) (*domain.Session, error)
	// Resolve returns the live session for the token, lazily expiring it.
	Resolve(ctx context.Context, sessionID string) (*domain.Session, error)
	Logout(ctx context.Context, sessionID string)
}
