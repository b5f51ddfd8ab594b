package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/centbank/facebank/internal/core/domain"
	"github.com/centbank/facebank/internal/core/ports"
)

const minPasswordLength = 8

// SessionService is the session authority: it owns the in-process session
// table, orchestrates password and face login, and performs tier elevation.
// Expiry is checked lazily on each use; there is no background sweep.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session

	accounts ports.AccountRepository
	ledger   ports.LedgerService
	identity ports.IdentityService
	ttl      time.Duration
	logger   zerolog.Logger
}

func NewSessionService(
	accounts ports.AccountRepository,
	ledger ports.LedgerService,
	identity ports.IdentityService,
	ttl time.Duration,
	logger zerolog.Logger,
) *SessionService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionService{
		sessions: make(map[string]*domain.Session),
		accounts: accounts,
		ledger:   ledger,
		identity: identity,
		ttl:      ttl,
		logger:   logger,
	}
}

// Register creates a new account and immediately establishes a
// password-confirmed session for it.
func (s *SessionService) Register(ctx context.Context, name, password string) (*ports.LoginResult, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, domain.ErrMissingField
	}
	if len(password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	if _, err := s.accounts.FindByName(ctx, name); err == nil {
		return nil, domain.ErrDuplicateAccount
	}

	account, err := s.ledger.CreateAccount(ctx, name, domain.HashPassword(password), domain.DefaultInstitutionTag)
	if err != nil {
		return nil, err
	}

	session := s.establish(account.ID, domain.TierPasswordConfirmed)
	s.logger.Info().Int("account_id", account.ID).Msg("account registered")
	return &ports.LoginResult{Session: session, Account: account}, nil
}

// LoginByPassword authenticates by display name and password and establishes
// a password-confirmed session.
func (s *SessionService) LoginByPassword(ctx context.Context, name, password string) (*ports.LoginResult, error) {
	if strings.TrimSpace(name) == "" || password == "" {
		return nil, domain.ErrMissingField
	}
	account, err := s.accounts.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}

	if err := s.verifyCredential(ctx, account, password); err != nil {
		return nil, err
	}

	stamped, err := s.stampLastLogin(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	session := s.establish(account.ID, domain.TierPasswordConfirmed)
	s.logger.Info().Int("account_id", account.ID).Msg("password login")
	return &ports.LoginResult{Session: session, Account: stamped}, nil
}

// LoginByFace runs face recognition and, on a match, establishes a weak
// face-claimed session bound to the matched account. Money movement remains
// gated until the password is confirmed.
func (s *SessionService) LoginByFace(ctx context.Context, image []byte) (*ports.LoginResult, error) {
	match, err := s.identity.Recognize(ctx, image)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.FindByID(ctx, match.AccountID)
	if err != nil {
		return nil, err
	}

	stamped, err := s.stampLastLogin(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	session := s.establish(account.ID, domain.TierFaceClaimed)
	s.logger.Info().
		Int("account_id", account.ID).
		Float64("probability", match.Probability).
		Msg("face login")
	return &ports.LoginResult{Session: session, Account: stamped, Match: match}, nil
}

// ConfirmPassword elevates a face-claimed session to password-confirmed
// after verifying the password for the account the session is bound to.
func (s *SessionService) ConfirmPassword(ctx context.Context, sessionID, password string) (*domain.Session, error) {
	session, err := s.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.FindByID(ctx, session.AccountID)
	if err != nil {
		return nil, err
	}
	if err := s.verifyCredential(ctx, account, password); err != nil {
		return nil, err
	}
	if _, err := s.stampLastLogin(ctx, account.ID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	live, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrNoSession
	}
	live.Tier = domain.TierPasswordConfirmed
	s.logger.Info().Int("account_id", account.ID).Msg("session elevated to password-confirmed")
	return live.Clone(), nil
}

// Resolve returns the live session for the token, removing it when expired.
func (s *SessionService) Resolve(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrNoSession
	}
	if session.Expired(time.Now().UTC()) {
		delete(s.sessions, sessionID)
		return nil, domain.ErrNoSession
	}
	return session.Clone(), nil
}

// Logout destroys the session; unknown tokens are a no-op.
func (s *SessionService) Logout(_ context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// ActiveSessions reports the current table size, counting only unexpired
// entries.
func (s *SessionService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	n := 0
	for _, session := range s.sessions {
		if !session.Expired(now) {
			n++
		}
	}
	return n
}

// establish creates and registers a fresh session at the given tier.
func (s *SessionService) establish(accountID int, tier domain.SessionTier) *domain.Session {
	now := time.Now().UTC()
	session := &domain.Session{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		Tier:          tier,
		EstablishedAt: now,
		ExpiresAt:     now.Add(s.ttl),
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session.Clone()
}

// verifyCredential checks the password against the stored credential,
// rewriting a legacy plaintext value to its digest form on first success.
func (s *SessionService) verifyCredential(ctx context.Context, account *domain.Account, password string) error {
	ok, needsMigration := domain.VerifyCredential(password, account.CredentialDigest)
	if !ok {
		return domain.ErrInvalidCredentials
	}
	if needsMigration {
		digest := domain.HashPassword(password)
		if _, err := s.accounts.Update(ctx, account.ID, func(a *domain.Account) {
			a.CredentialDigest = digest
		}); err != nil {
			return err
		}
		s.logger.Info().Int("account_id", account.ID).Msg("legacy credential migrated to digest")
	}
	return nil
}

func (s *SessionService) stampLastLogin(ctx context.Context, accountID int) (*domain.Account, error) {
	now := time.Now().UTC()
	return s.accounts.Update(ctx, accountID, func(a *domain.Account) {
		a.LastLoginAt = &now
	})
}
