package domain

import "time"

// SessionTier is the strength level of an authenticated session.
type SessionTier string

const (
	// TierFaceClaimed is the weak, face-derived identity claim. It is enough
	// for read-only operations (balance, history, profile reads).
	TierFaceClaimed SessionTier = "face_claimed"
	// TierPasswordConfirmed is the strong, password-backed identity. Money
	// movement and credential changes require it.
	TierPasswordConfirmed SessionTier = "password_confirmed"
)

// Session is process-held authentication state keyed by an opaque token.
// It is never persisted.
type Session struct {
	ID            string      `json:"id"`
	AccountID     int         `json:"account_id"`
	Tier          SessionTier `json:"tier"`
	EstablishedAt time.Time   `json:"established_at"`
	ExpiresAt     time.Time   `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry at time now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Clone returns a copy so callers cannot mutate authority state through a
// returned pointer.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
