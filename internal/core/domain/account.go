package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultInstitutionTag is stamped on accounts created without an explicit
// institution.
const DefaultInstitutionTag = "CENT"

// Account is the core banking aggregate. ID and AccountNumber are assigned
// once at creation and never reused; Balance is mutated only by the ledger.
type Account struct {
	ID               int             `json:"id"`
	AccountNumber    int64           `json:"account_number"`
	DisplayName      string          `json:"display_name"`
	InstitutionTag   string          `json:"institution_tag"`
	CredentialDigest string          `json:"-"`
	Balance          decimal.Decimal `json:"balance"`
	CreatedAt        time.Time       `json:"created_at"`
	LastLoginAt      *time.Time      `json:"last_login_at,omitempty"`
}

// Clone returns a copy of the account so callers cannot mutate store state
// through a returned pointer.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		cp.LastLoginAt = &t
	}
	return &cp
}
