package domain

import "errors"

// Validation errors.
var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrMissingField  = errors.New("missing required field")
	ErrWeakPassword  = errors.New("password must be at least 8 characters")
)

// Lookup errors.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrNoSession       = errors.New("no active session")
)

// Business-rule errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSelfTransfer      = errors.New("cannot transfer to own account")
	ErrDuplicateAccount  = errors.New("account already exists")
)

// Identity errors.
var (
	ErrNoFaceDetected      = errors.New("no face detected")
	ErrNoMatch             = errors.New("face not recognized")
	ErrModelsUnavailable   = errors.New("recognition models not available")
	ErrInsufficientSamples = errors.New("not enough usable face samples")
)

// Credential errors.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session tier errors.
var ErrPasswordRequired = errors.New("password confirmation required")

// Persistence errors.
var (
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrStoreUnavailable = errors.New("store unavailable")
)
