package domain

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

const digestLength = 64

// HashPassword returns the 64-character hex SHA-256 digest stored in
// CredentialDigest. The digest is deliberately deterministic and unsalted:
// legacy rows may still hold a plaintext value, and the one-time migration
// in VerifyCredential depends on recomputing the exact stored shape.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// IsDigestShaped reports whether a stored credential already looks like a
// SHA-256 hex digest rather than a legacy plaintext value.
func IsDigestShaped(stored string) bool {
	if len(stored) != digestLength {
		return false
	}
	_, err := hex.DecodeString(stored)
	return err == nil
}

// VerifyCredential checks password against the stored credential value.
// It returns whether the password matches and whether the stored value is a
// legacy plaintext that must be rewritten to its digest form by the caller.
func VerifyCredential(password, stored string) (ok, needsMigration bool) {
	if IsDigestShaped(stored) {
		digest := HashPassword(password)
		return subtle.ConstantTimeCompare([]byte(digest), []byte(stored)) == 1, false
	}
	return stored == password, stored == password
}
