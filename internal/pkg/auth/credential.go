package auth

import (
	"fmt"
)

// LegacyDefaultSecret is the initial secret of every student account. Records
// that predate credential hashing carry no hash and accept only this value.
const LegacyDefaultSecret = "password"

// Credential is a student's stored secret. It is either Unset (legacy record,
// no hash stored) or Hashed. The zero value is Unset.
type Credential struct {
	hash string
}

// UnsetCredential returns the legacy credential variant.
func UnsetCredential() Credential {
	return Credential{}
}

// HashedCredential wraps a stored bcrypt hash. An empty hash yields Unset.
func HashedCredential(hash string) Credential {
	return Credential{hash: hash}
}

// NewCredential hashes secret and returns the Hashed variant.
func NewCredential(secret string) (Credential, error) {
	hash, err := HashPassword(secret)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to hash credential: %w", err)
	}
	return Credential{hash: hash}, nil
}

// DefaultCredential is assigned to newly created students.
func DefaultCredential() (Credential, error) {
	return NewCredential(LegacyDefaultSecret)
}

// IsSet reports whether a hash is stored.
func (c Credential) IsSet() bool {
	return c.hash != ""
}

// Hash returns the stored hash, empty for Unset.
func (c Credential) Hash() string {
	return c.hash
}

// Matches is the single comparison for both variants: Hashed compares with
// bcrypt, Unset accepts only LegacyDefaultSecret.
func (c Credential) Matches(secret string) bool {
	if !c.IsSet() {
		return secret == LegacyDefaultSecret
	}
	return CheckPassword(c.hash, secret)
}

// String never reveals the hash.
func (c Credential) String() string {
	if c.IsSet() {
		return "Credential(hashed)"
	}
	return "Credential(unset)"
}
