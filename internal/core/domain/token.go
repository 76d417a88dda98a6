package domain

import "time"

// PasswordResetToken represents the single live reset token for an email address.
// The raw secret is never stored; only its SHA-256 hash.
type PasswordResetToken struct {
	Email     string
	TokenHash string
	CreatedAt time.Time
}

// ExpiresAt returns the instant the token becomes unusable for the given TTL.
func (t PasswordResetToken) ExpiresAt(ttl time.Duration) time.Time {
	return t.CreatedAt.Add(ttl)
}

// Expired reports whether the token has outlived the given TTL at time now.
func (t PasswordResetToken) Expired(ttl time.Duration, now time.Time) bool {
	return now.After(t.ExpiresAt(ttl))
}
