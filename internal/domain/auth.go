package domain

import "time"

// TokenPurpose differentiates one-time tokens.
type TokenPurpose string

const (
	TokenPurposeVerifyEmail   TokenPurpose = "verify_email"
	TokenPurposePasswordReset TokenPurpose = "password_reset"
)

// OneTimeToken is a single-use token mailed to a user.
type OneTimeToken struct {
	ID        int64
	UserID    int64
	Purpose   TokenPurpose
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token is unused and not expired at now.
func (t *OneTimeToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && !now.After(t.ExpiresAt)
}
