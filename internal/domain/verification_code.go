package domain

import "time"

// VerificationCode is a short-lived numeric code proving intent to pay.
// Codes are not globally unique; lookups go by (user, code) and take the
// most recent unverified row. A code is consumed exactly once.
type VerificationCode struct {
	ID            string
	UserID        string
	Code          string
	TransactionID *string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	Verified      bool
}

// Expired reports whether the code is past its expiry at the given instant.
func (v VerificationCode) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
