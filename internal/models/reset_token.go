// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// TokenKind distinguishes the two stages of a password reset.
type TokenKind string

const (
	// TokenKindOTP is the short-lived 6-digit code mailed to the user.
	TokenKindOTP TokenKind = "otp"
	// TokenKindReset is the follow-up token minted after OTP verification.
	TokenKindReset TokenKind = "reset"
)

// ResetToken is one step of a password-reset cycle. Code holds the plain
// 6-digit OTP for kind=otp, or the SHA256 hex of the handle for kind=reset.
type ResetToken struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"user_id"`
	Kind      TokenKind  `db:"kind" json:"kind"`
	Code      string     `db:"code" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	Used      bool       `db:"used" json:"used"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
}

// Valid reports whether the token can still be redeemed at the given time.
func (t *ResetToken) Valid(now time.Time) bool {
	return !t.Used && !now.After(t.ExpiresAt)
}
