// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/lawlens/internal/models"
)

// CreateResetToken inserts a new reset token and fills in the generated ID.
func (r *Repository) CreateResetToken(ctx context.Context, token *models.ResetToken) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reset_tokens (user_id, kind, code, expires_at) VALUES (?, ?, ?, ?)`,
		token.UserID, token.Kind, token.Code, token.ExpiresAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	token.ID = id
	return nil
}

// GetActiveToken returns the newest unused token of the given kind for a
// user. Expiry is checked by the caller, which owns the notion of "now".
func (r *Repository) GetActiveToken(ctx context.Context, userID int64, kind models.TokenKind) (*models.ResetToken, error) {
	var token models.ResetToken
	err := r.db.GetContext(ctx, &token,
		`SELECT * FROM reset_tokens WHERE user_id = ? AND kind = ? AND used = 0 ORDER BY id DESC LIMIT 1`,
		userID, kind)
	if err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// GetTokenByCode returns the unused token of the given kind matching code.
func (r *Repository) GetTokenByCode(ctx context.Context, userID int64, kind models.TokenKind, code string) (*models.ResetToken, error) {
	var token models.ResetToken
	err := r.db.GetContext(ctx, &token,
		`SELECT * FROM reset_tokens WHERE user_id = ? AND kind = ? AND code = ? AND used = 0 ORDER BY id DESC LIMIT 1`,
		userID, kind, code)
	if err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// MarkTokenUsed marks a single token as used.
func (r *Repository) MarkTokenUsed(ctx context.Context, tokenID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reset_tokens SET used = 1, used_at = CURRENT_TIMESTAMP WHERE id = ?`,
		tokenID)
	return err
}

// InvalidateTokens marks all unused tokens of the given kind for a user as
// used. Issuing a new OTP goes through here first, so at most one OTP is
// redeemable per account at any time.
func (r *Repository) InvalidateTokens(ctx context.Context, userID int64, kind models.TokenKind) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reset_tokens SET used = 1, used_at = CURRENT_TIMESTAMP WHERE user_id = ? AND kind = ? AND used = 0`,
		userID, kind)
	return err
}

// DeleteExpiredTokens removes tokens that expired before the cutoff.
func (r *Repository) DeleteExpiredTokens(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE expires_at < ?`, cutoff)
	return err
}
