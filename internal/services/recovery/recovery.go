// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package recovery implements the password-reset flow: a mailed 6-digit
// OTP, a follow-up reset token minted on verification, and the final
// credential change.
package recovery

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"codeberg.org/oliverandrich/lawlens/internal/models"
	"codeberg.org/oliverandrich/lawlens/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const (
	// OTPLength is the number of digits in a one-time code.
	OTPLength = 6
	// OTPExpiry is how long a one-time code stays redeemable.
	OTPExpiry = 10 * time.Minute
	// ResetTokenLength is the number of random bytes in a reset handle.
	ResetTokenLength = 32
	// ResetTokenExpiry is how long a reset handle stays redeemable.
	ResetTokenExpiry = time.Hour
)

var (
	// ErrNotFound means no account exists for the given email.
	ErrNotFound = errors.New("account not found")
	// ErrNoActiveRequest means a resend was attempted without a pending OTP.
	ErrNoActiveRequest = errors.New("no active reset request")
	// ErrInvalidOrExpired covers wrong codes, spent tokens and expiry.
	ErrInvalidOrExpired = errors.New("code or token is invalid or expired")
)

// Notifier delivers recovery mails. SendOTP failures are rejections;
// SendPasswordChanged failures are logged but never roll anything back.
type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
	SendPasswordChanged(ctx context.Context, email, name string) error
}

// Service drives the reset state machine over the reset_tokens table.
type Service struct {
	repo     *repository.Repository
	notifier Notifier

	now func() time.Time
}

// NewService creates a recovery service.
func NewService(repo *repository.Repository, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// SetClock replaces the time source for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Request starts a reset cycle: it invalidates any previous OTP, stores a
// fresh one and mails it. Unknown emails yield ErrNotFound; hiding them
// behind a generic confirmation is a known hardening follow-up.
func (s *Service) Request(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	return s.issueOTP(ctx, user)
}

// Resend reissues the OTP. It only succeeds while a previous OTP is still
// active, so it cannot be used to start a cycle.
func (s *Service) Resend(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	active, err := s.repo.GetActiveToken(ctx, user.ID, models.TokenKindOTP)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoActiveRequest
		}
		return fmt.Errorf("failed to look up active code: %w", err)
	}
	if !active.Valid(s.now()) {
		return ErrNoActiveRequest
	}

	return s.issueOTP(ctx, user)
}

// issueOTP enforces the one-active-code invariant at issuance time: all
// prior unused OTPs are spent before the new row is written.
func (s *Service) issueOTP(ctx context.Context, user *models.User) error {
	if err := s.repo.InvalidateTokens(ctx, user.ID, models.TokenKindOTP); err != nil {
		return fmt.Errorf("failed to invalidate previous codes: %w", err)
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	otp := &models.ResetToken{
		UserID:    user.ID,
		Kind:      models.TokenKindOTP,
		Code:      code,
		ExpiresAt: s.now().Add(OTPExpiry),
	}
	if err := s.repo.CreateResetToken(ctx, otp); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, user.Email, code); err != nil {
		return fmt.Errorf("failed to deliver code: %w", err)
	}

	slog.Info("reset_code_issued", "user_id", user.ID)
	return nil
}

// Verify redeems the OTP and mints the reset handle for the final step.
// Returns the plaintext handle; only its SHA256 is stored.
func (s *Service) Verify(ctx context.Context, email, code string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidOrExpired
		}
		return "", fmt.Errorf("failed to look up account: %w", err)
	}

	otp, err := s.repo.GetTokenByCode(ctx, user.ID, models.TokenKindOTP, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidOrExpired
		}
		return "", fmt.Errorf("failed to look up code: %w", err)
	}
	if !otp.Valid(s.now()) {
		return "", ErrInvalidOrExpired
	}

	if err := s.repo.MarkTokenUsed(ctx, otp.ID); err != nil {
		return "", fmt.Errorf("failed to spend code: %w", err)
	}

	// One active reset handle per account, same invariant as for OTPs.
	if err := s.repo.InvalidateTokens(ctx, user.ID, models.TokenKindReset); err != nil {
		return "", fmt.Errorf("failed to invalidate previous tokens: %w", err)
	}

	plaintext, hash, err := generateResetToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	reset := &models.ResetToken{
		UserID:    user.ID,
		Kind:      models.TokenKindReset,
		Code:      hash,
		ExpiresAt: s.now().Add(ResetTokenExpiry),
	}
	if err := s.repo.CreateResetToken(ctx, reset); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	slog.Info("reset_code_verified", "user_id", user.ID)
	return plaintext, nil
}

// Complete validates the reset handle and sets the new password. The
// handle is single use; the change notification is fire-and-forget.
func (s *Service) Complete(ctx context.Context, email, resetToken, newPassword string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	stored, err := s.repo.GetTokenByCode(ctx, user.ID, models.TokenKindReset, HashToken(resetToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("failed to look up token: %w", err)
	}
	if !stored.Valid(s.now()) {
		return ErrInvalidOrExpired
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdateUserPassword(ctx, user.ID, string(passwordHash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.repo.MarkTokenUsed(ctx, stored.ID); err != nil {
		return fmt.Errorf("failed to spend token: %w", err)
	}

	if err := s.notifier.SendPasswordChanged(ctx, user.Email, user.Name); err != nil {
		slog.Error("password_changed_mail_failed", "user_id", user.ID, "error", err)
	}

	slog.Info("password_reset_completed", "user_id", user.ID)
	return nil
}

// HashToken computes the SHA256 hash of a reset handle.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// generateOTP returns a random 6-digit code, zero-padded.
func generateOTP() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < OTPLength; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", OTPLength, n), nil
}

// generateResetToken returns (plaintext handle, SHA256 hash for storage).
func generateResetToken() (string, string, error) {
	bytes := make([]byte, ResetTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", err
	}
	plaintext := hex.EncodeToString(bytes)
	return plaintext, HashToken(plaintext), nil
}
