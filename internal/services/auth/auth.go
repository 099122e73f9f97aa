// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements account registration and the two login paths:
// email+password and Google ID tokens.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"codeberg.org/oliverandrich/lawlens/internal/models"
	"codeberg.org/oliverandrich/lawlens/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password does not meet requirements")
	ErrGoogleToken        = errors.New("google token rejected")
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// dummyHash is used for constant-time login to prevent timing attacks.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// TokenIssuer mints bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// GoogleVerifier validates a Google ID token and returns the holder's
// email and display name.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (email, name string, err error)
}

// Notifier delivers account mails. All of them are courtesy notices;
// failures are logged, never surfaced.
type Notifier interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendLoginNotice(ctx context.Context, email, name string) error
}

// Service handles accounts and login.
type Service struct {
	repo     *repository.Repository
	tokens   TokenIssuer
	google   GoogleVerifier
	notifier Notifier
}

// NewService creates an auth service. google may be nil when Google login
// is not configured.
func NewService(repo *repository.Repository, tokens TokenIssuer, google GoogleVerifier, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		google:   google,
		notifier: notifier,
	}
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.notify(ctx, "welcome", func(ctx context.Context) error {
		return s.notifier.SendWelcome(ctx, user.Email, user.Name)
	})

	slog.Info("register_success", "user_id", user.ID, "email", email)
	return user, nil
}

// Login authenticates a user and returns the user plus a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, "", ErrInvalidCredentials
	}

	bearer, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.notify(ctx, "login_notice", func(ctx context.Context) error {
		return s.notifier.SendLoginNotice(ctx, user.Email, user.Name)
	})

	slog.Info("login_success", "user_id", user.ID, "email", email)
	return user, bearer, nil
}

// GoogleLogin validates a Google ID token and signs the holder in,
// creating the account on first contact.
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (*models.User, string, error) {
	if s.google == nil {
		return nil, "", ErrGoogleToken
	}

	email, name, err := s.google.Verify(ctx, idToken)
	if err != nil {
		slog.Warn("google_login_failed", "error", err)
		return nil, "", ErrGoogleToken
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		user, err = s.createGoogleUser(ctx, name, email)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve google user: %w", err)
	}

	bearer, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("google_login_success", "user_id", user.ID, "email", email)
	return user, bearer, nil
}

// createGoogleUser provisions an account with an unguessable password
// hash, so the password login path stays closed until a reset.
func (s *Service) createGoogleUser(ctx context.Context, name, email string) (*models.User, error) {
	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("failed to generate placeholder secret: %w", err)
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(random)), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash placeholder secret: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.notify(ctx, "welcome", func(ctx context.Context) error {
		return s.notifier.SendWelcome(ctx, user.Email, user.Name)
	})

	return user, nil
}

// notify runs a courtesy mail and logs a failure instead of returning it.
func (s *Service) notify(ctx context.Context, kind string, send func(context.Context) error) {
	if s.notifier == nil {
		return
	}
	if err := send(ctx); err != nil {
		slog.Error("notification_failed", "kind", kind, "error", err)
	}
}
