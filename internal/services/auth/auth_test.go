// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"codeberg.org/oliverandrich/lawlens/internal/repository"
	"codeberg.org/oliverandrich/lawlens/internal/services/auth"
	"codeberg.org/oliverandrich/lawlens/internal/services/token"
	"codeberg.org/oliverandrich/lawlens/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noticeSpy records courtesy mails.
type noticeSpy struct {
	welcomes []string
	logins   []string
	fail     bool
}

func (n *noticeSpy) SendWelcome(_ context.Context, email, _ string) error {
	if n.fail {
		return errors.New("smtp down")
	}
	n.welcomes = append(n.welcomes, email)
	return nil
}

func (n *noticeSpy) SendLoginNotice(_ context.Context, email, _ string) error {
	if n.fail {
		return errors.New("smtp down")
	}
	n.logins = append(n.logins, email)
	return nil
}

// googleStub verifies any token and returns a fixed holder.
type googleStub struct {
	email string
	name  string
	err   error
}

func (g *googleStub) Verify(_ context.Context, _ string) (string, string, error) {
	return g.email, g.name, g.err
}

func newTestService(t *testing.T, google auth.GoogleVerifier) (*auth.Service, *repository.Repository, *noticeSpy) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	tokens, err := token.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	spy := &noticeSpy{}
	return auth.NewService(repo, tokens, google, spy), repo, spy
}

func TestRegister(t *testing.T) {
	svc, _, spy := newTestService(t, nil)

	user, err := svc.Register(context.Background(), "Jane", "jane@example.com", "a-long-password")

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, []string{"jane@example.com"}, spy.welcomes)
}

func TestRegister_InvalidEmail(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, err := svc.Register(context.Background(), "Jane", "not-an-email", "a-long-password")

	assert.ErrorIs(t, err, auth.ErrInvalidEmail)
}

func TestRegister_ShortPassword(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, err := svc.Register(context.Background(), "Jane", "jane@example.com", "short")

	assert.ErrorIs(t, err, auth.ErrWeakPassword)
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Jane", "jane@example.com", "a-long-password")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Jane Again", "jane@example.com", "a-long-password")
	assert.ErrorIs(t, err, auth.ErrUserExists)
}

func TestLogin(t *testing.T) {
	svc, _, spy := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Jane", "jane@example.com", "a-long-password")
	require.NoError(t, err)

	user, bearer, err := svc.Login(ctx, "jane@example.com", "a-long-password")

	require.NoError(t, err)
	assert.NotEmpty(t, bearer)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, []string{"jane@example.com"}, spy.logins)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Jane", "jane@example.com", "a-long-password")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "jane@example.com", "wrong-password-1")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever-12345")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_NotificationFailureIsIgnored(t *testing.T) {
	svc, _, spy := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Jane", "jane@example.com", "a-long-password")
	require.NoError(t, err)

	spy.fail = true
	_, bearer, err := svc.Login(ctx, "jane@example.com", "a-long-password")

	require.NoError(t, err)
	assert.NotEmpty(t, bearer)
}

func TestGoogleLogin_CreatesUserOnFirstContact(t *testing.T) {
	svc, repo, _ := newTestService(t, &googleStub{email: "jane@example.com", name: "Jane"})
	ctx := context.Background()

	user, bearer, err := svc.GoogleLogin(ctx, "fake-id-token")

	require.NoError(t, err)
	assert.NotEmpty(t, bearer)
	assert.Equal(t, "Jane", user.Name)

	stored, err := repo.GetUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestGoogleLogin_ReusesExistingAccount(t *testing.T) {
	svc, _, _ := newTestService(t, &googleStub{email: "jane@example.com", name: "Jane"})
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Jane", "jane@example.com", "a-long-password")
	require.NoError(t, err)

	user, _, err := svc.GoogleLogin(ctx, "fake-id-token")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
}

func TestGoogleLogin_RejectedToken(t *testing.T) {
	svc, _, _ := newTestService(t, &googleStub{err: errors.New("bad audience")})

	_, _, err := svc.GoogleLogin(context.Background(), "fake-id-token")

	assert.ErrorIs(t, err, auth.ErrGoogleToken)
}

func TestGoogleLogin_NotConfigured(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, _, err := svc.GoogleLogin(context.Background(), "fake-id-token")

	assert.ErrorIs(t, err, auth.ErrGoogleToken)
}
