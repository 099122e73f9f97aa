// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package identity_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/oliverandrich/lawlens/internal/identity"
	"codeberg.org/oliverandrich/lawlens/internal/services/token"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T, authorization string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", nil)
	req.RemoteAddr = "198.51.100.7:54321"
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func newTokenService(t *testing.T) *token.Service {
	t.Helper()
	svc, err := token.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	return svc
}

func TestResolve_Anonymous(t *testing.T) {
	resolver := identity.NewResolver(newTokenService(t))

	id, err := resolver.Resolve(newContext(t, ""))

	require.NoError(t, err)
	assert.False(t, id.Authenticated)
	assert.Equal(t, "198.51.100.7", id.Key)
	assert.Zero(t, id.UserID)
}

func TestResolve_Authenticated(t *testing.T) {
	tokens := newTokenService(t)
	resolver := identity.NewResolver(tokens)

	raw, err := tokens.Issue(42)
	require.NoError(t, err)

	id, err := resolver.Resolve(newContext(t, "Bearer "+raw))

	require.NoError(t, err)
	assert.True(t, id.Authenticated)
	assert.Equal(t, "42", id.Key)
	assert.Equal(t, int64(42), id.UserID)
}

func TestResolve_InvalidTokenIsNotDowngraded(t *testing.T) {
	resolver := identity.NewResolver(newTokenService(t))

	_, err := resolver.Resolve(newContext(t, "Bearer bogus"))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestResolve_MalformedHeader(t *testing.T) {
	resolver := identity.NewResolver(newTokenService(t))

	_, err := resolver.Resolve(newContext(t, "Basic dXNlcjpwYXNz"))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestMiddleware_StoresIdentity(t *testing.T) {
	resolver := identity.NewResolver(newTokenService(t))
	c := newContext(t, "")

	var got identity.Identity
	handler := resolver.Middleware()(func(c echo.Context) error {
		id, ok := identity.FromContext(c.Request().Context())
		require.True(t, ok)
		got = id
		return nil
	})

	require.NoError(t, handler(c))
	assert.Equal(t, "198.51.100.7", got.Key)
}

func TestRequireAuth_RejectsAnonymous(t *testing.T) {
	resolver := identity.NewResolver(newTokenService(t))
	c := newContext(t, "")

	handler := resolver.Middleware()(identity.RequireAuth()(func(c echo.Context) error {
		return nil
	}))

	err := handler(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
