// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package identity

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// TokenVerifier validates a bearer token and returns the embedded user id.
type TokenVerifier interface {
	Verify(raw string) (int64, error)
}

// Resolver derives a request identity from the Authorization header and
// the client IP.
type Resolver struct {
	tokens TokenVerifier
}

// NewResolver creates a resolver backed by the given token verifier.
func NewResolver(tokens TokenVerifier) *Resolver {
	return &Resolver{tokens: tokens}
}

// Resolve returns the identity for a request. A missing Authorization
// header yields an anonymous identity keyed by IP. A present but invalid
// bearer token is an authentication error, never an anonymous downgrade.
func (r *Resolver) Resolve(c echo.Context) (Identity, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return Identity{Key: c.RealIP(), Authenticated: false}, nil
	}

	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	userID, err := r.tokens.Verify(strings.TrimSpace(raw))
	if err != nil {
		slog.Warn("token_rejected", "ip", c.RealIP(), "error", err)
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}

	return Identity{
		Key:           strconv.FormatInt(userID, 10),
		UserID:        userID,
		Authenticated: true,
	}, nil
}

// Middleware resolves the identity for every request and stores it in the
// request context. It does not touch the quota tracker.
func (r *Resolver) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := r.Resolve(c)
			if err != nil {
				return err
			}
			ctx := NewContext(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests. It must run after Middleware.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := FromContext(c.Request().Context())
			if !ok || !id.Authenticated {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}
