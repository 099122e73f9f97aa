// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP layer: request decoding, service
// calls and the error-to-status mapping.
package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/lawlens/internal/quota"
	"codeberg.org/oliverandrich/lawlens/internal/repository"
	"codeberg.org/oliverandrich/lawlens/internal/services/analysis"
	"codeberg.org/oliverandrich/lawlens/internal/services/auth"
	"codeberg.org/oliverandrich/lawlens/internal/services/recovery"
	"github.com/labstack/echo/v4"
)

// Handlers bundles the services the HTTP layer dispatches to.
type Handlers struct {
	repo     *repository.Repository
	auth     *auth.Service
	recovery *recovery.Service
	quota    *quota.Tracker
	analyzer analysis.Analyzer
}

// New creates the handler set.
func New(
	repo *repository.Repository,
	authService *auth.Service,
	recoveryService *recovery.Service,
	tracker *quota.Tracker,
	analyzer analysis.Analyzer,
) *Handlers {
	return &Handlers{
		repo:     repo,
		auth:     authService,
		recovery: recoveryService,
		quota:    tracker,
		analyzer: analyzer,
	}
}

// Health reports liveness.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
