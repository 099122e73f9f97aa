// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"codeberg.org/oliverandrich/lawlens/internal/quota"
	"codeberg.org/oliverandrich/lawlens/internal/repository"
	"codeberg.org/oliverandrich/lawlens/internal/services/analysis"
	"codeberg.org/oliverandrich/lawlens/internal/services/auth"
	"codeberg.org/oliverandrich/lawlens/internal/services/recovery"
	"github.com/labstack/echo/v4"
)

// serviceError maps service-layer errors onto HTTP errors. Anything
// unmapped is logged and surfaces as a plain 500.
func serviceError(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, recovery.ErrNoActiveRequest),
		errors.Is(err, recovery.ErrInvalidOrExpired),
		errors.Is(err, analysis.ErrUnsupportedType),
		errors.Is(err, analysis.ErrNoText):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrGoogleToken):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, recovery.ErrNotFound),
		errors.Is(err, repository.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrUserExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, analysis.ErrUpstream):
		return echo.NewHTTPError(http.StatusBadGateway, analysis.ErrUpstream.Error())
	default:
		slog.Error("request_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

// quotaError renders the 429 payload. Anonymous visitors get the wait
// in minutes, account holders in hours, both rounded up.
func quotaError(exceeded *quota.ExceededError) error {
	payload := map[string]any{
		"error": "upload limit reached",
	}
	if exceeded.Authenticated {
		payload["wait_hours"] = ceilDuration(exceeded.RetryAfter, time.Hour)
	} else {
		payload["wait_minutes"] = ceilDuration(exceeded.RetryAfter, time.Minute)
	}
	return echo.NewHTTPError(http.StatusTooManyRequests, payload)
}

func ceilDuration(d, unit time.Duration) int {
	return int(math.Ceil(float64(d) / float64(unit)))
}
