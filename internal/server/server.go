// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, storage and services into the HTTP
// server and owns its lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/lawlens/internal/config"
	"codeberg.org/oliverandrich/lawlens/internal/database"
	"codeberg.org/oliverandrich/lawlens/internal/handlers"
	"codeberg.org/oliverandrich/lawlens/internal/identity"
	"codeberg.org/oliverandrich/lawlens/internal/quota"
	"codeberg.org/oliverandrich/lawlens/internal/repository"
	"codeberg.org/oliverandrich/lawlens/internal/services/analysis"
	"codeberg.org/oliverandrich/lawlens/internal/services/auth"
	"codeberg.org/oliverandrich/lawlens/internal/services/email"
	"codeberg.org/oliverandrich/lawlens/internal/services/recovery"
	"codeberg.org/oliverandrich/lawlens/internal/services/token"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

// Run starts the server with the given CLI command.
func Run(_ context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	if cfg.Auth.JWTSecret == "" {
		return errors.New("jwt-secret is required")
	}

	// Database
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := database.Close(db); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	repo := repository.New(db)

	// Services
	tokens, err := token.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}

	notifier, err := setupNotifier(cfg)
	if err != nil {
		return fmt.Errorf("failed to create mail service: %w", err)
	}

	var google auth.GoogleVerifier
	if cfg.Google.ClientID != "" {
		google, err = auth.NewGoogleVerifier(cfg.Google.ClientID)
		if err != nil {
			return fmt.Errorf("failed to create google verifier: %w", err)
		}
	}

	analyzer, err := analysis.NewOpenAIAnalyzer(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}

	authService := auth.NewService(repo, tokens, google, notifier)
	recoveryService := recovery.NewService(repo, notifier)

	tracker := quota.NewTracker(quota.Policy{
		AnonymousLimit:      cfg.Quota.AnonymousLimit,
		AnonymousWindow:     cfg.Quota.AnonymousWindow,
		AuthenticatedLimit:  cfg.Quota.AuthenticatedLimit,
		AuthenticatedWindow: cfg.Quota.AuthenticatedWindow,
		SweepInterval:       cfg.Quota.SweepInterval,
	})
	tracker.Start()
	defer tracker.Stop()

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg)

	h := handlers.New(repo, authService, recoveryService, tracker, analyzer)
	handlers.RegisterRoutes(e, h, identity.NewResolver(tokens))

	return startWithGracefulShutdown(e, cfg)
}

// setupNotifier returns the SMTP-backed mail service, or a logging stand-in
// when no SMTP host is configured.
func setupNotifier(cfg *config.Config) (notifier, error) {
	if cfg.SMTP.Host == "" {
		slog.Warn("smtp not configured, mail is logged instead of sent")
		return &logNotifier{}, nil
	}
	return email.NewService(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
		TLS:      cfg.SMTP.TLS,
	}, cfg.Server.BaseURL)
}

// notifier is the union of the mail duties of the auth and recovery
// services.
type notifier interface {
	auth.Notifier
	recovery.Notifier
}

// logNotifier replaces outgoing mail in development setups.
type logNotifier struct{}

func (l *logNotifier) SendWelcome(_ context.Context, email, name string) error {
	slog.Info("mail_skipped", "kind", "welcome", "to", email, "name", name)
	return nil
}

func (l *logNotifier) SendLoginNotice(_ context.Context, email, name string) error {
	slog.Info("mail_skipped", "kind", "login_notice", "to", email, "name", name)
	return nil
}

func (l *logNotifier) SendOTP(_ context.Context, email, code string) error {
	slog.Info("mail_skipped", "kind", "otp", "to", email, "code", code)
	return nil
}

func (l *logNotifier) SendPasswordChanged(_ context.Context, email, name string) error {
	slog.Info("mail_skipped", "kind", "password_changed", "to", email, "name", name)
	return nil
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
