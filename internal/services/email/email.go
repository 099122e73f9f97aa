// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email sends account and recovery mails over SMTP.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// Config holds the SMTP settings.
type Config struct { //nolint:govet // fieldalignment: readability over optimization
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// Service sends transactional mail. It satisfies the Notifier interfaces
// of the auth and recovery services.
type Service struct {
	cfg     Config
	baseURL string
}

// NewService creates a new email service.
func NewService(cfg Config, baseURL string) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// SendWelcome greets a freshly registered account.
func (s *Service) SendWelcome(ctx context.Context, toEmail, name string) error {
	html, err := render(welcomeTmpl, templateData{
		Name:     name,
		LoginURL: s.baseURL + "/login",
		Year:     time.Now().Year(),
	})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Hello %s,\n\nWelcome! Your account has been successfully created.", name)
	return s.send(ctx, toEmail, "Welcome to LawLens", html, text)
}

// SendLoginNotice informs the account owner about a successful login.
func (s *Service) SendLoginNotice(ctx context.Context, toEmail, name string) error {
	now := time.Now().Format(time.RFC1123)
	html, err := render(loginTmpl, templateData{
		Name:       name,
		When:       now,
		RecoverURL: s.baseURL + "/forgot-password",
		Year:       time.Now().Year(),
	})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Hello %s,\n\nYou have successfully logged in at %s.", name, now)
	return s.send(ctx, toEmail, "Successful Login", html, text)
}

// SendOTP delivers the password-reset code.
func (s *Service) SendOTP(ctx context.Context, toEmail, code string) error {
	html, err := render(otpTmpl, templateData{
		Code: code,
		Year: time.Now().Year(),
	})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Your password reset code is: %s. It expires in 10 minutes.", code)
	return s.send(ctx, toEmail, "Password Reset Code", html, text)
}

// SendPasswordChanged confirms a completed password reset.
func (s *Service) SendPasswordChanged(ctx context.Context, toEmail, name string) error {
	now := time.Now().Format(time.RFC1123)
	html, err := render(passwordChangedTmpl, templateData{
		Name:       name,
		When:       now,
		RecoverURL: s.baseURL + "/forgot-password",
		Year:       time.Now().Year(),
	})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Hello %s,\n\nYour password was successfully changed on %s.", name, now)
	return s.send(ctx, toEmail, "Password Change Confirmation", html, text)
}

// send delivers one message via SMTP using go-mail.
func (s *Service) send(ctx context.Context, to, subject, html, text string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)
	msg.AddAlternativeString(mail.TypeTextPlain, text)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Implicit TLS (SSL) for port 465, STARTTLS for others
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

func render(tmpl *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering mail template: %w", err)
	}
	return buf.String(), nil
}
