// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Auth     AuthConfig
	SMTP     SMTPConfig
	OpenAI   OpenAIConfig
	Google   GoogleConfig
	Quota    QuotaConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type AuthConfig struct {
	JWTSecret string
	JWTTTL    time.Duration
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // empty uses the public endpoint
}

type GoogleConfig struct {
	ClientID string
}

type QuotaConfig struct { //nolint:govet // fieldalignment not critical for config structs
	AnonymousLimit      int
	AnonymousWindow     time.Duration
	AuthenticatedLimit  int
	AuthenticatedWindow time.Duration
	SweepInterval       time.Duration
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		Auth: AuthConfig{
			JWTSecret: cmd.String("jwt-secret"),
			JWTTTL:    cmd.Duration("jwt-ttl"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  cmd.String("openai-api-key"),
			Model:   cmd.String("openai-model"),
			BaseURL: cmd.String("openai-base-url"),
		},
		Google: GoogleConfig{
			ClientID: cmd.String("google-client-id"),
		},
		Quota: QuotaConfig{
			AnonymousLimit:      int(cmd.Int("quota-anonymous-limit")),
			AnonymousWindow:     cmd.Duration("quota-anonymous-window"),
			AuthenticatedLimit:  int(cmd.Int("quota-authenticated-limit")),
			AuthenticatedWindow: cmd.Duration("quota-authenticated-window"),
			SweepInterval:       cmd.Duration("quota-sweep-interval"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	return cfg
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port
	if port == 80 {
		return fmt.Sprintf("http://%s", host)
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for links in outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   10,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/lawlens.db",
			Usage:   "Database DSN",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		&cli.StringFlag{
			Name:    "jwt-secret",
			Usage:   "Secret for signing bearer tokens",
			Sources: cli.NewValueSourceChain(cli.EnvVar("JWT_SECRET"), toml.TOML("auth.jwt_secret", configFile)),
		},
		&cli.DurationFlag{
			Name:    "jwt-ttl",
			Value:   time.Hour,
			Usage:   "Bearer token lifetime",
			Sources: cli.NewValueSourceChain(cli.EnvVar("JWT_TTL"), toml.TOML("auth.jwt_ttl", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host (mail is disabled when empty)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("smtp.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("smtp.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), toml.TOML("smtp.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), toml.TOML("smtp.password", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "From address for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM"), toml.TOML("smtp.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "LawLens",
			Usage:   "Display name for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM_NAME"), toml.TOML("smtp.from_name", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("smtp.tls", configFile)),
		},
		&cli.StringFlag{
			Name:    "openai-api-key",
			Usage:   "OpenAI API key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("OPENAI_API_KEY"), toml.TOML("openai.api_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "openai-model",
			Value:   "gpt-4o-mini",
			Usage:   "Model used for document analysis",
			Sources: cli.NewValueSourceChain(cli.EnvVar("OPENAI_MODEL"), toml.TOML("openai.model", configFile)),
		},
		&cli.StringFlag{
			Name:    "openai-base-url",
			Usage:   "OpenAI-compatible API base URL (empty for the public endpoint)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("OPENAI_BASE_URL"), toml.TOML("openai.base_url", configFile)),
		},
		&cli.StringFlag{
			Name:    "google-client-id",
			Usage:   "Google OAuth client ID (Google login is disabled when empty)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("GOOGLE_CLIENT_ID"), toml.TOML("google.client_id", configFile)),
		},
		&cli.IntFlag{
			Name:    "quota-anonymous-limit",
			Value:   3,
			Usage:   "Uploads per window for anonymous visitors",
			Sources: cli.NewValueSourceChain(cli.EnvVar("QUOTA_ANONYMOUS_LIMIT"), toml.TOML("quota.anonymous_limit", configFile)),
		},
		&cli.DurationFlag{
			Name:    "quota-anonymous-window",
			Value:   2 * time.Hour,
			Usage:   "Quota window for anonymous visitors",
			Sources: cli.NewValueSourceChain(cli.EnvVar("QUOTA_ANONYMOUS_WINDOW"), toml.TOML("quota.anonymous_window", configFile)),
		},
		&cli.IntFlag{
			Name:    "quota-authenticated-limit",
			Value:   10,
			Usage:   "Uploads per window for account holders",
			Sources: cli.NewValueSourceChain(cli.EnvVar("QUOTA_AUTHENTICATED_LIMIT"), toml.TOML("quota.authenticated_limit", configFile)),
		},
		&cli.DurationFlag{
			Name:    "quota-authenticated-window",
			Value:   24 * time.Hour,
			Usage:   "Quota window for account holders",
			Sources: cli.NewValueSourceChain(cli.EnvVar("QUOTA_AUTHENTICATED_WINDOW"), toml.TOML("quota.authenticated_window", configFile)),
		},
		&cli.DurationFlag{
			Name:    "quota-sweep-interval",
			Value:   time.Hour,
			Usage:   "Interval between quota garbage collections",
			Sources: cli.NewValueSourceChain(cli.EnvVar("QUOTA_SWEEP_INTERVAL"), toml.TOML("quota.sweep_interval", configFile)),
		},
	}
}
