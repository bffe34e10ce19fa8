package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName      string
	AppEnv       string
	AppURL       string
	Port         string
	SupportEmail string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Scheduling
	Timezone       string // IANA name used to resolve "today" for the daily run
	RunWorkers     int    // parallel (user, goal) units per daily run
	RunSecret      string // standard-webhooks secret for /internal routes

	// Dispatch
	DispatchTimeout  time.Duration // per channel attempt
	DispatchAttempts int           // retry budget per channel, transient only

	// Email
	EmailFrom    string
	ResendAPIKey string

	// SMS / Voice
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	VoiceCallbackURL string // TwiML endpoint for voice check-in calls

	// Observability (optional)
	SentryDSN string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:      envString("APP_NAME", "Goalpost"),
		AppEnv:       envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:       envRequired("APP_URL"), // Required: base URL for consent links
		Port:         envString("PORT", "8090"),
		SupportEmail: envString("SUPPORT_EMAIL", "hello@goalpost.app"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/goalpost.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Scheduling
		Timezone:   envString("TIMEZONE", "UTC"),
		RunWorkers: envInt("RUN_WORKERS", 8),
		RunSecret:  envString("RUN_SECRET", ""),

		// Dispatch
		DispatchTimeout:  envDuration("DISPATCH_TIMEOUT", 10*time.Second),
		DispatchAttempts: envInt("DISPATCH_ATTEMPTS", 3),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@goalpost.app"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// SMS / Voice (optional in development: dispatcher falls back to log mode)
		TwilioAccountSID: envString("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  envString("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: envString("TWILIO_FROM_NUMBER", ""),
		VoiceCallbackURL: envString("VOICE_CALLBACK_URL", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for
// production deployments. Development allows email and SMS to run in log
// mode for easier local testing.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
		slog.Error("production deployment requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER")
		os.Exit(1)
	}
	if cfg.RunSecret == "" {
		slog.Error("production deployment requires RUN_SECRET for the scheduler trigger")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets and credentials are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:      c.AppName,
		AppEnv:       c.AppEnv,
		AppURL:       c.AppURL,
		Port:         c.Port,
		SupportEmail: c.SupportEmail,

		Timezone:   c.Timezone,
		RunWorkers: c.RunWorkers,

		EmailFrom: c.EmailFrom,
	}
}
