package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	ListenAddr string

	RedisURL    string
	DatabaseURL string

	JWTSecret  string
	TokenTTL   time.Duration
	CookieName string

	JoinCodeLength int
	SessionTTL     time.Duration

	WebhookURL string

	MsgOverrideDir string

	AllowedOrigins []string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:     ":8080",
		TokenTTL:       7 * 24 * time.Hour,
		CookieName:     "chesshall_token",
		JoinCodeLength: 5,
		SessionTTL:     0, // sessions never expire by default; retention is external
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg.JWTSecret = strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if v := strings.TrimSpace(os.Getenv("TOKEN_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, errors.New("TOKEN_TTL must be a positive duration")
		}
		cfg.TokenTTL = d
	}
	if v := strings.TrimSpace(os.Getenv("COOKIE_NAME")); v != "" {
		cfg.CookieName = v
	}

	if v := strings.TrimSpace(os.Getenv("JOIN_CODE_LENGTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 4 && n <= 12 {
			cfg.JoinCodeLength = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SessionTTL = d
		}
	}

	cfg.WebhookURL = strings.TrimSpace(os.Getenv("FINISH_WEBHOOK_URL"))
	cfg.MsgOverrideDir = strings.TrimSpace(os.Getenv("MESSAGE_OVERRIDE_DIR"))

	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, s)
			}
		}
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}
