// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	defaultDatabasePath = "./data/website.db"
	defaultListenAddr   = ":8080"
	defaultFeedInterval = 30 * time.Minute
)

// Config holds the application configuration.
type Config struct {
	DatabasePath string
	LogLevel     string
	ListenAddr   string

	TelegramBotToken string
	AllowedUsers     []int64

	// NewsFeedURL is optional; the news import is disabled without it.
	NewsFeedURL      string
	NewsFeedInterval time.Duration
}

// Load reads configuration from environment variables and validates the
// settings shared by every binary.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:     envOr("DATABASE_PATH", defaultDatabasePath),
		LogLevel:         strings.ToLower(envOr("LOG_LEVEL", "info")),
		ListenAddr:       envOr("LISTEN_ADDR", defaultListenAddr),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		NewsFeedURL:      strings.TrimSpace(os.Getenv("NEWS_FEED_URL")),
		NewsFeedInterval: defaultFeedInterval,
	}

	if raw := os.Getenv("NEWS_FEED_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid NEWS_FEED_INTERVAL %q: %w", raw, err)
		}
		cfg.NewsFeedInterval = d
	}

	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			cfg.AllowedUsers = append(cfg.AllowedUsers, uid)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings shared by every binary.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.DatabasePath, validation.Required),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.ListenAddr, validation.Required),
		validation.Field(&c.NewsFeedURL, validation.By(absoluteURL)),
		validation.Field(&c.NewsFeedInterval, validation.Required, validation.Min(time.Minute)),
	)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ValidateBot checks the settings the admin bot needs on top of Validate.
func (c *Config) ValidateBot() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.TelegramBotToken, validation.Required.Error("TELEGRAM_BOT_TOKEN is required")),
		validation.Field(&c.AllowedUsers, validation.Required.Error("ALLOWED_USERS must list at least one admin")),
	)
	if err != nil {
		return fmt.Errorf("invalid bot config: %w", err)
	}
	return nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// An empty list allows nobody.
func (c *Config) IsUserAllowed(userID int64) bool {
	return slices.Contains(c.AllowedUsers, userID)
}

// NewLogger returns a text logger on stderr at the configured level.
func (c *Config) NewLogger() *slog.Logger {
	var lvl slog.Level
	switch c.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
