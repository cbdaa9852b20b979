// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Database drivers understood by database.Open.
const (
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"
)

// Config represents the configuration of the application
type Config struct {
	TelegramToken string
	LogMode       string

	DBType      string
	DBPath      string // sqlite file
	DatabaseURL string // postgres DSN

	// Default number of cards in one review session
	SessionSize int
	// Default ceiling for new cards per session
	MaxNewCards int
	// Assumed answer time used for session estimates
	SecondsPerCard int
	// Length of the activity calendar shown by /heatmap
	HeatmapDays int

	SchedulerEnabled      bool
	NotificationStartHour int
	NotificationEndHour   int

	AdminUserIDs map[int64]bool
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		LogMode:               "dev",
		DBType:                DBTypeSQLite,
		DBPath:                "data/recallbot.db",
		SessionSize:           20,
		MaxNewCards:           20,
		SecondsPerCard:        10,
		HeatmapDays:           28,
		SchedulerEnabled:      true,
		NotificationStartHour: 8,
		NotificationEndHour:   22,
		AdminUserIDs:          map[int64]bool{},
	}
}

// Load reads .env files (if present) and the environment on top of Default.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := Default()
	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	cfg.LogMode = str("LOG_MODE", cfg.LogMode)
	cfg.DBType = strings.ToLower(str("DB_TYPE", cfg.DBType))
	cfg.DBPath = str("DB_PATH", cfg.DBPath)
	cfg.DatabaseURL = str("DATABASE_URL", cfg.DatabaseURL)
	cfg.SchedulerEnabled = os.Getenv("ENABLE_SCHEDULER") != "false"

	for _, v := range []struct {
		name string
		dst  *int
	}{
		{"SESSION_SIZE", &cfg.SessionSize},
		{"MAX_NEW_CARDS", &cfg.MaxNewCards},
		{"SECONDS_PER_CARD", &cfg.SecondsPerCard},
		{"HEATMAP_DAYS", &cfg.HeatmapDays},
		{"NOTIFICATION_START_HOUR", &cfg.NotificationStartHour},
		{"NOTIFICATION_END_HOUR", &cfg.NotificationEndHour},
	} {
		n, err := integer(v.name, *v.dst)
		if err != nil {
			return nil, err
		}
		*v.dst = n
	}

	if ids := os.Getenv("ADMIN_USER_IDS"); ids != "" {
		for _, idStr := range strings.Split(ids, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid admin user ID %q: %w", idStr, err)
			}
			cfg.AdminUserIDs[id] = true
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.DBType {
	case DBTypeSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH must be set for sqlite")
		}
	case DBTypePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if c.SessionSize <= 0 {
		return fmt.Errorf("SESSION_SIZE must be positive, got %d", c.SessionSize)
	}
	if c.MaxNewCards < 0 {
		return fmt.Errorf("MAX_NEW_CARDS must not be negative, got %d", c.MaxNewCards)
	}
	if c.HeatmapDays <= 0 {
		return fmt.Errorf("HEATMAP_DAYS must be positive, got %d", c.HeatmapDays)
	}
	if !validHour(c.NotificationStartHour) || !validHour(c.NotificationEndHour) {
		return fmt.Errorf("notification hours must be within 0-23")
	}
	if c.NotificationStartHour > c.NotificationEndHour {
		return fmt.Errorf("NOTIFICATION_START_HOUR %d is after NOTIFICATION_END_HOUR %d", c.NotificationStartHour, c.NotificationEndHour)
	}
	return nil
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}

func str(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func integer(name string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return i, nil
}
