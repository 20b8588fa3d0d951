package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BotToken        string `envconfig:"BOT_TOKEN"`
	DatabaseURL     string `envconfig:"DATABASE_URL" required:"true"`
	AllowedAdminIDs string `envconfig:"ALLOWED_ADMIN_IDS"`

	HTTPAddr             string   `envconfig:"HTTP_ADDR" default:":8080"`
	CORSAllowedOrigins   []string `envconfig:"CORS_ALLOWED_ORIGINS"`
	CORSAllowCredentials bool     `envconfig:"CORS_ALLOW_CREDENTIALS" default:"false"`
	JWTSecret            string   `envconfig:"JWT_SECRET"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error

	ReminderInterval time.Duration `envconfig:"REMINDER_INTERVAL" default:"5m"`
	ReminderOffsets  string        `envconfig:"REMINDER_OFFSETS" default:"2h,15m"`
	DisplayTZ        string        `envconfig:"DISPLAY_TZ" default:"Europe/Moscow"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}

	origins := cfg.CORSAllowedOrigins[:0]
	for _, o := range cfg.CORSAllowedOrigins {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	cfg.CORSAllowedOrigins = origins

	if _, err := cfg.AdminIDs(); err != nil {
		return cfg, err
	}
	if _, err := cfg.Offsets(); err != nil {
		return cfg, err
	}
	if _, err := cfg.Location(); err != nil {
		return cfg, fmt.Errorf("DISPLAY_TZ: %w", err)
	}
	if cfg.ReminderInterval <= 0 {
		return cfg, fmt.Errorf("REMINDER_INTERVAL must be positive, got %s", cfg.ReminderInterval)
	}
	return cfg, nil
}

// AdminIDs parses ALLOWED_ADMIN_IDS into Telegram user ids.
func (c Config) AdminIDs() ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(c.AllowedAdminIDs, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ALLOWED_ADMIN_IDS: invalid id %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}

// Offsets parses REMINDER_OFFSETS ("2h,15m") into durations.
func (c Config) Offsets() ([]time.Duration, error) {
	var out []time.Duration
	for _, part := range strings.Split(c.ReminderOffsets, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.ParseDuration(part)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("REMINDER_OFFSETS: invalid offset %q", part)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("REMINDER_OFFSETS: at least one offset required")
	}
	return out, nil
}

func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.DisplayTZ)
}
