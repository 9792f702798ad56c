package petoneer

import (
	"fmt"
	"strings"
	"time"

	"github.com/joshp123/petoneer/internal/config"
)

// Config defines runtime configuration for the Petoneer client.
type Config struct {
	BaseURL              string
	Username             string
	Password             string
	Country              string
	Timezone             string
	CacheTTL             time.Duration
	MaxRequestsPerMinute int
}

// ConfigFromSettings converts the loaded petoneer config section.
func ConfigFromSettings(cfg config.PetoneerConfig) (Config, error) {
	if cfg.Username == "" {
		return Config{}, fmt.Errorf("petoneer username is required")
	}
	if cfg.CacheSeconds < 0 {
		return Config{}, fmt.Errorf("petoneer cache_seconds must not be negative")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return Config{
		BaseURL:              baseURL,
		Username:             cfg.Username,
		Password:             cfg.Password,
		Country:              cfg.Country,
		Timezone:             cfg.Timezone,
		CacheTTL:             time.Duration(cfg.CacheSeconds) * time.Second,
		MaxRequestsPerMinute: cfg.MaxRequestsPerMinute,
	}, nil
}

// Location resolves the account time zone used to read the device clock.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
