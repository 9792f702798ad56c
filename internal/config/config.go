package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	SchemaVersion               = 1
	DefaultPath                 = "/etc/petoneer/config.yaml"
	DefaultGRPCAddr             = "0.0.0.0:9000"
	DefaultHTTPAddr             = "0.0.0.0:8080"
	DefaultDashboardDir         = "/var/lib/petoneer/dashboards"
	DefaultLogLevel             = "info"
	DefaultBaseURL              = "https://as.revogi.net/app"
	DefaultCountry              = "AU"
	DefaultTimezone             = "Australia/Sydney"
	DefaultCacheSeconds         = 30
	DefaultMaxRequestsPerMinute = 30
	DefaultTopicPrefix          = "petoneer"
	envPrefix                   = "PETONEER"
)

// Config is the full runtime configuration.
type Config struct {
	SchemaVersion int            `mapstructure:"schema_version"`
	Core          CoreConfig     `mapstructure:"core"`
	Petoneer      PetoneerConfig `mapstructure:"petoneer"`
	MQTT          MQTTConfig     `mapstructure:"mqtt"`
}

type CoreConfig struct {
	GRPCAddr     string `mapstructure:"grpc_addr"`
	HTTPAddr     string `mapstructure:"http_addr"`
	DashboardDir string `mapstructure:"dashboard_dir"`
	LogLevel     string `mapstructure:"log_level"`
}

// PetoneerConfig holds cloud account settings. The account is enabled when a
// username is set.
type PetoneerConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	Username             string `mapstructure:"username"`
	Password             string `mapstructure:"password"`
	PasswordFile         string `mapstructure:"password_file"`
	Country              string `mapstructure:"country"`
	Timezone             string `mapstructure:"timezone"`
	CacheSeconds         int    `mapstructure:"cache_seconds"`
	MaxRequestsPerMinute int    `mapstructure:"max_requests_per_minute"`
}

type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
}

// Load reads the YAML config file, overlays PETONEER_* environment variables,
// applies defaults, and validates. An empty path loads from the environment
// only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads path when given, else DefaultPath when it exists, else
// the environment alone.
func LoadDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return Load(DefaultPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config: %w", err)
	}
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("schema_version", SchemaVersion)
	v.SetDefault("core.grpc_addr", DefaultGRPCAddr)
	v.SetDefault("core.http_addr", DefaultHTTPAddr)
	v.SetDefault("core.dashboard_dir", DefaultDashboardDir)
	v.SetDefault("core.log_level", DefaultLogLevel)
	v.SetDefault("petoneer.base_url", DefaultBaseURL)
	v.SetDefault("petoneer.username", "")
	v.SetDefault("petoneer.password", "")
	v.SetDefault("petoneer.password_file", "")
	v.SetDefault("petoneer.country", DefaultCountry)
	v.SetDefault("petoneer.timezone", DefaultTimezone)
	v.SetDefault("petoneer.cache_seconds", DefaultCacheSeconds)
	v.SetDefault("petoneer.max_requests_per_minute", DefaultMaxRequestsPerMinute)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.topic_prefix", DefaultTopicPrefix)
	v.SetDefault("mqtt.client_id", "")
}

func applyDefaults(cfg *Config) error {
	if cfg.Core.LogLevel == "" {
		cfg.Core.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(cfg.Petoneer.BaseURL) == "" {
		cfg.Petoneer.BaseURL = DefaultBaseURL
	}
	if cfg.Petoneer.Password == "" && cfg.Petoneer.PasswordFile != "" {
		password, err := readSecretFile(cfg.Petoneer.PasswordFile)
		if err != nil {
			return fmt.Errorf("read petoneer password: %w", err)
		}
		cfg.Petoneer.Password = password
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = DefaultTopicPrefix
	}
	return nil
}

// Validate enforces required invariants beyond decoding.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if cfg.SchemaVersion != SchemaVersion {
		return fmt.Errorf("schema_version must be %d", SchemaVersion)
	}

	if cfg.Core.GRPCAddr == "" {
		return fmt.Errorf("core.grpc_addr is required")
	}
	if cfg.Core.HTTPAddr == "" {
		return fmt.Errorf("core.http_addr is required")
	}
	switch cfg.Core.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("core.log_level %q is not one of debug|info|warn|error", cfg.Core.LogLevel)
	}

	if cfg.Petoneer.Username != "" {
		if cfg.Petoneer.Password == "" {
			return fmt.Errorf("petoneer.password or petoneer.password_file is required")
		}
		if cfg.Petoneer.Country == "" {
			return fmt.Errorf("petoneer.country is required")
		}
		if cfg.Petoneer.Timezone == "" {
			return fmt.Errorf("petoneer.timezone is required")
		}
	}
	if cfg.Petoneer.CacheSeconds < 0 {
		return fmt.Errorf("petoneer.cache_seconds must not be negative")
	}
	if cfg.Petoneer.MaxRequestsPerMinute <= 0 {
		return fmt.Errorf("petoneer.max_requests_per_minute must be positive")
	}

	return nil
}

// EnabledPlugins maps enabled plugin IDs based on config presence.
func EnabledPlugins(cfg *Config) map[string]bool {
	enabled := make(map[string]bool)
	if cfg == nil {
		return enabled
	}
	if cfg.Petoneer.Username != "" {
		enabled["petoneer"] = true
	}
	return enabled
}

func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
