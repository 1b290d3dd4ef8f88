package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alumni-informatik/events-server/internal/validation"
)

type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	Uploads     UploadsConfig
	Security    SecurityConfig
	RateLimit   RateLimitConfig
	Logging     LoggingConfig
	Timezone    string
	Environment string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type StorageConfig struct {
	EventsFile  string
	LockTimeout time.Duration
}

type UploadsConfig struct {
	Dir           string
	PublicPath    string
	MaxImageBytes int64
}

type SecurityConfig struct {
	// CSRFSecret is the master secret the CSRF auth key is derived from.
	CSRFSecret string
}

type RateLimitConfig struct {
	PublicPerMinute int
	AdminPerMinute  int
}

type LoggingConfig struct {
	Level  string
	Format string
}

const DefaultMaxImageBytes = 2 << 20 // 2 MiB

// Load builds configuration from environment variables. When path is
// non-empty the YAML file at path supplies defaults first and the
// environment overrides individual values on top.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	if cfg.Security.CSRFSecret == "" {
		return Config{}, fmt.Errorf("CSRF_SECRET is required")
	}
	if len(cfg.Security.CSRFSecret) < 16 {
		return Config{}, fmt.Errorf("CSRF_SECRET must be at least 16 characters")
	}
	if err := validation.ValidateBaseURL(cfg.Server.BaseURL, "SERVER_BASE_URL", false); err != nil {
		return Config{}, err
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid EVENTS_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	return cfg, nil
}

// Location resolves the configured timezone. Load already validated
// it, so a resolution failure falls back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			BaseURL: "http://localhost:8080",
		},
		Storage: StorageConfig{
			EventsFile:  "data/events.json",
			LockTimeout: 5 * time.Second,
		},
		Uploads: UploadsConfig{
			Dir:           "public/uploads",
			PublicPath:    "/uploads",
			MaxImageBytes: DefaultMaxImageBytes,
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute: 120,
			AdminPerMinute:  60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Timezone:    "Europe/Zurich",
		Environment: "development",
	}
}

// fileConfig mirrors Config with yaml tags for the optional config file.
type fileConfig struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`
	Storage struct {
		EventsFile     string `yaml:"events_file"`
		LockTimeoutSec int    `yaml:"lock_timeout_seconds"`
	} `yaml:"storage"`
	Uploads struct {
		Dir           string `yaml:"dir"`
		PublicPath    string `yaml:"public_path"`
		MaxImageBytes int64  `yaml:"max_image_bytes"`
	} `yaml:"uploads"`
	Security struct {
		CSRFSecret string `yaml:"csrf_secret"`
	} `yaml:"security"`
	RateLimit struct {
		PublicPerMinute int `yaml:"public_per_minute"`
		AdminPerMinute  int `yaml:"admin_per_minute"`
	} `yaml:"rate_limit"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Timezone    string `yaml:"timezone"`
	Environment string `yaml:"environment"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	setString(&cfg.Server.Host, fc.Server.Host)
	setInt(&cfg.Server.Port, fc.Server.Port)
	setString(&cfg.Server.BaseURL, fc.Server.BaseURL)
	setString(&cfg.Storage.EventsFile, fc.Storage.EventsFile)
	if fc.Storage.LockTimeoutSec > 0 {
		cfg.Storage.LockTimeout = time.Duration(fc.Storage.LockTimeoutSec) * time.Second
	}
	setString(&cfg.Uploads.Dir, fc.Uploads.Dir)
	setString(&cfg.Uploads.PublicPath, fc.Uploads.PublicPath)
	if fc.Uploads.MaxImageBytes > 0 {
		cfg.Uploads.MaxImageBytes = fc.Uploads.MaxImageBytes
	}
	setString(&cfg.Security.CSRFSecret, fc.Security.CSRFSecret)
	setInt(&cfg.RateLimit.PublicPerMinute, fc.RateLimit.PublicPerMinute)
	setInt(&cfg.RateLimit.AdminPerMinute, fc.RateLimit.AdminPerMinute)
	setString(&cfg.Logging.Level, fc.Logging.Level)
	setString(&cfg.Logging.Format, fc.Logging.Format)
	setString(&cfg.Timezone, fc.Timezone)
	setString(&cfg.Environment, fc.Environment)
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.BaseURL = getEnv("SERVER_BASE_URL", cfg.Server.BaseURL)
	cfg.Storage.EventsFile = getEnv("EVENTS_FILE", cfg.Storage.EventsFile)
	if secs := getEnvInt("EVENTS_LOCK_TIMEOUT_SECONDS", 0); secs > 0 {
		cfg.Storage.LockTimeout = time.Duration(secs) * time.Second
	}
	cfg.Uploads.Dir = getEnv("UPLOAD_DIR", cfg.Uploads.Dir)
	cfg.Uploads.PublicPath = getEnv("UPLOAD_PUBLIC_PATH", cfg.Uploads.PublicPath)
	if max := int64(getEnvInt("UPLOAD_MAX_IMAGE_BYTES", 0)); max > 0 {
		cfg.Uploads.MaxImageBytes = max
	}
	cfg.Security.CSRFSecret = getEnv("CSRF_SECRET", cfg.Security.CSRFSecret)
	cfg.RateLimit.PublicPerMinute = getEnvInt("RATE_LIMIT_PUBLIC", cfg.RateLimit.PublicPerMinute)
	cfg.RateLimit.AdminPerMinute = getEnvInt("RATE_LIMIT_ADMIN", cfg.RateLimit.AdminPerMinute)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	cfg.Timezone = getEnv("EVENTS_TIMEZONE", cfg.Timezone)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setInt(dst *int, value int) {
	if value != 0 {
		*dst = value
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
