// Package config provides application configuration management.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sigs.k8s.io/yaml"
)

// Config holds all application configuration.
type Config struct {
	// BigBooks API
	APIBaseURL      string        `json:"apiBaseUrl"`
	AdminUserID     string        `json:"adminUserId"`
	DefaultPassword string        `json:"defaultUserPassword"`
	RequestTimeout  time.Duration `json:"-"`
	// InsecureSkipVerify accepts self-signed development certificates.
	InsecureSkipVerify bool `json:"insecureSkipVerify"`

	// API process launch
	APIRunCommand         string        `json:"apiRunCommand"`
	APIProjectPath        string        `json:"apiProjectPath"`
	APILaunchDelay        time.Duration `json:"-"`
	APIStatusMessage      string        `json:"apiStatusMessage"`
	ReadinessMode         string        `json:"readinessMode"`
	ReadinessPollInterval time.Duration `json:"-"`

	// Local catalog
	DatabaseFile string `json:"databaseFile"`

	// Logging + observability
	LoggingLevel  string `json:"loggingLevel"`
	LogDir        string `json:"logDir"`
	MetricsAddr   string `json:"metricsAddr"`
	RedisAddr     string `json:"redisAddr"`
	RedisPassword string `json:"-"`
	RedisDB       int    `json:"redisDb"`
	EventsChannel string `json:"eventsChannel"`
}

// fileConfig mirrors the on-disk layout; durations are written as seconds or
// Go duration strings to stay compatible with app-config.json files.
type fileConfig struct {
	Config
	APILaunchDelaySec     *float64 `json:"apiLaunchDelaySec"`
	RequestTimeout        string   `json:"requestTimeout"`
	ReadinessPollInterval string   `json:"readinessPollInterval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIBaseURL:            "https://localhost:7119",
		AdminUserID:           "admin@demo",
		RequestTimeout:        30 * time.Second,
		APIRunCommand:         "dotnet run",
		APIProjectPath:        ".",
		APILaunchDelay:        10 * time.Second,
		APIStatusMessage:      "Now listening on",
		ReadinessMode:         "poll",
		ReadinessPollInterval: 100 * time.Millisecond,
		DatabaseFile:          "BigBooks.db",
		LoggingLevel:          "info",
		LogDir:                "logs",
		EventsChannel:         "bigbooks-events",
	}
}

// Load builds the configuration from defaults, the optional file at path and
// BIGBOOKS_* environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	fc := fileConfig{Config: *c}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	next := fc.Config
	if fc.APILaunchDelaySec != nil {
		next.APILaunchDelay = time.Duration(*fc.APILaunchDelaySec * float64(time.Second))
	}
	if fc.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("config requestTimeout: %w", err)
		}
		next.RequestTimeout = d
	}
	if fc.ReadinessPollInterval != "" {
		d, err := time.ParseDuration(fc.ReadinessPollInterval)
		if err != nil {
			return fmt.Errorf("config readinessPollInterval: %w", err)
		}
		next.ReadinessPollInterval = d
	}
	*c = next
	return nil
}

func (c *Config) applyEnv() {
	c.APIBaseURL = getEnv("BIGBOOKS_API_BASE_URL", c.APIBaseURL)
	c.AdminUserID = getEnv("BIGBOOKS_ADMIN_USER_ID", c.AdminUserID)
	c.DefaultPassword = getEnv("BIGBOOKS_DEFAULT_PASSWORD", c.DefaultPassword)
	c.RequestTimeout = getEnvDuration("BIGBOOKS_REQUEST_TIMEOUT", c.RequestTimeout)
	c.InsecureSkipVerify = getEnvBool("BIGBOOKS_INSECURE_SKIP_VERIFY", c.InsecureSkipVerify)
	c.APIRunCommand = getEnv("BIGBOOKS_API_RUN_COMMAND", c.APIRunCommand)
	c.APIProjectPath = getEnv("BIGBOOKS_API_PROJECT_PATH", c.APIProjectPath)
	c.APILaunchDelay = getEnvDuration("BIGBOOKS_API_LAUNCH_DELAY", c.APILaunchDelay)
	c.APIStatusMessage = getEnv("BIGBOOKS_API_STATUS_MESSAGE", c.APIStatusMessage)
	c.ReadinessMode = getEnv("BIGBOOKS_READINESS_MODE", c.ReadinessMode)
	c.ReadinessPollInterval = getEnvDuration("BIGBOOKS_READINESS_POLL_INTERVAL", c.ReadinessPollInterval)
	c.DatabaseFile = getEnv("BIGBOOKS_DATABASE_FILE", c.DatabaseFile)
	c.LoggingLevel = getEnv("BIGBOOKS_LOG_LEVEL", c.LoggingLevel)
	c.LogDir = getEnv("BIGBOOKS_LOG_DIR", c.LogDir)
	c.MetricsAddr = getEnv("BIGBOOKS_METRICS_ADDR", c.MetricsAddr)
	c.RedisAddr = getEnv("BIGBOOKS_REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("BIGBOOKS_REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("BIGBOOKS_REDIS_DB", c.RedisDB)
	c.EventsChannel = getEnv("BIGBOOKS_EVENTS_CHANNEL", c.EventsChannel)
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return errors.New("apiBaseUrl is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("requestTimeout must be positive, got %s", c.RequestTimeout)
	}
	if c.APILaunchDelay < 0 {
		return fmt.Errorf("apiLaunchDelaySec must not be negative, got %s", c.APILaunchDelay)
	}
	switch strings.ToLower(c.ReadinessMode) {
	case "", "poll", "fixed":
	default:
		return fmt.Errorf("readinessMode must be poll or fixed, got %q", c.ReadinessMode)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s: %s, using default %s", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Invalid bool for %s: %s, using default %t", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s: %s, using default %d", key, value, defaultValue)
	}
	return defaultValue
}
