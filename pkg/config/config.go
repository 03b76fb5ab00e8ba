package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadFromEnv.
const (
	EnvUsername          = "INSTAPI_USERNAME"
	EnvPassword          = "INSTAPI_PASSWORD"
	EnvUserAgent         = "INSTAPI_USER_AGENT"
	EnvBaseURL           = "INSTAPI_BASE_URL"
	EnvCacheDir          = "INSTAPI_CACHE_DIR"
	EnvSessionBackend    = "INSTAPI_SESSION_BACKEND"
	EnvCachePassphrase   = "INSTAPI_CACHE_PASSPHRASE"
	EnvRequestsPerMinute = "INSTAPI_REQUESTS_PER_MINUTE"
	EnvMaxRetries        = "INSTAPI_MAX_RETRIES"
	EnvOutputDir         = "INSTAPI_OUTPUT_DIR"
	EnvLogLevel          = "INSTAPI_LOG_LEVEL"
)

// Session backends.
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
	BackendNone    = "none"
)

// Config holds all configuration options for the API layer
type Config struct {
	// Account and remote endpoint
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Credential-keyed session cache
	Session SessionConfig `yaml:"session" json:"session"`

	// Client-side request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Transport retry policy
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Media downloads
	Download DownloadConfig `yaml:"download" json:"download"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds account credentials and endpoint settings
type InstagramConfig struct {
	Username  string        `yaml:"username" json:"username"`
	Password  string        `yaml:"-" json:"-"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	AppID     string        `yaml:"app_id" json:"app_id"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// SessionConfig selects where session cookies are cached
type SessionConfig struct {
	Backend    string `yaml:"backend" json:"backend"`
	CacheDir   string `yaml:"cache_dir" json:"cache_dir"`
	Passphrase string `yaml:"-" json:"-"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig controls retries of transient transport failures
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	OutputDir  string        `yaml:"output_dir" json:"output_dir"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	Overwrite  bool          `yaml:"overwrite" json:"overwrite"`
	Concurrent int           `yaml:"concurrent" json:"concurrent"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	File   string `yaml:"file" json:"file"`
	Format string `yaml:"format" json:"format"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent: "Instagram 121.0.0.29.119 Android (26/8.0.0; 480dpi; 1080x1920; Xiaomi; MI 5s; capricorn; qcom; en_US; 185203708)",
			BaseURL:   "https://i.instagram.com/api/v1/",
			AppID:     "567067343352427",
			Timeout:   30 * time.Second,
		},
		Session: SessionConfig{
			Backend: BackendFile,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
			Multiplier:  2.0,
		},
		Download: DownloadConfig{
			OutputDir:  "./downloads",
			Timeout:    60 * time.Second,
			Concurrent: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv(EnvUsername); v != "" {
		c.Instagram.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.Instagram.Password = v
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		c.Instagram.UserAgent = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Instagram.BaseURL = v
	}

	if v := os.Getenv(EnvCacheDir); v != "" {
		c.Session.CacheDir = v
	}
	if v := os.Getenv(EnvSessionBackend); v != "" {
		c.Session.Backend = strings.ToLower(v)
	}
	if v := os.Getenv(EnvCachePassphrase); v != "" {
		c.Session.Passphrase = v
	}

	var errs []error
	if v := os.Getenv(EnvRequestsPerMinute); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvRequestsPerMinute, err))
		} else if n > 0 {
			c.RateLimit.RequestsPerMinute = n
		}
	}
	if v := os.Getenv(EnvMaxRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMaxRetries, err))
		} else {
			c.Retry.MaxAttempts = n
		}
	}

	if v := os.Getenv(EnvOutputDir); v != "" {
		c.Download.OutputDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		".instapi.yaml",
		".instapi.yml",
	}
	if home != "" {
		locations = append(locations,
			filepath.Join(home, ".config", "instapi", "config.yaml"),
			filepath.Join(home, ".config", "instapi", "config.yml"),
		)
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are checked at
// bind time, not here.
func (c *Config) Validate() error {
	var errs []error

	if c.Instagram.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	} else if !strings.HasSuffix(c.Instagram.BaseURL, "/") {
		errs = append(errs, errors.New("base URL must end with a slash"))
	}
	if c.Instagram.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	switch c.Session.Backend {
	case BackendFile, BackendKeyring, BackendNone:
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.Session.Backend))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry attempts must be at least 1"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}

	if c.Download.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Download.Concurrent < 1 {
		errs = append(errs, errors.New("concurrent downloads must be at least 1"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	if c.Logging.Format != "" && c.Logging.Format != "console" && c.Logging.Format != "json" {
		errs = append(errs, errors.New("log format must be console or json"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file. Secrets are never written.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags applies non-empty flag values on top of the config
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if username, ok := flags["username"].(string); ok && username != "" {
		c.Instagram.Username = username
	}
	if password, ok := flags["password"].(string); ok && password != "" {
		c.Instagram.Password = password
	}
	if cacheDir, ok := flags["cache-dir"].(string); ok && cacheDir != "" {
		c.Session.CacheDir = cacheDir
	}
	if backend, ok := flags["session-backend"].(string); ok && backend != "" {
		c.Session.Backend = backend
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Download.OutputDir = outputDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.Concurrent = concurrent
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".instapi.env"))
	}

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
