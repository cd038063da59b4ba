package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds runtime settings for the client.
type Config struct {
	ServerBaseURL       string
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
	RequestTimeout      time.Duration

	DatabasePath string
	TokenFile    string
	OwnerID      string

	LogLevel string
	LogFile  string

	RetentionDays int

	// Backoff applied by the sync scheduler to retryable failures.
	RetryBase  time.Duration
	RetryMax   time.Duration
	MaxRetries int
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 15 * time.Minute
	c.RequestTimeout = 10 * time.Second
	c.DatabasePath = "nutrisync.db"
	c.LogLevel = "info"
	c.RetentionDays = 90
	c.RetryBase = 2 * time.Second
	c.RetryMax = time.Minute
	c.MaxRetries = 5
}

// Validate reports settings that would make the client misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.ServerBaseURL == "" {
		errs = append(errs, errors.New("server base url is empty"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database path is empty"))
	}
	for name, d := range map[string]time.Duration{
		"online check interval": c.OnlineCheckInterval,
		"sync interval":         c.SyncInterval,
		"request timeout":       c.RequestTimeout,
		"retry base":            c.RetryBase,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("retention days must not be negative, got %d", c.RetentionDays))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries))
	}
	return errors.Join(errs...)
}

// Retention converts RetentionDays into a duration; zero disables purging.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// LoadConfig builds a Config from defaults, then the JSON file named in args
// (if any), then the flags in args. args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
