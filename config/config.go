package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	APIBaseURL        string
	APIToken          string
	HTTPTimeout       time.Duration
	PageSize          int
	SearchDebounce    time.Duration
	StatsPollInterval int
	LogLevel          string
}

// NewConfig creates a new Config instance
func NewConfig() *Config {
	return &Config{}
}

// Load loads configuration from environment variables and an optional .env file
func (c *Config) Load() error {
	return c.LoadFrom(".env")
}

// LoadFrom is Load with an explicit env file path
func (c *Config) LoadFrom(envFile string) error {
	viper.SetConfigFile(envFile)
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("API_BASE_URL", "http://localhost:8080")
	viper.SetDefault("HTTP_TIMEOUT", "30s")
	viper.SetDefault("PAGE_SIZE", 10)
	viper.SetDefault("SEARCH_DEBOUNCE", "500ms")
	viper.SetDefault("STATS_POLL_INTERVAL", 3600)
	viper.SetDefault("LOG_LEVEL", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotExist(err) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	c.APIBaseURL = viper.GetString("API_BASE_URL")
	if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
		return fmt.Errorf("invalid API_BASE_URL %q: %w", c.APIBaseURL, err)
	}

	// Optional; the backend decides which endpoints need it
	c.APIToken = viper.GetString("API_TOKEN")

	timeout, err := durationSetting("HTTP_TIMEOUT", time.Second)
	if err != nil {
		return err
	}
	c.HTTPTimeout = timeout
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}

	c.PageSize = viper.GetInt("PAGE_SIZE")
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive")
	}

	debounce, err := durationSetting("SEARCH_DEBOUNCE", time.Millisecond)
	if err != nil {
		return err
	}
	c.SearchDebounce = debounce
	if c.SearchDebounce <= 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must be positive")
	}

	c.StatsPollInterval = viper.GetInt("STATS_POLL_INTERVAL")
	if c.StatsPollInterval <= 0 {
		c.StatsPollInterval = 3600 // Default to 1 hour
	}

	c.LogLevel = viper.GetString("LOG_LEVEL")

	return nil
}

// PollInterval returns StatsPollInterval as a duration
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.StatsPollInterval) * time.Second
}

// durationSetting reads key as a Go duration ("30s", "250ms"). A bare
// number is taken in unit.
func durationSetting(key string, unit time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(viper.GetString(key))
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * unit, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
