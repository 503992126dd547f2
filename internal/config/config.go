// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonathan/meucv/internal/autosave"
	"github.com/jonathan/meucv/internal/completion"
	"github.com/jonathan/meucv/internal/i18n"
	"github.com/jonathan/meucv/internal/storage"
)

// Defaults
const (
	DefaultPort       = 8080
	DefaultStorageURL = "memory://"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or are provided via flags or environment.
type Config struct {
	// Server
	Port int `json:"port,omitempty"` // HTTP listen port

	// Storage
	StorageURL string `json:"storage_url,omitempty"` // memory://, file:///dir, postgres://, redis://, s3://
	Key        string `json:"key,omitempty"`         // Document key, defaults to meucv_current_cv

	// Editing
	AutosaveDelayMS int    `json:"autosave_delay_ms,omitempty"` // Debounce delay in milliseconds
	Locale          string `json:"locale,omitempty"`            // pt or en
	MaxHints        *int   `json:"max_hints,omitempty"`         // Hints shown with the score, 0 for all

	// Preview
	PreviewTemplate string `json:"preview_template,omitempty"` // Path to a custom preview template

	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:            DefaultPort,
		StorageURL:      DefaultStorageURL,
		Key:             storage.KeyCurrentCV,
		AutosaveDelayMS: int(autosave.DefaultDelay / time.Millisecond),
		Locale:          string(i18n.Default),
		MaxHints:        intPtr(completion.DefaultMaxHints),
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads configuration from the environment.
// It reads PORT, MEUCV_STORAGE_URL, MEUCV_KEY, MEUCV_AUTOSAVE_DELAY, MEUCV_LOCALE and MEUCV_MAX_HINTS.
func FromEnv() (*Config, error) {
	cfg := &Config{
		StorageURL:      os.Getenv("MEUCV_STORAGE_URL"),
		Key:             os.Getenv("MEUCV_KEY"),
		Locale:          os.Getenv("MEUCV_LOCALE"),
		PreviewTemplate: os.Getenv("MEUCV_PREVIEW_TEMPLATE"),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT"); err != nil {
		return nil, err
	}
	if os.Getenv("MEUCV_MAX_HINTS") != "" {
		n, err := getEnvInt("MEUCV_MAX_HINTS")
		if err != nil {
			return nil, err
		}
		cfg.MaxHints = &n
	}
	if value := os.Getenv("MEUCV_AUTOSAVE_DELAY"); value != "" {
		d, err := parseDelay(value)
		if err != nil {
			return nil, fmt.Errorf("invalid MEUCV_AUTOSAVE_DELAY: %w", err)
		}
		cfg.AutosaveDelayMS = int(d / time.Millisecond)
	}

	return cfg, nil
}

func getEnvInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

// parseDelay accepts a Go duration ("1.5s") or a bare number of milliseconds ("1500").
func parseDelay(value string) (time.Duration, error) {
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(value)
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.AutosaveDelayMS < 0 {
		return fmt.Errorf("config error: 'autosave_delay_ms' must be non-negative")
	}
	if c.MaxHints != nil && *c.MaxHints < 0 {
		return fmt.Errorf("config error: 'max_hints' must be non-negative")
	}
	if c.Locale != "" && !i18n.Locale(c.Locale).Valid() {
		return fmt.Errorf("config error: unsupported locale %q", c.Locale)
	}

	if c.PreviewTemplate != "" {
		if _, err := os.Stat(c.PreviewTemplate); os.IsNotExist(err) {
			return fmt.Errorf("config error: preview template not found: %s", c.PreviewTemplate)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Sources are layered by chaining: flags.MergeWithDefaults(env.MergeWithDefaults(file...)).
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.StorageURL == "" {
		result.StorageURL = defaults.StorageURL
	}
	if result.Key == "" {
		result.Key = defaults.Key
	}
	if result.Locale == "" {
		result.Locale = defaults.Locale
	}
	if result.PreviewTemplate == "" {
		result.PreviewTemplate = defaults.PreviewTemplate
	}

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.AutosaveDelayMS == 0 {
		result.AutosaveDelayMS = defaults.AutosaveDelayMS
	}
	// Zero hints means all of them, so only an unset value is filled.
	if result.MaxHints == nil {
		result.MaxHints = defaults.MaxHints
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// AutosaveDelay returns the debounce delay as a duration.
func (c *Config) AutosaveDelay() time.Duration {
	return time.Duration(c.AutosaveDelayMS) * time.Millisecond
}

// Hints returns the number of hints shown with a score, 0 meaning all.
func (c *Config) Hints() int {
	if c.MaxHints == nil {
		return completion.DefaultMaxHints
	}
	return *c.MaxHints
}

func intPtr(n int) *int { return &n }

// Lang returns the configured locale, falling back to pt.
func (c *Config) Lang() i18n.Locale {
	return i18n.Parse(c.Locale)
}
