// Package config provides YAML configuration parsing for superlists.
//
// This package enables running the application as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: To-Do lists
//	port: 8000
//
//	database:
//	  driver: sqlite
//	  path: ${SUPERLISTS_DB:-superlists.db}
//
//	wait:
//	  timeout: 5s
//	  interval: 500ms
//
//	smoke:
//	  url: https://lists.example.com
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DriverMemory keeps lists in process memory.
	DriverMemory = "memory"

	// DriverSQLite keeps lists in a SQLite database file.
	DriverSQLite = "sqlite"

	defaultPort         = 8000
	defaultWaitTimeout  = 5 * time.Second
	defaultWaitInterval = 500 * time.Millisecond
)

// Config is the root configuration structure for superlists.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the page title. Defaults to "To-Do lists" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8000.
	Port int `yaml:"port"`

	// Database selects where lists are stored.
	Database DatabaseConfig `yaml:"database"`

	// Wait tunes the polling used by acceptance checks.
	Wait WaitConfig `yaml:"wait"`

	// Smoke configures the smoke command.
	Smoke SmokeConfig `yaml:"smoke"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	// Driver is "memory" (default) or "sqlite".
	Driver string `yaml:"driver"`

	// Path is the SQLite database file. Required for the sqlite driver.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Path string `yaml:"path"`
}

// WaitConfig holds the polling parameters for acceptance checks.
type WaitConfig struct {
	// Timeout is how long a pending check is retried. Defaults to 5s.
	Timeout Duration `yaml:"timeout"`

	// Interval is the delay between attempts. Defaults to 500ms.
	Interval Duration `yaml:"interval"`
}

// SmokeConfig configures the deployment checked by the smoke command.
type SmokeConfig struct {
	// URL is the base URL of the deployment.
	// Defaults to http://localhost:<port>.
	// Supports environment variable substitution.
	URL string `yaml:"url"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in database.path and smoke.url.
// Defaults are applied for Port (8000), Database.Driver (memory) and the
// wait durations (5s timeout, 500ms interval).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMemory
	}
	if c.Wait.Timeout == 0 {
		c.Wait.Timeout = Duration(defaultWaitTimeout)
	}
	if c.Wait.Interval == 0 {
		c.Wait.Interval = Duration(defaultWaitInterval)
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverMemory:
		// path is ignored
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database: path is required for the %q driver", DriverSQLite)
		}
		expanded, err := expandEnvVars(c.Database.Path)
		if err != nil {
			return fmt.Errorf("database: path: %w", err)
		}
		if expanded == "" {
			return fmt.Errorf("database: path %q expands to an empty string", c.Database.Path)
		}
		c.Database.Path = expanded
	default:
		return fmt.Errorf("database: unknown driver %q (expected %q or %q)", c.Database.Driver, DriverMemory, DriverSQLite)
	}

	if err := c.Wait.validate(); err != nil {
		return err
	}

	if c.Smoke.URL != "" {
		expanded, err := expandEnvVars(c.Smoke.URL)
		if err != nil {
			return fmt.Errorf("smoke: url: %w", err)
		}
		if err := ValidateBaseURL(expanded); err != nil {
			return fmt.Errorf("smoke: %w", err)
		}
		c.Smoke.URL = expanded
	}

	return nil
}

// ValidateBaseURL checks that raw is an absolute http or https URL.
func ValidateBaseURL(raw string) error {
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("url %q must have a scheme (http:// or https://)", raw)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("url %q must have a host", raw)
	}
	return nil
}

// SmokeURL returns the deployment checked by the smoke command.
func (c *Config) SmokeURL() string {
	if c.Smoke.URL != "" {
		return c.Smoke.URL
	}
	return fmt.Sprintf("http://localhost:%d", c.Port)
}

// validate checks the polling parameters. It runs again in [NewWaiter] so
// flag overrides applied after [Parse] are held to the same rules.
func (w WaitConfig) validate() error {
	if w.Timeout.Duration() <= 0 {
		return fmt.Errorf("wait: timeout must be positive, got %s", w.Timeout.Duration())
	}
	if w.Interval.Duration() <= 0 {
		return fmt.Errorf("wait: interval must be positive, got %s", w.Interval.Duration())
	}
	if w.Interval > w.Timeout {
		return fmt.Errorf("wait: interval %s must not exceed timeout %s",
			w.Interval.Duration(), w.Timeout.Duration())
	}
	return nil
}
