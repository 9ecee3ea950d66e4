// Package config handles configuration loading and defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Default values.
const (
	DefaultAPIURL   = "https://fe-test-api.nwappservice.com"
	DefaultTimeout  = 10 * time.Second
	DefaultDataDir  = "~/.tada"
	DefaultTheme    = "classic"
	DefaultLogLevel = "info"
	ConfigFileName  = "config.toml"
)

// Config holds the full configuration for the client.
type Config struct {
	APIURL   string
	Timeout  time.Duration
	DataDir  string
	Theme    string
	NoColor  bool
	LogLevel string

	// Token forces the bearer token (TADA_TOKEN); never read from a file.
	Token string
}

// fileConfig is the TOML shape; durations are strings like "10s".
type fileConfig struct {
	APIURL   string `toml:"api_url"`
	Timeout  string `toml:"timeout"`
	DataDir  string `toml:"data_dir"`
	Theme    string `toml:"theme"`
	NoColor  *bool  `toml:"no_color"`
	LogLevel string `toml:"log_level"`
}

// Overrides are CLI flag values; zero values leave the setting alone.
type Overrides struct {
	APIURL   string
	Timeout  time.Duration
	Theme    string
	NoColor  bool
	LogLevel string
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		APIURL:   DefaultAPIURL,
		Timeout:  DefaultTimeout,
		DataDir:  expandPath(DefaultDataDir),
		Theme:    DefaultTheme,
		LogLevel: DefaultLogLevel,
	}
}

// Load builds the configuration from, in increasing priority:
// 1. Defaults
// 2. Config file (explicit path, else <data dir>/config.toml when present)
// 3. .env in the working directory (never overrides the real environment)
// 4. Environment variables
// 5. CLI flags
func Load(file string, o Overrides) (*Config, error) {
	cfg := Defaults()

	// .env is read first so TADA_HOME may come from it
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if home := os.Getenv("TADA_HOME"); home != "" {
		cfg.DataDir = expandPath(home)
	}

	explicit := file != ""
	if !explicit {
		file = filepath.Join(cfg.DataDir, ConfigFileName)
	}
	if err := loadConfigFile(cfg, expandPath(file)); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading config file %s: %w", file, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	applyOverrides(cfg, o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return err
	}
	if fc.APIURL != "" {
		cfg.APIURL = fc.APIURL
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if fc.DataDir != "" {
		cfg.DataDir = expandPath(fc.DataDir)
	}
	if fc.Theme != "" {
		cfg.Theme = fc.Theme
	}
	if fc.NoColor != nil {
		cfg.NoColor = *fc.NoColor
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	return nil
}

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TADA_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TADA_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TADA_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("TADA_HOME"); v != "" {
		cfg.DataDir = expandPath(v)
	}
	if v := os.Getenv("TADA_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("TADA_NO_COLOR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TADA_NO_COLOR: %w", err)
		}
		cfg.NoColor = b
	}
	if v := os.Getenv("TADA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("TADA_TOKEN")); v != "" {
		cfg.Token = v
	}
	return nil
}

func applyOverrides(cfg *Config, o Overrides) {
	if o.APIURL != "" {
		cfg.APIURL = o.APIURL
	}
	if o.Timeout > 0 {
		cfg.Timeout = o.Timeout
	}
	if o.Theme != "" {
		cfg.Theme = o.Theme
	}
	if o.NoColor {
		cfg.NoColor = true
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
}

// Validate checks the values that would otherwise fail late.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api url %q must be an absolute http(s) URL", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.DataDir == "" {
		return errors.New("data dir is empty")
	}
	switch strings.ToLower(c.Theme) {
	case "classic", "neon", "mono":
	default:
		return fmt.Errorf("unknown theme %q (want classic, neon or mono)", c.Theme)
	}
	return nil
}

// expandPath expands ~ and environment variables in paths.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}
