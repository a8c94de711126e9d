package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	BackendGoBLE  = "goble"
	BackendTinyGo = "tinygo"

	envPrefix = "BLESCALE_"
)

// Config holds application configuration. Adapter names the HCI device
// used by the go-ble backend on Linux and watched over BlueZ; the tinygo
// backend always uses the platform default adapter.
type Config struct {
	LogLevel        logrus.Level  `yaml:"-"`
	LogLevelName    string        `yaml:"log_level"` // empty means not configured
	ScanTimeout     time.Duration `yaml:"scan_timeout" default:"5s"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" default:"30s"`
	Backend         string        `yaml:"backend" default:"goble"`
	Adapter         string        `yaml:"adapter" default:"hci0"`
	Locale          string        `yaml:"locale" default:"en"`
	OutputFormat    string        `yaml:"output_format" default:"table"`
	ServiceUUIDs    []string      `yaml:"service_uuids"`
	AllowDuplicates bool          `yaml:"allow_duplicates" default:"true"`
	EventBuffer     int           `yaml:"event_buffer" default:"64"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	cfg.LogLevel = logrus.InfoLevel
	return cfg
}

// DefaultPath returns ~/.config/blescale/config.yaml, or "" if the home
// directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "blescale", "config.yaml")
}

// Load reads a YAML file over the defaults. An empty path loads DefaultPath
// when it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnvOverrides(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies BLESCALE_* variables read through lookup.
// Empty values are ignored.
func (c *Config) ApplyEnvOverrides(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(envPrefix + name)
		return v, ok && v != ""
	}
	for name, dst := range map[string]*string{
		"LOG_LEVEL": &c.LogLevelName,
		"BACKEND":   &c.Backend,
		"ADAPTER":   &c.Adapter,
		"LOCALE":    &c.Locale,
	} {
		if v, ok := get(name); ok {
			*dst = v
		}
	}
	for name, dst := range map[string]*time.Duration{
		"SCAN_TIMEOUT":    &c.ScanTimeout,
		"CONNECT_TIMEOUT": &c.ConnectTimeout,
	} {
		v, ok := get(name)
		if !ok {
			continue
		}
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
		}
		*dst = d
	}
	return nil
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// Validate checks enumerations and durations and resolves LogLevel.
func (c *Config) Validate() error {
	if c.LogLevelName != "" {
		level, err := logrus.ParseLevel(c.LogLevelName)
		if err != nil {
			return fmt.Errorf("invalid log level %q", c.LogLevelName)
		}
		c.LogLevel = level
	}

	if c.ScanTimeout <= 0 {
		return fmt.Errorf("scan timeout must be positive, got %v", c.ScanTimeout)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect timeout must not be negative, got %v", c.ConnectTimeout)
	}
	if c.EventBuffer <= 0 {
		return fmt.Errorf("event buffer must be positive, got %d", c.EventBuffer)
	}

	switch c.Backend {
	case BackendGoBLE, BackendTinyGo:
	default:
		return fmt.Errorf("unknown backend %q (expected %s or %s)", c.Backend, BackendGoBLE, BackendTinyGo)
	}
	switch c.OutputFormat {
	case "table", "json":
	default:
		return fmt.Errorf("unknown output format %q (expected table or json)", c.OutputFormat)
	}
	switch strings.ToLower(c.Locale) {
	case "en", "de":
	default:
		return fmt.Errorf("unsupported locale %q (expected en or de)", c.Locale)
	}
	return nil
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
