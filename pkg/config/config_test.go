package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Empty(t, cfg.LogLevelName)
	assert.Equal(t, 5*time.Second, cfg.ScanTimeout)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, BackendGoBLE, cfg.Backend)
	assert.Equal(t, "hci0", cfg.Adapter)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, "table", cfg.OutputFormat)
	assert.True(t, cfg.AllowDuplicates)
	assert.Equal(t, 64, cfg.EventBuffer)
	assert.Nil(t, cfg.ServiceUUIDs)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel logrus.Level
	}{
		{
			name:     "creates logger with debug level",
			logLevel: logrus.DebugLevel,
		},
		{
			name:     "creates logger with info level",
			logLevel: logrus.InfoLevel,
		},
		{
			name:     "creates logger with warn level",
			logLevel: logrus.WarnLevel,
		},
		{
			name:     "creates logger with error level",
			logLevel: logrus.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel: tt.logLevel,
			}

			logger := cfg.NewLogger()

			assert.NotNil(t, logger)
			assert.Equal(t, tt.logLevel, logger.GetLevel())

			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			assert.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log_level: debug
scan_timeout: 10s
backend: tinygo
locale: de
output_format: json
service_uuids: ["181d", "180f"]
allow_duplicates: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.ScanTimeout)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout, "unset keys keep defaults")
	assert.Equal(t, BackendTinyGo, cfg.Backend)
	assert.Equal(t, "de", cfg.Locale)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, []string{"181d", "180f"}, cfg.ServiceUUIDs)
	assert.False(t, cfg.AllowDuplicates)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unterminated"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestConfig_EnvOverrides(t *testing.T) {
	env := map[string]string{
		"BLESCALE_LOG_LEVEL":       "warn",
		"BLESCALE_BACKEND":         "tinygo",
		"BLESCALE_SCAN_TIMEOUT":    "3",
		"BLESCALE_CONNECT_TIMEOUT": "1m",
		"BLESCALE_LOCALE":          "de",
		"BLESCALE_ADAPTER":         "hci1",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnvOverrides(lookup))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, logrus.WarnLevel, cfg.LogLevel)
	assert.Equal(t, BackendTinyGo, cfg.Backend)
	assert.Equal(t, 3*time.Second, cfg.ScanTimeout)
	assert.Equal(t, time.Minute, cfg.ConnectTimeout)
	assert.Equal(t, "de", cfg.Locale)
	assert.Equal(t, "hci1", cfg.Adapter)
}

func TestConfig_EmptyEnvIgnored(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnvOverrides(func(string) (string, bool) { return "", true }))
	assert.Equal(t, BackendGoBLE, cfg.Backend)
	assert.Equal(t, 5*time.Second, cfg.ScanTimeout)
}

func TestConfig_EnvOverrideBadDuration(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnvOverrides(func(k string) (string, bool) {
		if k == "BLESCALE_SCAN_TIMEOUT" {
			return "soon", true
		}
		return "", false
	})
	assert.ErrorContains(t, err, "BLESCALE_SCAN_TIMEOUT")
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{name: "defaults are valid", modify: func(*Config) {}},
		{name: "json format is valid", modify: func(c *Config) { c.OutputFormat = "json" }},
		{name: "unknown format", modify: func(c *Config) { c.OutputFormat = "xml" }, errMsg: "output format"},
		{name: "unknown backend", modify: func(c *Config) { c.Backend = "bluez" }, errMsg: "backend"},
		{name: "unknown locale", modify: func(c *Config) { c.Locale = "fr" }, errMsg: "locale"},
		{name: "bad log level", modify: func(c *Config) { c.LogLevelName = "loud" }, errMsg: "log level"},
		{name: "zero scan timeout", modify: func(c *Config) { c.ScanTimeout = 0 }, errMsg: "scan timeout"},
		{name: "negative connect timeout", modify: func(c *Config) { c.ConnectTimeout = -time.Second }, errMsg: "connect timeout"},
		{name: "zero event buffer", modify: func(c *Config) { c.EventBuffer = 0 }, errMsg: "event buffer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.errMsg)
			}
		})
	}
}

func TestConfig_ZeroValues(t *testing.T) {
	cfg := &Config{}

	logger := cfg.NewLogger()
	assert.NotNil(t, logger)

	// Zero log level is PanicLevel
	assert.Equal(t, logrus.PanicLevel, logger.GetLevel())
	assert.Error(t, cfg.Validate())
}

func BenchmarkDefaultConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DefaultConfig()
	}
}
