package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/scribe/internal/bridge"
	"github.com/florianilch/scribe/internal/credstore"
	"github.com/florianilch/scribe/internal/observability"
	"github.com/florianilch/scribe/internal/shortcut"
	"github.com/florianilch/scribe/internal/watch"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// CredentialStorageType represents the backends supported for the API key.
type CredentialStorageType string

const (
	CredentialStorageTypeKeyring CredentialStorageType = "keyring"
	CredentialStorageTypeFile    CredentialStorageType = "file"
	CredentialStorageTypeEnv     CredentialStorageType = "env"
)

// Default configuration values
const (
	DefaultConfigLogFormat           = LogFormatText
	DefaultConfigServerHost          = "127.0.0.1"
	DefaultConfigServerPort          = 1430
	DefaultConfigServerMaxBodyBytes  = bridge.DefaultMaxBodyBytes
	DefaultConfigServerHeartbeat     = bridge.DefaultHeartbeat
	DefaultConfigShutdownTimeout     = 5 * time.Second
	DefaultConfigCredentialStorage   = CredentialStorageTypeKeyring
	DefaultConfigCredentialService   = "scribe"
	DefaultConfigCredentialKey       = "api_key"
	DefaultConfigShortcutAccelerator = shortcut.DefaultAccelerator
	DefaultConfigWatchSuppressWindow = watch.DefaultSuppressWindow
	DefaultConfigTelemetryExporter   = observability.ExporterNone
)

// ServerConfig holds bridge server configuration.
type ServerConfig struct {
	Host         string        `json:"host" validate:"hostname_rfc1123|ip"`
	Port         uint16        `json:"port"` // Port range 0-65535 handled by uint16 type
	MaxBodyBytes int64         `json:"max_body_bytes" validate:"gte=0"`
	Heartbeat    time.Duration `json:"heartbeat" validate:"gte=0"`
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// CredentialsConfig describes where the API key is stored.
type CredentialsConfig struct {
	Storage CredentialStorageType `json:"storage" validate:"required,oneof=keyring file env"`

	// Keyring identifiers: one fixed service/key pair
	Service string `json:"service,omitempty"`
	Key     string `json:"key,omitempty"`

	File   string `json:"file,omitempty"`    // For file storage: path to the key file
	EnvKey string `json:"env_key,omitempty"` // For env storage: environment variable name
}

// NewStore creates a credstore.Store from the credentials configuration.
func (c *CredentialsConfig) NewStore() (credstore.Store, error) {
	switch c.Storage {
	case CredentialStorageTypeKeyring:
		return credstore.NewKeyringStore(c.Service, c.Key)
	case CredentialStorageTypeFile:
		return credstore.NewFileStore(c.File)
	case CredentialStorageTypeEnv:
		return credstore.NewEnvStore(c.EnvKey)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.Storage)
	}
}

// ShortcutConfig holds global shortcut configuration.
type ShortcutConfig struct {
	Disabled    bool   `json:"disabled"`
	Accelerator string `json:"accelerator"`
}

// WatchConfig holds file watcher configuration.
type WatchConfig struct {
	Enabled bool `json:"enabled"`
	// SuppressWindow ignores changes this long after the app writes a file itself.
	SuppressWindow time.Duration `json:"suppress_window" validate:"gte=0"`
}

// TelemetryConfig holds OpenTelemetry log export configuration.
type TelemetryConfig struct {
	Exporter observability.Exporter `json:"exporter" validate:"oneof=none stdout otlp-http otlp-grpc"`
	Endpoint string                 `json:"endpoint,omitempty" validate:"omitempty,url"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel    slog.Level        `json:"log_level"`
	LogFormat   LogFormat         `json:"log_format" validate:"oneof=text json"`
	Server      ServerConfig      `json:"server"`
	Shutdown    ShutdownConfig    `json:"shutdown"`
	Credentials CredentialsConfig `json:"credentials"`
	Shortcut    ShortcutConfig    `json:"shortcut"`
	Watch       WatchConfig       `json:"watch"`
	Telemetry   TelemetryConfig   `json:"telemetry"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultConfigServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultConfigServerPort
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultConfigServerMaxBodyBytes
	}
	if c.Server.Heartbeat == 0 {
		c.Server.Heartbeat = DefaultConfigServerHeartbeat
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}
	if c.Credentials.Storage == "" {
		c.Credentials.Storage = DefaultConfigCredentialStorage
	}
	if c.Shortcut.Accelerator == "" {
		c.Shortcut.Accelerator = DefaultConfigShortcutAccelerator
	}
	if c.Watch.SuppressWindow == 0 {
		c.Watch.SuppressWindow = DefaultConfigWatchSuppressWindow
	}
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = DefaultConfigTelemetryExporter
	}

	// Dynamic defaults based on storage type
	switch c.Credentials.Storage {
	case CredentialStorageTypeKeyring:
		if c.Credentials.Service == "" {
			c.Credentials.Service = DefaultConfigCredentialService
		}
		if c.Credentials.Key == "" {
			c.Credentials.Key = DefaultConfigCredentialKey
		}
	case CredentialStorageTypeFile:
		if c.Credentials.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("credentials.file required (auto-detect failed: %w)", err)
			}
			c.Credentials.File = filepath.Join(configDir, DefaultConfigCredentialService, DefaultConfigCredentialKey)
		}
	case CredentialStorageTypeEnv:
		// env_key must be explicitly configured (no sensible default)
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Credentials.Storage {
	case CredentialStorageTypeKeyring:
		if c.Credentials.Service == "" || c.Credentials.Key == "" {
			return errors.New("service and key required for keyring storage")
		}
	case CredentialStorageTypeFile:
		if c.Credentials.File == "" {
			return errors.New("file path required for file storage")
		}
	case CredentialStorageTypeEnv:
		if c.Credentials.EnvKey == "" {
			return errors.New("env_key required for env storage")
		}
	}

	return nil
}
