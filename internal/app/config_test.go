package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/scribe/internal/credstore"
	"github.com/florianilch/scribe/internal/observability"
	"github.com/florianilch/scribe/internal/shortcut"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, uint16(1430), cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Shutdown.Timeout)
	assert.Equal(t, CredentialStorageTypeKeyring, cfg.Credentials.Storage)
	assert.Equal(t, "scribe", cfg.Credentials.Service)
	assert.Equal(t, "api_key", cfg.Credentials.Key)
	assert.Equal(t, shortcut.DefaultAccelerator, cfg.Shortcut.Accelerator)
	assert.False(t, cfg.Shortcut.Disabled)
	assert.False(t, cfg.Watch.Enabled)
	assert.Equal(t, observability.ExporterNone, cfg.Telemetry.Exporter)

	require.NoError(t, cfg.Validate())
}

func TestApplyDefaults_FileStorageDefaultsToUserConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := &Config{Credentials: CredentialsConfig{Storage: CredentialStorageTypeFile}}
	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, "api_key", filepath.Base(cfg.Credentials.File))
	assert.Equal(t, "scribe", filepath.Base(filepath.Dir(cfg.Credentials.File)))
	assert.Empty(t, cfg.Credentials.Service, "keyring identifiers only default for keyring storage")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "bad host", mutate: func(c *Config) { c.Server.Host = "not a host!" }, wantErr: true},
		{name: "unknown storage", mutate: func(c *Config) { c.Credentials.Storage = "vault" }, wantErr: true},
		{name: "env storage without key", mutate: func(c *Config) { c.Credentials.Storage = CredentialStorageTypeEnv }, wantErr: true},
		{
			name: "env storage with key",
			mutate: func(c *Config) {
				c.Credentials.Storage = CredentialStorageTypeEnv
				c.Credentials.EnvKey = "SCRIBE_API_KEY"
			},
		},
		{name: "file storage without path", mutate: func(c *Config) { c.Credentials.Storage = CredentialStorageTypeFile }, wantErr: true},
		{name: "keyring without service", mutate: func(c *Config) { c.Credentials.Service = "" }, wantErr: true},
		{name: "unknown exporter", mutate: func(c *Config) { c.Telemetry.Exporter = "kafka" }, wantErr: true},
		{name: "bad endpoint", mutate: func(c *Config) { c.Telemetry.Endpoint = "::not a url" }, wantErr: true},
		{
			name:   "invalid accelerator is not a config error",
			mutate: func(c *Config) { c.Shortcut.Accelerator = "Hyper+S" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCredentialsConfig_NewStore(t *testing.T) {
	t.Run("keyring", func(t *testing.T) {
		c := CredentialsConfig{Storage: CredentialStorageTypeKeyring, Service: "scribe", Key: "api_key"}
		store, err := c.NewStore()
		require.NoError(t, err)
		assert.IsType(t, &credstore.KeyringStore{}, store)
	})

	t.Run("file", func(t *testing.T) {
		c := CredentialsConfig{Storage: CredentialStorageTypeFile, File: filepath.Join(t.TempDir(), "api_key")}
		store, err := c.NewStore()
		require.NoError(t, err)
		assert.IsType(t, &credstore.FileStore{}, store)
	})

	t.Run("env", func(t *testing.T) {
		c := CredentialsConfig{Storage: CredentialStorageTypeEnv, EnvKey: "SCRIBE_API_KEY"}
		store, err := c.NewStore()
		require.NoError(t, err)
		assert.IsType(t, &credstore.EnvStore{}, store)
	})

	t.Run("unknown", func(t *testing.T) {
		c := CredentialsConfig{Storage: "vault"}
		_, err := c.NewStore()
		assert.Error(t, err)
	})
}
