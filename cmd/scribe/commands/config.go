package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/scribe/internal/app"
)

// envPrefix marks variables read into the config (SCRIBE_SERVER__PORT → server.port).
const envPrefix = "SCRIBE_"

// defaultConfigName is looked up in the user config directory when --config is not given.
const defaultConfigName = "config.toml"

// loadConfig merges, lowest precedence first: config file, environment,
// CLI flags. Unset fields then receive defaults and the result is validated.
func loadConfig(configPath string, cmd *cli.Command, environFunc func() []string) (*app.Config, error) {
	k := koanf.New(".")

	path, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: envKey,
		EnvironFunc:   environFunc,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	if cmd != nil {
		if err := k.Load(confmap.Provider(flagValues(cmd), "."), nil); err != nil {
			return nil, fmt.Errorf("loading CLI flags: %w", err)
		}
	}

	cfg := &app.Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// resolveConfigPath returns the explicit path, or the default config file when
// it exists. An explicit path that does not exist is left for the loader to report.
func resolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", nil
	}
	candidate := filepath.Join(dir, app.DefaultConfigCredentialService, defaultConfigName)
	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("checking default config file: %w", err)
	}
	return candidate, nil
}

// envKey maps SCRIBE_CREDENTIALS__ENV_KEY to credentials.env_key.
func envKey(key, value string) (string, any) {
	key = strings.TrimPrefix(key, envPrefix)
	return strings.ToLower(strings.ReplaceAll(key, "__", ".")), value
}

// flagValues maps explicitly set flags, including inherited root flags, to
// config keys: --server--port → server.port, --log-level → log_level.
func flagValues(cmd *cli.Command) map[string]any {
	values := make(map[string]any)
	for _, name := range cmd.FlagNames() {
		// unset flags would shadow file and env values with flag defaults
		if !cmd.IsSet(name) {
			continue
		}
		// --config selects the file and is not itself a config key
		if name == "config" {
			continue
		}
		if value := cmd.Value(name); value != nil {
			key := strings.ReplaceAll(strings.ReplaceAll(name, "--", "."), "-", "_")
			values[key] = value
		}
	}
	return values
}
