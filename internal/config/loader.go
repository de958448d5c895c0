package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvConfig names the variable holding the config file path when no path
// is passed to Load.
const EnvConfig = "AADS_CONFIG"

// legacyEnv maps the variables read by earlier releases to config keys.
var legacyEnv = map[string]string{
	"SUPABASE_URL": "remote_url",
	"SUPABASE_KEY": "remote_key",
	"AUTO_SYNC":    "auto_sync",
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from path, or AADS_CONFIG when path is empty
//  3. legacy env (SUPABASE_URL, SUPABASE_KEY, AUTO_SYNC)
//  4. env (prefix AADS_)
func Load(path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	legacy := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		name, ok := legacyEnv[key]
		if !ok {
			return "", nil
		}
		return name, value
	})
	if err := k.Load(legacy, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// AADS_DB_PATH -> db_path. Underscores are kept to match the koanf tags.
	envProvider := env.Provider("AADS_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "aads_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg.inferDriver()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
