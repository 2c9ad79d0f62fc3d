// Package config loads the process-level settings the default manager
// needs: where the store lives. recordmap defines no configuration format
// beyond this.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "recordmap.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "recordmap.yml"

// DefaultDatabaseURL is used when neither file nor environment names a store.
const DefaultDatabaseURL = "sqlite://recordmap.db"

// Config holds the externally supplied settings.
type Config struct {
	DatabaseURL string `koanf:"database_url"`
}

// Load reads recordmap.yaml (or .yml) from dir when present, then applies
// RECORDMAP_* environment overrides. A missing file is not an error.
func Load(dir string) (*Config, error) {
	k := koanf.New(".")

	if path := findConfigFile(dir); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Transform: RECORDMAP_DATABASE_URL -> database_url
	if err := k.Load(env.Provider("RECORDMAP_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "RECORDMAP_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = DefaultDatabaseURL
	}
}

// findConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func findConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	ymlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}

	return ""
}
