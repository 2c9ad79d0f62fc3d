package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultDatabaseURL, cfg.DatabaseURL)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("database_url: sqlite://custom.db\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite://custom.db", cfg.DatabaseURL)
}

func TestLoadAltFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileNameAlt)
	require.NoError(t, os.WriteFile(path, []byte("database_url: sqlite://alt.db\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite://alt.db", cfg.DatabaseURL)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("database_url: sqlite://file.db\n"), 0o644))
	t.Setenv("RECORDMAP_DATABASE_URL", "postgres://localhost/app")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/app", cfg.DatabaseURL)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("database_url: [unclosed\n"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}
