package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Empty(t, c.NodeAddr)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, BackendFile, c.StoreBackend)
	assert.Equal(t, 24*time.Hour, c.TokenTTL)
	assert.Equal(t, "info", c.LogLevel)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_NoArgsIsDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, cfg)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("node_addr: file-node:32049\nstore_backend: sqlite\nrequest_timeout: 5s\n"), 0o600))

	cfg, err := LoadConfig([]string{"-c", path, "-n", "flag-node:32049"})
	require.NoError(t, err)

	assert.Equal(t, "flag-node:32049", cfg.NodeAddr)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig([]string{"-store", "postgres"})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = LoadConfig([]string{"-t", "0s"})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = LoadConfig([]string{"-t", "soon"})
	assert.Error(t, err)

	_, err = LoadConfig([]string{"-config", filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}
