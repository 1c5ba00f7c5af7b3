package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/anylogcli/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape. Absent fields keep the value set by
// earlier stages, hence the pointers for booleans.
type fileConfig struct {
	NodeAddr       string         `json:"node_addr" yaml:"node_addr"`
	RequestTimeout timex.Duration `json:"request_timeout" yaml:"request_timeout"`

	DataDir      string `json:"data_dir" yaml:"data_dir"`
	StoreBackend string `json:"store_backend" yaml:"store_backend"`
	SQLiteDSN    string `json:"sqlite_dsn" yaml:"sqlite_dsn"`

	SecretKey string         `json:"secret_key" yaml:"secret_key"`
	TokenTTL  timex.Duration `json:"token_ttl" yaml:"token_ttl"`

	MirrorPresets  *bool `json:"mirror_presets" yaml:"mirror_presets"`
	BreakerEnabled *bool `json:"breaker_enabled" yaml:"breaker_enabled"`

	BasicAuthUser     string `json:"basic_auth_user" yaml:"basic_auth_user"`
	BasicAuthPassword string `json:"basic_auth_password" yaml:"basic_auth_password"`

	LogLevel string `json:"log_level" yaml:"log_level"`
}

// parseFile overlays cfg with the values present in the file at path.
func parseFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.NodeAddr, fc.NodeAddr)
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.StoreBackend, fc.StoreBackend)
	setString(&cfg.SQLiteDSN, fc.SQLiteDSN)
	setString(&cfg.SecretKey, fc.SecretKey)
	setString(&cfg.BasicAuthUser, fc.BasicAuthUser)
	setString(&cfg.BasicAuthPassword, fc.BasicAuthPassword)
	setString(&cfg.LogLevel, fc.LogLevel)

	if fc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.TokenTTL.Duration != 0 {
		cfg.TokenTTL = fc.TokenTTL.Duration
	}
	if fc.MirrorPresets != nil {
		cfg.MirrorPresets = *fc.MirrorPresets
	}
	if fc.BreakerEnabled != nil {
		cfg.BreakerEnabled = *fc.BreakerEnabled
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
