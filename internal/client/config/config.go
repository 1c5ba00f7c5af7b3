package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/dmitrijs2005/anylogcli/internal/flagx"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	// DefaultNodeAddr is used when neither the config nor the saved
	// session names a node.
	DefaultNodeAddr = "127.0.0.1:32049"
)

// Config holds runtime settings for the AnyLog CLI.
type Config struct {
	NodeAddr       string
	RequestTimeout time.Duration

	DataDir      string
	StoreBackend string
	SQLiteDSN    string

	SecretKey string
	TokenTTL  time.Duration

	MirrorPresets  bool
	BreakerEnabled bool

	BasicAuthUser     string
	BasicAuthPassword string

	LogLevel string
}

// LoadDefaults populates c with sensible defaults. NodeAddr stays empty so
// the last node used in the REPL can take over.
func (c *Config) LoadDefaults() {
	c.RequestTimeout = 30 * time.Second
	c.DataDir = "anylog-data"
	c.StoreBackend = BackendFile
	c.TokenTTL = 24 * time.Hour
	c.LogLevel = "info"
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	if c.StoreBackend != BackendFile && c.StoreBackend != BackendSQLite {
		return fmt.Errorf("%w: unknown store backend %q", common.ErrInvalidArgument, c.StoreBackend)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", common.ErrInvalidArgument)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: token ttl must be positive", common.ErrInvalidArgument)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data dir is required", common.ErrInvalidArgument)
	}
	return nil
}

// LoadConfig builds a Config from defaults, the optional config file named
// in args and then the flags in args. args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.ConfigFileFlag(args); path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
