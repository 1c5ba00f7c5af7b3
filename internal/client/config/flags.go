package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/anylogcli/internal/flagx"
)

var knownFlags = []string{
	"-n", "-t", "-d", "-store", "-dsn", "-secret", "-token-ttl",
	"-mirror", "-breaker", "-user", "-password", "-log",
}

// parseFlags overlays cfg with command-line flags. Flags it does not own
// (such as -c) are filtered out first.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("anylog-cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.NodeAddr, "n", cfg.NodeAddr, "node REST address")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "per-command timeout")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.StoreBackend, "store", cfg.StoreBackend, "local store backend (file|sqlite)")
	fs.StringVar(&cfg.SQLiteDSN, "dsn", cfg.SQLiteDSN, "sqlite DSN")
	fs.StringVar(&cfg.SecretKey, "secret", cfg.SecretKey, "session token signing key")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "session token lifetime")
	fs.BoolVar(&cfg.MirrorPresets, "mirror", cfg.MirrorPresets, "mirror presets into the bookmark policy")
	fs.BoolVar(&cfg.BreakerEnabled, "breaker", cfg.BreakerEnabled, "enable the transport circuit breaker")
	fs.StringVar(&cfg.BasicAuthUser, "user", cfg.BasicAuthUser, "basic auth user")
	fs.StringVar(&cfg.BasicAuthPassword, "password", cfg.BasicAuthPassword, "basic auth password")
	fs.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "log level")

	return fs.Parse(args)
}
