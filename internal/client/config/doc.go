// Package config loads runtime configuration for the AnyLog CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. Files ending in
//     .yaml or .yml are read as YAML, anything else as JSON.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-n string        node REST address (host:port or URL)
//	-t duration      per-command timeout
//	-d string        data directory for the local store
//	-store string    local store backend: file or sqlite
//	-dsn string      sqlite DSN (default <data dir>/anylog.db)
//	-secret string   session token signing key
//	-token-ttl dur   session token lifetime
//	-mirror          mirror presets into the node's bookmark policy
//	-breaker         fail fast after repeated transport failures
//	-user string     basic auth user for the node
//	-password string basic auth password for the node
//	-log string      log level: debug, info, warn, error
//
// # File schema
//
// Durations use timex.Duration, so "30s" and integer nanoseconds both work:
//
//	{
//	  "node_addr": "127.0.0.1:32049",
//	  "request_timeout": "30s",
//	  "data_dir": "./anylog-data",
//	  "store_backend": "sqlite",
//	  "mirror_presets": true
//	}
package config
