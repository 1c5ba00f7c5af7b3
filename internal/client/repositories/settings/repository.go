// Package settings is a small key-value store for CLI state that must
// survive restarts, such as the current node and session token.
package settings

import "context"

const (
	KeyNode   = "node.addr"
	KeyToken  = "session.token"
	// KeySecret holds the generated token signing key when none is configured.
	KeySecret = "session.secret"
)

type Repository interface {
	// Get returns ("", nil) when key is not set.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
