package client

import (
	"context"

	"github.com/dmitrijs2005/anylogcli/internal/client/protocol"
)

type Client interface {
	// Do sends cmd and returns the raw reply text.
	Do(ctx context.Context, cmd protocol.Command) (string, error)
	Ping(ctx context.Context) error
	Close() error
}
