package services

import (
	"context"

	"github.com/dmitrijs2005/anylogcli/internal/client/client"
	"github.com/dmitrijs2005/anylogcli/internal/client/protocol"
	"github.com/dmitrijs2005/anylogcli/internal/client/reply"
	"github.com/dmitrijs2005/anylogcli/internal/logging"
)

// runner sends one command and normalizes the reply. Transport errors are
// returned untouched; nothing is retried.
type runner struct {
	client client.Client
	log    logging.Logger
}

func (r runner) exec(ctx context.Context, cmd protocol.Command) (reply.Envelope, error) {
	raw, err := r.client.Do(ctx, cmd)
	if err != nil {
		return reply.Envelope{}, err
	}
	env := reply.Normalize(raw)
	r.log.Debug(ctx, "node reply", "command", cmd.Text, "kind", string(env.Kind), "records", len(env.Records))
	return env, nil
}

// execAll stops at the first failing command.
func (r runner) execAll(ctx context.Context, cmds ...protocol.Command) ([]reply.Envelope, error) {
	out := make([]reply.Envelope, 0, len(cmds))
	for _, c := range cmds {
		env, err := r.exec(ctx, c)
		if err != nil {
			return out, err
		}
		out = append(out, env)
	}
	return out, nil
}
