package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/anylogcli/internal/client/client"
	"github.com/dmitrijs2005/anylogcli/internal/client/reply"
	"github.com/dmitrijs2005/anylogcli/internal/common"
)

// printEnvelope shows text replies as the node sent them and structured
// replies as indented JSON.
func printEnvelope(w io.Writer, env reply.Envelope) {
	switch env.Kind {
	case reply.KindEmpty:
		fmt.Fprintln(w, "(no data)")
	case reply.KindJSON, reply.KindBlobManifest:
		var v any = env.Records
		if len(env.Records) == 1 {
			v = env.Records[0]
		}
		printJSON(w, v)
	default:
		fmt.Fprintln(w, strings.TrimSpace(env.Raw))
	}
}

func printJSON(w io.Writer, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%v\n", v)
		return
	}
	fmt.Fprintln(w, string(b))
}

func printLines(w io.Writer, lines []string) {
	if len(lines) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

// describeError turns service errors into a message for the user.
func describeError(err error) string {
	var (
		pe *reply.ProtocolError
		te *client.TransportError
	)
	switch {
	case errors.As(err, &te) && errors.Is(err, common.ErrUnauthorized):
		return "node rejected the credentials: " + err.Error()
	case errors.As(err, &te):
		return "node unreachable: " + err.Error()
	case errors.Is(err, common.ErrUnauthorized):
		return "invalid email or password"
	case errors.Is(err, common.ErrTokenExpired):
		return "session expired, please log in again"
	case errors.As(err, &pe):
		return fmt.Sprintf("unexpected reply to %q: %s\n%s", pe.Command, pe.Reason, strings.TrimSpace(pe.Raw))
	default:
		return err.Error()
	}
}
