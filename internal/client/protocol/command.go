package protocol

import (
	"strings"

	"github.com/dmitrijs2005/anylogcli/internal/client/models"
)

// NetworkDestination routes a query to every node that holds the data.
const NetworkDestination = "network"

const runClientPrefix = "run client ("

// Command is a stateless request to the node. Text is in the node grammar;
// Destination, when set, asks the node to execute Text on that peer.
type Command struct {
	Method      models.Method
	Text        string
	Destination string
	Topic       string
	Payload     []byte
}

func Get(text string) Command  { return Command{Method: models.MethodGet, Text: text} }
func Post(text string) Command { return Command{Method: models.MethodPost, Text: text} }

// On returns a copy of c routed to peer.
func (c Command) On(peer string) Command {
	c.Destination = peer
	return c
}

// String renders the peer-scoped form "run client (<peer>) <text>" when a
// destination is set, which is how the command reads on the node console.
func (c Command) String() string {
	switch c.Destination {
	case "":
		return c.Text
	case NetworkDestination:
		return "run client () " + c.Text
	default:
		return runClientPrefix + c.Destination + ") " + c.Text
	}
}

// ParseCommand turns console-style text into a Command, lifting a leading
// "run client (<peer>)" into Destination. "run client () sql ..." targets the
// whole network; an empty peer in front of anything else runs locally.
func ParseCommand(method models.Method, text string) Command {
	text = strings.TrimSpace(text)
	cmd := Command{Method: method, Text: text}

	if !strings.HasPrefix(text, runClientPrefix) {
		return cmd
	}
	end := strings.Index(text, ")")
	if end == -1 {
		return cmd
	}

	peer := strings.TrimSpace(text[len(runClientPrefix):end])
	rest := strings.TrimSpace(text[end+1:])

	if peer == "" && strings.HasPrefix(rest, "sql") {
		peer = NetworkDestination
	}
	cmd.Text = rest
	cmd.Destination = peer
	return cmd
}
