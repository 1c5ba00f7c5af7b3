package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/dmitrijs2005/anylogcli/internal/client/client"
	"github.com/dmitrijs2005/anylogcli/internal/client/protocol"
)

// fakeNode is an in-process AnyLog node. It keeps a real bookmark_policy
// document for "get !" / "set policy" and answers everything else from
// replies, keyed by command text.
type fakeNode struct {
	mu sync.Mutex

	doc     map[string]any
	replies map[string]string
	// failOn makes Do return a transport error for that command text.
	failOn string
	// ignoreSets drops "set policy" commands without storing them.
	ignoreSets bool

	sent []protocol.Command
}

var _ client.Client = (*fakeNode)(nil)

var segmentRe = regexp.MustCompile(`\[([^\]]*)\]`)

func newFakeNode() *fakeNode {
	return &fakeNode{replies: map[string]string{}}
}

func (f *fakeNode) Do(_ context.Context, cmd protocol.Command) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, cmd)
	if f.failOn != "" && cmd.Text == f.failOn {
		return "", &client.TransportError{Command: cmd.Text, Err: client.ErrUnavailable}
	}

	const setPrefix = "set policy bookmark_policy "
	switch {
	case cmd.Text == "get !bookmark_policy":
		if f.doc == nil {
			return "", nil
		}
		b, err := json.Marshal(f.doc)
		return string(b), err
	case strings.HasPrefix(cmd.Text, setPrefix):
		if f.ignoreSets {
			return "Policy updated", nil
		}
		return f.set(strings.TrimPrefix(cmd.Text, setPrefix))
	}

	if r, ok := f.replies[cmd.Text]; ok {
		return r, nil
	}
	return "", nil
}

// set applies "[a][b] = value". A missing parent fails like the node does.
func (f *fakeNode) set(expr string) (string, error) {
	pathPart, valuePart, ok := strings.Cut(expr, " = ")
	if !ok {
		return "Error: malformed set", nil
	}
	var segs []string
	for _, m := range segmentRe.FindAllStringSubmatch(pathPart, -1) {
		segs = append(segs, m[1])
	}

	var value any
	if err := json.Unmarshal([]byte(valuePart), &value); err != nil {
		return "Error: bad value", nil
	}

	if f.doc == nil {
		f.doc = map[string]any{}
	}
	cur := f.doc
	for _, s := range segs[:len(segs)-1] {
		next, ok := cur[s].(map[string]any)
		if !ok {
			return fmt.Sprintf("Error: missing [%s]", s), nil
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
	return "Policy updated", nil
}

func (f *fakeNode) Ping(context.Context) error { return nil }
func (f *fakeNode) Close() error               { return nil }

func (f *fakeNode) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, c := range f.sent {
		out[i] = c.Text
	}
	return out
}

func (f *fakeNode) reset() {
	f.mu.Lock()
	f.sent = nil
	f.mu.Unlock()
}
