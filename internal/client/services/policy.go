package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/anylogcli/internal/client/client"
	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/client/protocol"
	"github.com/dmitrijs2005/anylogcli/internal/client/reply"
	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/dmitrijs2005/anylogcli/internal/logging"
)

// PolicyState is how far the shared bookmark document has been built.
type PolicyState int

const (
	StateUnknown PolicyState = iota
	StateAbsent
	StateBaseCreated
	StatePopulated
)

func (s PolicyState) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateBaseCreated:
		return "base-created"
	case StatePopulated:
		return "populated"
	default:
		return "unknown"
	}
}

var (
	bookmarkRoot = protocol.PolicyPath{"bookmark"}
	groupsRoot   = bookmarkRoot.Child("bookmarks")
)

// PolicyPreset is one button stored in the remote document.
type PolicyPreset struct {
	Type    string
	Command string
}

// PolicyGroup is a group as stored in the remote document.
type PolicyGroup struct {
	Name    string
	Presets map[string]PolicyPreset
}

// PolicyService maintains the remote bookmark_policy document: a nested
// tree of preset groups patched one path at a time.
//
// Every patch goes through Apply, which first makes sure the document and
// its bookmarks container exist. A path set to "" is how the document
// records a deletion; readers skip such values, which also means a
// legitimately empty string cannot be told apart from a deleted entry.
type PolicyService interface {
	Ensure(ctx context.Context) (PolicyState, error)
	Apply(ctx context.Context, path protocol.PolicyPath, value any) (reply.Envelope, error)
	AddGroup(ctx context.Context, group string) error
	AddPreset(ctx context.Context, group, button string, method models.Method, command string) error
	DeleteGroup(ctx context.Context, group string) error
	DeletePreset(ctx context.Context, group, button string) error
	Groups(ctx context.Context) ([]PolicyGroup, error)
}

type policyService struct {
	runner
	doc string

	// Serializes bootstrap+patch within this process. Other writers on
	// the node can still race; duplicate creation replies are accepted.
	mu sync.Mutex
}

func NewPolicyService(c client.Client, log logging.Logger) PolicyService {
	return &policyService{
		runner: runner{client: c, log: log.With("policy", common.BookmarkPolicy)},
		doc:    common.BookmarkPolicy,
	}
}

func (p *policyService) Ensure(ctx context.Context) (PolicyState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensure(ctx)
}

func (p *policyService) ensure(ctx context.Context) (PolicyState, error) {
	state, _, err := p.fetch(ctx)
	if err != nil {
		return StateUnknown, err
	}
	if state == StatePopulated {
		return state, nil
	}

	p.log.Info(ctx, "bootstrapping policy document", "state", state.String())

	// The inner container can only be created once the shell exists.
	if state == StateAbsent {
		if err := p.set(ctx, bookmarkRoot, protocol.EmptyObject{}); err != nil {
			return StateUnknown, err
		}
	}
	if err := p.set(ctx, groupsRoot, protocol.EmptyObject{}); err != nil {
		return StateUnknown, err
	}

	state, env, err := p.fetch(ctx)
	if err != nil {
		return StateUnknown, err
	}
	if state != StatePopulated {
		return state, reply.NewProtocolError("get !"+p.doc, env.Raw, "bookmark policy still incomplete after bootstrap")
	}
	return state, nil
}

func (p *policyService) Apply(ctx context.Context, path protocol.PolicyPath, value any) (reply.Envelope, error) {
	// Validate before touching the node so a bad path never bootstraps.
	cmd, err := protocol.SetPolicyCommand(p.doc, path, value)
	if err != nil {
		return reply.Envelope{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.ensure(ctx); err != nil {
		return reply.Envelope{}, err
	}
	return p.exec(ctx, cmd)
}

func (p *policyService) AddGroup(ctx context.Context, group string) error {
	_, err := p.Apply(ctx, groupsRoot.Child(group), protocol.EmptyObject{})
	return err
}

func (p *policyService) AddPreset(ctx context.Context, group, button string, method models.Method, command string) error {
	value := protocol.Object{
		{Key: "type", Value: strings.ToLower(string(method))},
		{Key: "command", Value: command},
	}
	_, err := p.Apply(ctx, groupsRoot.Child(group, button), value)
	return err
}

func (p *policyService) DeleteGroup(ctx context.Context, group string) error {
	_, err := p.Apply(ctx, groupsRoot.Child(group), "")
	return err
}

func (p *policyService) DeletePreset(ctx context.Context, group, button string) error {
	_, err := p.Apply(ctx, groupsRoot.Child(group, button), "")
	return err
}

// Groups lists the groups in the document. Entries that are not objects,
// such as paths cleared to "", are skipped.
func (p *policyService) Groups(ctx context.Context) ([]PolicyGroup, error) {
	state, env, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if state != StatePopulated {
		return []PolicyGroup{}, nil
	}

	groups := objectAt(env.First(), "bookmark", "bookmarks")
	out := make([]PolicyGroup, 0, len(groups))
	for name, v := range groups {
		buttons, ok := v.(map[string]any)
		if !ok {
			continue
		}
		g := PolicyGroup{Name: name, Presets: map[string]PolicyPreset{}}
		for button, bv := range buttons {
			obj, ok := bv.(map[string]any)
			if !ok {
				continue
			}
			rec := reply.Record(obj)
			g.Presets[button] = PolicyPreset{Type: rec.String("type"), Command: rec.String("command")}
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (p *policyService) fetch(ctx context.Context) (PolicyState, reply.Envelope, error) {
	env, err := p.exec(ctx, protocol.GetVar(p.doc))
	if err != nil {
		return StateUnknown, env, err
	}
	return policyState(env), env, nil
}

func (p *policyService) set(ctx context.Context, path protocol.PolicyPath, value any) error {
	cmd, err := protocol.SetPolicyCommand(p.doc, path, value)
	if err != nil {
		return err
	}
	// Whatever the node answers (including "already exists") counts as
	// done; only transport failures stop the bootstrap.
	_, err = p.exec(ctx, cmd)
	return err
}

func policyState(env reply.Envelope) PolicyState {
	if env.Kind != reply.KindJSON {
		return StateAbsent
	}
	rec := env.First()
	if _, ok := rec["bookmark"].(map[string]any); !ok {
		return StateAbsent
	}
	if objectAt(rec, "bookmark", "bookmarks") == nil {
		return StateBaseCreated
	}
	return StatePopulated
}

// objectAt walks nested objects along keys; nil when any step is missing
// or not an object.
func objectAt(rec reply.Record, keys ...string) map[string]any {
	cur := map[string]any(rec)
	for _, k := range keys {
		next, ok := cur[k].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}
