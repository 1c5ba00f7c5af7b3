package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/anylogcli/internal/client/client"
	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/client/protocol"
	"github.com/dmitrijs2005/anylogcli/internal/client/reply"
	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/dmitrijs2005/anylogcli/internal/logging"
)

// MonitorFields is the subset of operator statistics shown to users.
var MonitorFields = []string{
	"Node",
	"node name",
	"operational time",
	"elapsed time",
	"new rows",
	"total rows",
	"Free Space Percent",
	"CPU Percent",
	"Packets Recv",
	"Packets Sent",
	"Network Error",
}

// Keys of a "get data nodes" JSON record.
const (
	keyCompany     = "Company"
	keyDBMS        = "DBMS"
	keyTable       = "Table"
	keyNodeName    = "Node Name"
	keyClusterID   = "Cluster ID"
	keyExternalIP  = "External IP/Port"
	keyClusterStat = "Cluster Status"
	keyNodeStatus  = "Node Status"
	keyNetAddress  = "Address"
	keyNetStatus   = "Status"
	reachableState = "+"
)

// PolicyRequest describes a policy to create and publish.
type PolicyRequest struct {
	Name       string            `validate:"required"`
	Attributes map[string]string `validate:"required,min=1"`
}

// PolicyResult collects the replies of a policy submission.
type PolicyResult struct {
	Name     string
	Policy   reply.Envelope
	Master   reply.Envelope
	Insert   reply.Envelope
	ReadBack reply.Envelope
}

// Column is a user-visible table column.
type Column struct {
	Name string
	Type string
}

// TableRef locates a table on a data node.
type TableRef struct {
	Company  string
	DBMS     string
	Table    string
	NodeName string
	Cluster  string
	Address  string

	ClusterStatus string
	NodeStatus    string
}

// TableInfo is a table's columns plus where it is stored.
type TableInfo struct {
	TableRef
	Columns []Column
}

// NodeService runs multi-step flows against one AnyLog node.
type NodeService interface {
	// Send issues console text as-is. A leading "run client (<peer>)" is
	// lifted into the command destination.
	Send(ctx context.Context, method models.Method, text string) (reply.Envelope, error)
	Do(ctx context.Context, cmd protocol.Command) (reply.Envelope, error)

	SubmitPolicy(ctx context.Context, req PolicyRequest) (*PolicyResult, error)
	Monitor(ctx context.Context) ([]reply.Record, error)
	NetworkNodes(ctx context.Context) ([]string, error)
	SendData(ctx context.Context, dbms, table string, records []map[string]any) (reply.Envelope, error)

	Databases(ctx context.Context) ([]string, error)
	Tables(ctx context.Context, dbms string) ([]string, error)
	Columns(ctx context.Context, dbms, table string) ([]Column, error)
	Companies(ctx context.Context) ([]string, error)
	TablesByCompany(ctx context.Context, company, dbms string) ([]TableRef, error)
	TableInfo(ctx context.Context, dbms, table string) (*TableInfo, error)

	ExecuteSQL(ctx context.Context, query string) (reply.Envelope, error)
	RetrieveBlobs(ctx context.Context, blobs []protocol.BlobRef, destDir string) ([]string, error)
}

type nodeService struct {
	runner
}

func NewNodeService(c client.Client, log logging.Logger) NodeService {
	return &nodeService{runner: runner{client: c, log: log}}
}

func (s *nodeService) Send(ctx context.Context, method models.Method, text string) (reply.Envelope, error) {
	if method == "" {
		return reply.Envelope{}, fmt.Errorf("%w: method must be GET or POST", common.ErrInvalidArgument)
	}
	cmd := protocol.ParseCommand(method, text)
	if cmd.Text == "" {
		return reply.Envelope{}, fmt.Errorf("%w: empty command", common.ErrInvalidArgument)
	}
	return s.exec(ctx, cmd)
}

func (s *nodeService) Do(ctx context.Context, cmd protocol.Command) (reply.Envelope, error) {
	return s.exec(ctx, cmd)
}

// SubmitPolicy creates a policy bound to a node variable, reads it back,
// binds the master address and publishes through it.
func (s *nodeService) SubmitPolicy(ctx context.Context, req PolicyRequest) (*PolicyResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	name := req.Name
	create, err := protocol.CreatePolicy(name, protocol.ClausesFromMap(req.Attributes))
	if err != nil {
		return nil, err
	}
	insert, err := protocol.BlockchainInsert(name)
	if err != nil {
		return nil, err
	}

	envs, err := s.execAll(ctx,
		create,
		protocol.GetVar(name),
		protocol.BindMaster(),
		protocol.GetVar(protocol.MasterVar),
		insert,
		protocol.BlockchainGet(name),
	)
	if err != nil {
		return nil, err
	}

	if envs[1].IsEmpty() {
		return nil, reply.NewProtocolError(protocol.GetVar(name).Text, envs[1].Raw, "policy was not created")
	}

	return &PolicyResult{
		Name:     name,
		Policy:   envs[1],
		Master:   envs[3],
		Insert:   envs[4],
		ReadBack: envs[5],
	}, nil
}

// Monitor returns one projected record per monitored operator, ordered by
// node key.
func (s *nodeService) Monitor(ctx context.Context) ([]reply.Record, error) {
	env, err := s.exec(ctx, protocol.MonitoredOperators())
	if err != nil {
		return nil, err
	}

	recs := env.Records
	// The node keys statistics by operator address.
	if env.Kind == reply.KindJSON && len(recs) == 1 {
		if nested := nestedRecords(recs[0]); nested != nil {
			recs = nested
		}
	}

	out := make([]reply.Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Project(MonitorFields...))
	}
	return out, nil
}

// nestedRecords returns the values of rec when every one of them is an
// object, ordered by key; nil otherwise.
func nestedRecords(rec reply.Record) []reply.Record {
	keys := make([]string, 0, len(rec))
	for k, v := range rec {
		if _, ok := v.(map[string]any); !ok {
			return nil
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]reply.Record, len(keys))
	for i, k := range keys {
		out[i] = reply.Record(rec[k].(map[string]any))
	}
	return out
}

// NetworkNodes lists the addresses "test network" reports as reachable.
func (s *nodeService) NetworkNodes(ctx context.Context) ([]string, error) {
	env, err := s.exec(ctx, protocol.TestNetwork())
	if err != nil {
		return nil, err
	}
	if env.IsEmpty() {
		return []string{}, nil
	}
	if env.Kind != reply.KindTable && env.Kind != reply.KindJSON {
		return nil, reply.NewProtocolError(protocol.TestNetwork().Text, env.Raw, "expected a node list")
	}

	addrs := []string{}
	for _, r := range env.Filter(func(r reply.Record) bool { return r.String(keyNetStatus) == reachableState }) {
		if a := r.String(keyNetAddress); a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs, nil
}

// SendData registers the ingestion topic for the records' schema, replacing
// any existing subscription, posts the records and returns the node's
// streaming status.
func (s *nodeService) SendData(ctx context.Context, dbms, table string, records []map[string]any) (reply.Envelope, error) {
	if len(records) == 0 {
		return reply.Envelope{}, fmt.Errorf("%w: no records to send", common.ErrInvalidArgument)
	}

	// Schema comes from the caller's records, before dbms/table tagging.
	register, err := protocol.MsgClient(common.IngestTopic, protocol.InferSchema(records))
	if err != nil {
		return reply.Envelope{}, err
	}
	payload, err := protocol.TagRecords(records, dbms, table)
	if err != nil {
		return reply.Envelope{}, err
	}

	if err := s.replaceSubscription(ctx, register); err != nil {
		return reply.Envelope{}, err
	}

	if _, err := s.exec(ctx, protocol.PublishData(common.IngestTopic, payload)); err != nil {
		return reply.Envelope{}, err
	}
	s.log.Info(ctx, "data published", "dbms", dbms, "table", table, "records", len(records))

	return s.exec(ctx, protocol.GetStreaming())
}

func (s *nodeService) replaceSubscription(ctx context.Context, register protocol.Command) error {
	query := protocol.GetMsgClient(common.IngestTopic)
	env, err := s.exec(ctx, query)
	if err != nil {
		return err
	}

	if !env.IsEmpty() {
		id, ok := subscriptionID(env)
		if !ok {
			return reply.NewProtocolError(query.Text, env.Raw, "subscription id not found")
		}
		s.log.Info(ctx, "exiting stale message client", "id", id)
		if _, err := s.exec(ctx, protocol.ExitMsgClient(id)); err != nil {
			return err
		}
	}

	_, err = s.exec(ctx, register)
	return err
}

// subscriptionID takes the id from a numeric status line, from the
// leading "label: value" line of a longer report, or from the first id-like
// field of a structured reply.
func subscriptionID(env reply.Envelope) (int64, bool) {
	if id, ok := env.Int(); ok {
		return id, true
	}
	if id, ok := leadingStatusID(env.Raw); ok {
		return id, true
	}
	for _, r := range env.Records {
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !strings.Contains(strings.ToLower(k), "id") {
				continue
			}
			if id, err := strconv.ParseInt(strings.TrimSpace(r.String(k)), 10, 64); err == nil {
				return id, true
			}
		}
	}
	return 0, false
}

// leadingStatusID parses the first non-blank line of raw as "label: value"
// with a numeric value. The node puts the subscription id there, ahead of
// its counters and topic tables.
func leadingStatusID(raw string) (int64, bool) {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		_, value, ok := strings.Cut(line, ":")
		if !ok {
			return 0, false
		}
		id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}

func (s *nodeService) dataNodes(ctx context.Context, f protocol.NodeFilter) ([]reply.Record, error) {
	cmd, err := protocol.DataNodes(f)
	if err != nil {
		return nil, err
	}
	env, err := s.exec(ctx, cmd)
	if err != nil {
		return nil, err
	}
	switch env.Kind {
	case reply.KindEmpty:
		return nil, nil
	case reply.KindJSON:
		return env.Records, nil
	default:
		return nil, reply.NewProtocolError(cmd.Text, env.Raw, "expected json")
	}
}

func (s *nodeService) distinct(ctx context.Context, f protocol.NodeFilter, key string) ([]string, error) {
	recs, err := s.dataNodes(ctx, f)
	if err != nil {
		return nil, err
	}
	return uniqueSorted(recs, key), nil
}

func (s *nodeService) Databases(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, protocol.NodeFilter{}, keyDBMS)
}

func (s *nodeService) Tables(ctx context.Context, dbms string) ([]string, error) {
	if dbms == "" {
		return nil, fmt.Errorf("%w: database is required", common.ErrInvalidArgument)
	}
	return s.distinct(ctx, protocol.NodeFilter{DBMS: dbms}, keyTable)
}

func (s *nodeService) Companies(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, protocol.NodeFilter{}, keyCompany)
}

// Columns returns the table's columns sorted by name, without the
// node-managed system columns.
func (s *nodeService) Columns(ctx context.Context, dbms, table string) ([]Column, error) {
	cmd, err := protocol.Columns(dbms, table)
	if err != nil {
		return nil, err
	}
	env, err := s.exec(ctx, cmd)
	if err != nil {
		return nil, err
	}
	switch env.Kind {
	case reply.KindEmpty:
		return []Column{}, nil
	case reply.KindJSON:
	default:
		return nil, reply.NewProtocolError(cmd.Text, env.Raw, "expected json")
	}

	rec := env.First()
	cols := make([]Column, 0, len(rec))
	for name := range rec {
		if protocol.IsSystemColumn(name) {
			continue
		}
		cols = append(cols, Column{Name: name, Type: rec.String(name)})
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
	return cols, nil
}

// TablesByCompany lists the tables a company stores, optionally narrowed to
// one database.
func (s *nodeService) TablesByCompany(ctx context.Context, company, dbms string) ([]TableRef, error) {
	if company == "" {
		return nil, fmt.Errorf("%w: company is required", common.ErrInvalidArgument)
	}
	recs, err := s.dataNodes(ctx, protocol.NodeFilter{Company: company, DBMS: dbms})
	if err != nil {
		return nil, err
	}
	out := make([]TableRef, 0, len(recs))
	for _, r := range recs {
		out = append(out, tableRef(r))
	}
	return out, nil
}

func (s *nodeService) TableInfo(ctx context.Context, dbms, table string) (*TableInfo, error) {
	cols, err := s.Columns(ctx, dbms, table)
	if err != nil {
		return nil, err
	}
	recs, err := s.dataNodes(ctx, protocol.NodeFilter{DBMS: dbms, Table: table})
	if err != nil {
		return nil, err
	}

	info := &TableInfo{TableRef: TableRef{DBMS: dbms, Table: table}, Columns: cols}
	if len(recs) > 0 {
		info.TableRef = tableRef(recs[0])
	}
	return info, nil
}

func tableRef(r reply.Record) TableRef {
	return TableRef{
		Company:  r.String(keyCompany),
		DBMS:     r.String(keyDBMS),
		Table:    r.String(keyTable),
		NodeName: r.String(keyNodeName),
		Cluster:  r.String(keyClusterID),
		Address:  r.String(keyExternalIP),

		ClusterStatus: r.String(keyClusterStat),
		NodeStatus:    r.String(keyNodeStatus),
	}
}

func uniqueSorted(recs []reply.Record, key string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range recs {
		v := r.String(key)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ExecuteSQL sends "sql <query>" as given. Queries that must fan out are
// sent through Send with a "run client ()" prefix.
func (s *nodeService) ExecuteSQL(ctx context.Context, query string) (reply.Envelope, error) {
	cmd, err := protocol.SQL(query)
	if err != nil {
		return reply.Envelope{}, err
	}
	return s.exec(ctx, cmd)
}

// RetrieveBlobs copies each blob into destDir and returns the file ids that
// were requested.
func (s *nodeService) RetrieveBlobs(ctx context.Context, blobs []protocol.BlobRef, destDir string) ([]string, error) {
	cmds := make([]protocol.Command, len(blobs))
	for i, b := range blobs {
		cmd, err := protocol.FileGet(b, destDir)
		if err != nil {
			return nil, err
		}
		cmds[i] = cmd
	}

	ids := make([]string, 0, len(blobs))
	for i, cmd := range cmds {
		if _, err := s.exec(ctx, cmd); err != nil {
			return ids, err
		}
		ids = append(ids, blobs[i].File)
	}
	return ids, nil
}

// BlobRefs reads blob descriptors out of a manifest or JSON reply.
func BlobRefs(env reply.Envelope) []protocol.BlobRef {
	out := []protocol.BlobRef{}
	for _, r := range env.Records {
		ref := protocol.BlobRef{
			IP:    r.String("ip"),
			Port:  r.String("port"),
			DBMS:  r.String("dbms_name"),
			Table: r.String("table_name"),
			File:  r.String("file"),
		}
		if ref.IP == "" || ref.File == "" {
			continue
		}
		out = append(out, ref)
	}
	return out
}
