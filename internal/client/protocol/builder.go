package protocol

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/anylogcli/internal/common"
)

// MasterVar is the node-side variable the master address is bound to
// before a blockchain insert references it.
const MasterVar = "mnode"

// SystemColumns are added by the node to every table and never shown.
var SystemColumns = []string{"row_id", "tsd_name", "tsd_id"}

var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*$`)

func checkName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: invalid name %q", common.ErrInvalidArgument, name)
	}
	return nil
}

func checkQuoted(label, v string) error {
	if strings.TrimSpace(v) == "" || strings.ContainsAny(v, "\"\n\r") {
		return fmt.Errorf("%w: invalid %s %q", common.ErrInvalidArgument, label, v)
	}
	return nil
}

// Clause is one "key = value" condition of a where-clause.
type Clause struct {
	Key   string
	Value string
}

// ClausesFromMap orders m by key so the rendered command is deterministic.
func ClausesFromMap(m map[string]string) []Clause {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Clause, len(keys))
	for i, k := range keys {
		out[i] = Clause{Key: k, Value: m[k]}
	}
	return out
}

// CreatePolicy binds a new policy to a node variable of the same name:
//
//	<name> = create policy <name> where k1 = v1 and k2 = v2
//
// The node does not return an id; read the result back with GetVar(name).
func CreatePolicy(name string, clauses []Clause) (Command, error) {
	if err := checkName(name); err != nil {
		return Command{}, err
	}
	if len(clauses) == 0 {
		return Command{}, fmt.Errorf("%w: policy %s has no attributes", common.ErrInvalidArgument, name)
	}

	parts := make([]string, len(clauses))
	for i, c := range clauses {
		if err := checkName(c.Key); err != nil {
			return Command{}, err
		}
		parts[i] = c.Key + " = " + c.Value
	}
	return Post(fmt.Sprintf("%s = create policy %s where %s", name, name, strings.Join(parts, " and "))), nil
}

// GetVar reads a node-side variable: "get !<name>".
func GetVar(name string) Command {
	return Get("get !" + name)
}

// BindMaster resolves the master node address into MasterVar.
func BindMaster() Command {
	return Post(MasterVar + " = blockchain get master bring.ip_port")
}

// BlockchainInsert publishes the policy bound to policyVar through the
// master bound to MasterVar. Both are referenced, never inlined.
func BlockchainInsert(policyVar string) (Command, error) {
	if err := checkName(policyVar); err != nil {
		return Command{}, err
	}
	return Post(fmt.Sprintf("blockchain insert where policy = !%s and local = true and master = !%s", policyVar, MasterVar)), nil
}

func BlockchainGet(name string) Command {
	return Get("blockchain get " + name)
}

// SetPolicyCommand builds the POST that patches one path of a policy document.
func SetPolicyCommand(doc string, path PolicyPath, value any) (Command, error) {
	text, err := SetPolicy(doc, path, value)
	if err != nil {
		return Command{}, err
	}
	return Post(text), nil
}

// MsgClient registers a REST message client for topic whose columns are
// taken from schema. Each record posted to the topic carries its own
// dbms/table (see TagRecords).
func MsgClient(topic string, schema Schema) (Command, error) {
	if err := checkName(topic); err != nil {
		return Command{}, err
	}
	if len(schema) == 0 {
		return Command{}, fmt.Errorf("%w: empty schema", common.ErrInvalidArgument)
	}

	cols := make([]string, len(schema))
	for i, f := range schema {
		if err := checkName(f.Name); err != nil {
			return Command{}, err
		}
		cols[i] = fmt.Sprintf("column.%s=(type=%s and value=bring [%s])", f.Name, f.Type, f.Name)
	}

	return Post(fmt.Sprintf(
		`run msg client where broker=rest and user-agent=anylog and log=false and topic=(name=%s and dbms="bring [dbms]" and table="bring [table]" and %s)`,
		topic, strings.Join(cols, " and "))), nil
}

func GetMsgClient(topic string) Command {
	return Get("get msg client where topic = " + topic)
}

func ExitMsgClient(id int64) Command {
	return Post("exit msg client " + strconv.FormatInt(id, 10))
}

// PublishData posts payload to topic; the node routes it through the
// registered message client.
func PublishData(topic string, payload []byte) Command {
	c := Post("data")
	c.Topic = topic
	c.Payload = payload
	return c
}

func GetStreaming() Command {
	return Get("get streaming")
}

// NodeFilter narrows a data-nodes query. Empty fields are not rendered.
type NodeFilter struct {
	Company string
	DBMS    string
	Table   string
}

// DataNodes always asks for JSON so the reply shape is fixed.
func DataNodes(f NodeFilter) (Command, error) {
	var b strings.Builder
	b.WriteString("get data nodes where format=json")

	for _, kv := range []struct{ key, val string }{
		{"company", f.Company},
		{"dbms", f.DBMS},
		{"table", f.Table},
	} {
		if kv.val == "" {
			continue
		}
		if err := checkQuoted(kv.key, kv.val); err != nil {
			return Command{}, err
		}
		fmt.Fprintf(&b, ` and %s="%s"`, kv.key, kv.val)
	}
	return Get(b.String()), nil
}

func Columns(dbms, table string) (Command, error) {
	if err := checkQuoted("dbms", dbms); err != nil {
		return Command{}, err
	}
	if err := checkQuoted("table", table); err != nil {
		return Command{}, err
	}
	return Get(fmt.Sprintf(`get columns where dbms="%s" and table="%s" and format=json`, dbms, table)), nil
}

// IsSystemColumn reports whether name is one of SystemColumns.
func IsSystemColumn(name string) bool {
	for _, c := range SystemColumns {
		if c == name {
			return true
		}
	}
	return false
}

func SQL(query string) (Command, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Command{}, fmt.Errorf("%w: empty query", common.ErrInvalidArgument)
	}
	return Get("sql " + query), nil
}

func MonitoredOperators() Command { return Get("get monitored operators") }

func TestNetwork() Command { return Get("test network") }

// BlobRef identifies a stored file on an operator node.
type BlobRef struct {
	IP    string
	Port  string
	DBMS  string
	Table string
	File  string
}

func (b BlobRef) Address() string { return b.IP + ":" + b.Port }

// FileGet copies a blob from the operator that holds it into destDir on
// this machine as <dbms>.<table>.<file>.
func FileGet(ref BlobRef, destDir string) (Command, error) {
	for label, v := range map[string]string{"ip": ref.IP, "port": ref.Port, "dbms": ref.DBMS, "table": ref.Table, "file": ref.File} {
		if strings.TrimSpace(v) == "" || strings.ContainsAny(v, " ()\n") {
			return Command{}, fmt.Errorf("%w: invalid blob %s %q", common.ErrInvalidArgument, label, v)
		}
	}
	if destDir != "" && !strings.HasSuffix(destDir, "/") {
		destDir += "/"
	}
	text := fmt.Sprintf("file get (dbms = blobs_%s and table = %s and id = %s) %s%s.%s.%s",
		ref.DBMS, ref.Table, ref.File, destDir, ref.DBMS, ref.Table, ref.File)
	return Post(text).On(ref.Address()), nil
}
