package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/anylogcli/internal/client/client"
	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/client/protocol"
	"github.com/dmitrijs2005/anylogcli/internal/client/reply"
	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/dmitrijs2005/anylogcli/internal/logging"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNetworkReply = "\n" +
	"Test Network\n" +
	"Address              Node Type Node Name   Status\n" +
	"--------------------|---------|-----------|------|\n" +
	"139.162.200.15:32048|operator |operator1  |  +   |\n" +
	"139.162.200.16:32048|query    |query1     |      |\n"

const dataNodesReply = `[
 {"Company": "acme", "DBMS": "lsl", "Table": "ping", "Node Name": "op1", "Cluster ID": "c1",
  "External IP/Port": "10.0.0.1:32148", "Cluster Status": "active", "Node Status": "active"},
 {"Company": "acme", "DBMS": "edgex", "Table": "rand", "Node Name": "op2", "Cluster ID": "c2",
  "External IP/Port": "10.0.0.2:32148", "Cluster Status": "active", "Node Status": "active"},
 {"Company": "beta", "DBMS": "lsl", "Table": "pong", "Node Name": "op3", "Cluster ID": "c3",
  "External IP/Port": "10.0.0.3:32148", "Cluster Status": "active", "Node Status": "down"}
]`

func newNodeService(node *fakeNode) NodeService {
	return NewNodeService(node, logging.Nop())
}

func TestNodeService_Send_LiftsPeerPrefix(t *testing.T) {
	node := newFakeNode()
	node.replies["sql lsl format=table select 1"] = "Watchdog: 1"
	svc := newNodeService(node)

	env, err := svc.Send(context.Background(), models.MethodGet, "run client () sql lsl format=table select 1")
	require.NoError(t, err)
	assert.Equal(t, reply.KindStatus, env.Kind)

	require.Len(t, node.sent, 1)
	assert.Equal(t, protocol.NetworkDestination, node.sent[0].Destination)
	assert.Equal(t, models.MethodGet, node.sent[0].Method)
}

func TestNodeService_Send_RejectsBadInput(t *testing.T) {
	svc := newNodeService(newFakeNode())

	_, err := svc.Send(context.Background(), "", "get status")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = svc.Send(context.Background(), models.MethodGet, "   ")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestNodeService_SubmitPolicy(t *testing.T) {
	node := newFakeNode()
	node.replies["get !mypol"] = `{"mypol": {"company": "acme", "name": "n1"}}`
	node.replies["get !mnode"] = "10.0.0.9:32048"
	node.replies["blockchain get mypol"] = `[{"mypol": {"company": "acme", "name": "n1"}}]`
	svc := newNodeService(node)

	res, err := svc.SubmitPolicy(context.Background(), PolicyRequest{
		Name:       "mypol",
		Attributes: map[string]string{"name": "n1", "company": "acme"},
	})
	require.NoError(t, err)

	want := []string{
		"mypol = create policy mypol where company = acme and name = n1",
		"get !mypol",
		"mnode = blockchain get master bring.ip_port",
		"get !mnode",
		"blockchain insert where policy = !mypol and local = true and master = !mnode",
		"blockchain get mypol",
	}
	if diff := cmp.Diff(want, node.texts()); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, models.MethodPost, node.sent[0].Method)
	assert.Equal(t, models.MethodGet, node.sent[1].Method)
	assert.Equal(t, models.MethodPost, node.sent[4].Method)

	assert.Equal(t, "mypol", res.Name)
	assert.Equal(t, reply.KindJSON, res.Policy.Kind)
	assert.Equal(t, "10.0.0.9:32048", res.Master.Raw)
	assert.Equal(t, reply.KindJSON, res.ReadBack.Kind)
}

func TestNodeService_SubmitPolicy_NotCreated(t *testing.T) {
	node := newFakeNode()
	svc := newNodeService(node)

	_, err := svc.SubmitPolicy(context.Background(), PolicyRequest{Name: "p", Attributes: map[string]string{"a": "1"}})
	var pe *reply.ProtocolError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "get !p", pe.Command)
}

func TestNodeService_SubmitPolicy_Validation(t *testing.T) {
	node := newFakeNode()
	svc := newNodeService(node)

	_, err := svc.SubmitPolicy(context.Background(), PolicyRequest{Name: "p"})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = svc.SubmitPolicy(context.Background(), PolicyRequest{Name: "bad name", Attributes: map[string]string{"a": "1"}})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	assert.Empty(t, node.sent)
}

func TestNodeService_Monitor_ProjectsAllowList(t *testing.T) {
	node := newFakeNode()
	node.replies["get monitored operators"] = `{
		"10.0.0.2:32148": {"Node": "10.0.0.2:32148", "node name": "op2", "secret": "x"},
		"10.0.0.1:32148": {"Node": "10.0.0.1:32148", "node name": "op1", "CPU Percent": 12.5, "Packets Sent": 4}
	}`
	svc := newNodeService(node)

	recs, err := svc.Monitor(context.Background())
	require.NoError(t, err)

	want := []reply.Record{
		{"Node": "10.0.0.1:32148", "node name": "op1", "CPU Percent": json.Number("12.5"), "Packets Sent": json.Number("4")},
		{"Node": "10.0.0.2:32148", "node name": "op2"},
	}
	if diff := cmp.Diff(want, recs); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestNodeService_Monitor_Empty(t *testing.T) {
	svc := newNodeService(newFakeNode())

	recs, err := svc.Monitor(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestNodeService_NetworkNodes_KeepsReachable(t *testing.T) {
	node := newFakeNode()
	node.replies["test network"] = testNetworkReply
	svc := newNodeService(node)

	addrs, err := svc.NetworkNodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"139.162.200.15:32048"}, addrs)
}

func TestNodeService_NetworkNodes_UnexpectedReply(t *testing.T) {
	node := newFakeNode()
	node.replies["test network"] = "Watchdog: 1"
	svc := newNodeService(node)

	_, err := svc.NetworkNodes(context.Background())
	var pe *reply.ProtocolError
	assert.True(t, errors.As(err, &pe))
}

func TestNodeService_SendData_ReplacesSubscription(t *testing.T) {
	node := newFakeNode()
	node.replies["get msg client where topic = new-data"] = "Subscription: 3\nTopic:        new-data\n"
	node.replies["get streaming"] = "Streaming: 1"
	svc := newNodeService(node)

	records := []map[string]any{{"a": 1, "b": "x"}, {"a": 2, "c": true}}
	env, err := svc.SendData(context.Background(), "lsl", "ping", records)
	require.NoError(t, err)
	assert.Equal(t, reply.KindStatus, env.Kind)

	texts := node.texts()
	require.Len(t, texts, 5)
	assert.Equal(t, "get msg client where topic = new-data", texts[0])
	assert.Equal(t, "exit msg client 3", texts[1])
	assert.Equal(t,
		`run msg client where broker=rest and user-agent=anylog and log=false and topic=(name=new-data and dbms="bring [dbms]" and table="bring [table]" and column.a=(type=int and value=bring [a]) and column.b=(type=string and value=bring [b]) and column.c=(type=bool and value=bring [c]))`,
		texts[2])
	assert.Equal(t, "data", texts[3])
	assert.Equal(t, "get streaming", texts[4])

	publish := node.sent[3]
	assert.Equal(t, common.IngestTopic, publish.Topic)
	var posted []map[string]any
	require.NoError(t, json.Unmarshal(publish.Payload, &posted))
	require.Len(t, posted, 2)
	assert.Equal(t, "lsl", posted[0]["dbms"])
	assert.Equal(t, "ping", posted[1]["table"])

	// The caller's records are not tagged.
	_, tagged := records[0]["dbms"]
	assert.False(t, tagged)
}

const msgClientReport = `
Subscription ID: 0001
User:         unused
Broker:       rest
Connection:   Connected to local Message Server

     Messages    Success     Errors      Last message time    Last error time      Last Error
     ----------  ----------  ----------  -------------------  -------------------  ----------------------------------
            12          12           0  2025-01-02 03:04:05

     Subscribed Topics:
     Topic    |QOS|DBMS|Table|Column name|Column Type|Mapping Function       |Optional|Policies|
     ---------|---|----|-----|-----------|-----------|-----------------------|--------|--------|
     new-data |  0|lsl |ping |a          |int        |['[a]']                |False   |        |
`

func TestNodeService_SendData_ExitsClientFromReport(t *testing.T) {
	node := newFakeNode()
	node.replies["get msg client where topic = new-data"] = msgClientReport
	svc := newNodeService(node)

	_, err := svc.SendData(context.Background(), "lsl", "ping", []map[string]any{{"a": 1}})
	require.NoError(t, err)

	texts := node.texts()
	require.Len(t, texts, 5)
	assert.Equal(t, "exit msg client 1", texts[1])
	assert.True(t, strings.HasPrefix(texts[2], "run msg client"))
	assert.Equal(t, "data", texts[3])
}

func TestLeadingStatusID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int64
		ok   bool
	}{
		{"report", msgClientReport, 1, true},
		{"single line", "Subscription: 7", 7, true},
		{"no label", "subscriptions are busy", 0, false},
		{"text value", "Status: running\nSubscription: 3", 0, false},
		{"blank", "  \n ", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := leadingStatusID(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNodeService_SendData_NoExistingSubscription(t *testing.T) {
	node := newFakeNode()
	node.replies["get msg client where topic = new-data"] = "No message client subscriptions"
	svc := newNodeService(node)

	_, err := svc.SendData(context.Background(), "lsl", "ping", []map[string]any{{"v": 1.5}})
	require.NoError(t, err)

	texts := node.texts()
	require.Len(t, texts, 4)
	assert.True(t, strings.HasPrefix(texts[1], "run msg client"))
	assert.Contains(t, texts[1], "column.v=(type=float and value=bring [v])")
}

func TestNodeService_SendData_UnknownSubscriptionReply(t *testing.T) {
	node := newFakeNode()
	node.replies["get msg client where topic = new-data"] = "subscriptions are busy"
	svc := newNodeService(node)

	_, err := svc.SendData(context.Background(), "lsl", "ping", []map[string]any{{"v": 1}})
	var pe *reply.ProtocolError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "subscriptions are busy", pe.Raw)
	// Nothing is registered or published after the failure.
	assert.Len(t, node.texts(), 1)
}

func TestNodeService_SendData_RequiresRecords(t *testing.T) {
	svc := newNodeService(newFakeNode())

	_, err := svc.SendData(context.Background(), "lsl", "ping", nil)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestNodeService_Metadata(t *testing.T) {
	node := newFakeNode()
	node.replies["get data nodes where format=json"] = dataNodesReply
	node.replies[`get data nodes where format=json and dbms="lsl"`] = `[
		{"Company": "acme", "DBMS": "lsl", "Table": "ping"},
		{"Company": "beta", "DBMS": "lsl", "Table": "pong"},
		{"Company": "gamma", "DBMS": "lsl", "Table": "ping"}
	]`
	svc := newNodeService(node)
	ctx := context.Background()

	dbs, err := svc.Databases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"edgex", "lsl"}, dbs)

	companies, err := svc.Companies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "beta"}, companies)

	tables, err := svc.Tables(ctx, "lsl")
	require.NoError(t, err)
	assert.Equal(t, []string{"ping", "pong"}, tables)

	_, err = svc.Tables(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestNodeService_Metadata_NonJSONReply(t *testing.T) {
	node := newFakeNode()
	node.replies["get data nodes where format=json"] = "Watchdog: 1"
	svc := newNodeService(node)

	_, err := svc.Databases(context.Background())
	var pe *reply.ProtocolError
	assert.True(t, errors.As(err, &pe))
}

func TestNodeService_Columns_DropsSystemColumns(t *testing.T) {
	node := newFakeNode()
	node.replies[`get columns where dbms="lsl" and table="ping" and format=json`] =
		`{"row_id": "integer", "tsd_name": "char(3)", "tsd_id": "int", "value": "float", "timestamp": "timestamp"}`
	svc := newNodeService(node)

	cols, err := svc.Columns(context.Background(), "lsl", "ping")
	require.NoError(t, err)
	assert.Equal(t, []Column{{Name: "timestamp", Type: "timestamp"}, {Name: "value", Type: "float"}}, cols)
}

func TestNodeService_TableInfo(t *testing.T) {
	node := newFakeNode()
	node.replies[`get columns where dbms="lsl" and table="ping" and format=json`] = `{"row_id": "integer", "value": "float"}`
	node.replies[`get data nodes where format=json and dbms="lsl" and table="ping"`] = dataNodesReply
	svc := newNodeService(node)

	info, err := svc.TableInfo(context.Background(), "lsl", "ping")
	require.NoError(t, err)
	assert.Equal(t, []Column{{Name: "value", Type: "float"}}, info.Columns)
	assert.Equal(t, "acme", info.Company)
	assert.Equal(t, "op1", info.NodeName)
	assert.Equal(t, "10.0.0.1:32148", info.Address)
	assert.Equal(t, "active", info.NodeStatus)
}

func TestNodeService_TableInfo_NoDataNodes(t *testing.T) {
	node := newFakeNode()
	svc := newNodeService(node)

	info, err := svc.TableInfo(context.Background(), "lsl", "ping")
	require.NoError(t, err)
	assert.Equal(t, "lsl", info.DBMS)
	assert.Equal(t, "ping", info.Table)
	assert.Empty(t, info.Columns)
}

func TestNodeService_TablesByCompany(t *testing.T) {
	node := newFakeNode()
	node.replies[`get data nodes where format=json and company="acme"`] = dataNodesReply
	svc := newNodeService(node)

	refs, err := svc.TablesByCompany(context.Background(), "acme", "")
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, TableRef{
		Company: "acme", DBMS: "lsl", Table: "ping", NodeName: "op1", Cluster: "c1", Address: "10.0.0.1:32148",
		ClusterStatus: "active", NodeStatus: "active",
	}, refs[0])

	_, err = svc.TablesByCompany(context.Background(), "", "")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestNodeService_ExecuteSQL_SendsQueryAsGiven(t *testing.T) {
	node := newFakeNode()
	svc := newNodeService(node)

	_, err := svc.ExecuteSQL(context.Background(), "lsl format=table select * from ping")
	require.NoError(t, err)
	require.Len(t, node.sent, 1)
	assert.Equal(t, protocol.Command{Method: models.MethodGet, Text: "sql lsl format=table select * from ping"}, node.sent[0])

	_, err = svc.ExecuteSQL(context.Background(), " ")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestNodeService_RetrieveBlobs(t *testing.T) {
	node := newFakeNode()
	svc := newNodeService(node)

	refs := BlobRefs(reply.Normalize("10.0.0.1:32148 lsl img f1.png ok\n10.0.0.2:32148 lsl img f2.png ok\n"))
	require.Len(t, refs, 2)

	ids, err := svc.RetrieveBlobs(context.Background(), refs, "/tmp/blobs")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1.png", "f2.png"}, ids)

	require.Len(t, node.sent, 2)
	assert.Equal(t, "10.0.0.1:32148", node.sent[0].Destination)
	assert.Equal(t, "file get (dbms = blobs_lsl and table = img and id = f1.png) /tmp/blobs/lsl.img.f1.png", node.sent[0].Text)
}

func TestNodeService_RetrieveBlobs_InvalidRefSendsNothing(t *testing.T) {
	node := newFakeNode()
	svc := newNodeService(node)

	_, err := svc.RetrieveBlobs(context.Background(), []protocol.BlobRef{
		{IP: "10.0.0.1", Port: "32148", DBMS: "lsl", Table: "img", File: "ok.png"},
		{IP: "10.0.0.1", Port: "32148", DBMS: "lsl", Table: "img", File: "bad name"},
	}, "")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	assert.Empty(t, node.sent)
}

func TestNodeService_TransportErrorSurfaces(t *testing.T) {
	node := newFakeNode()
	node.failOn = "test network"
	svc := newNodeService(node)

	_, err := svc.NetworkNodes(context.Background())
	var te *client.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "test network", te.Command)
}

func TestNodeService_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("command") != "test network" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(testNetworkReply))
	}))
	defer srv.Close()

	c, err := client.NewHTTPClient(srv.URL, client.Options{Logger: logging.Nop()})
	require.NoError(t, err)
	svc := NewNodeService(c, logging.Nop())

	addrs, err := svc.NetworkNodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"139.162.200.15:32048"}, addrs)
}
