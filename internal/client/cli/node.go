package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/settings"
	"github.com/dmitrijs2005/anylogcli/internal/client/services"
	"github.com/dmitrijs2005/anylogcli/internal/common"
)

func (a *App) use(ctx context.Context, c call) error {
	if err := a.connect(c.args[0]); err != nil {
		return err
	}
	if err := a.store.Settings.Set(ctx, settings.KeyNode, a.nodeAddr); err != nil {
		return err
	}
	if err := a.node.Ping(ctx); err != nil {
		fmt.Fprintf(a.out, "Switched to %s (not reachable yet: %s)\n", a.nodeAddr, describeError(err))
		return nil
	}
	fmt.Fprintf(a.out, "Switched to %s\n", a.nodeAddr)
	return nil
}

func (a *App) showNode(_ context.Context, _ call) error {
	fmt.Fprintln(a.out, a.nodeAddr)
	return nil
}

func (a *App) sendGet(ctx context.Context, c call) error {
	return a.send(ctx, models.MethodGet, c.rest(0))
}

func (a *App) sendPost(ctx context.Context, c call) error {
	return a.send(ctx, models.MethodPost, c.rest(0))
}

func (a *App) send(ctx context.Context, method models.Method, text string) error {
	env, err := a.nodeSvc.Send(ctx, method, text)
	if err != nil {
		return err
	}
	printEnvelope(a.out, env)
	return nil
}

func (a *App) sql(ctx context.Context, c call) error {
	env, err := a.nodeSvc.ExecuteSQL(ctx, c.rest(0))
	if err != nil {
		return err
	}
	printEnvelope(a.out, env)
	return nil
}

func (a *App) monitor(ctx context.Context, _ call) error {
	recs, err := a.nodeSvc.Monitor(ctx)
	if err != nil {
		return err
	}
	printJSON(a.out, recs)
	return nil
}

func (a *App) peers(ctx context.Context, _ call) error {
	addrs, err := a.nodeSvc.NetworkNodes(ctx)
	if err != nil {
		return err
	}
	printLines(a.out, addrs)
	return nil
}

func (a *App) submitPolicy(ctx context.Context, c call) error {
	attrs, err := parseAttributes(c.args[1:])
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}
	res, err := a.nodeSvc.SubmitPolicy(ctx, services.PolicyRequest{Name: c.args[0], Attributes: attrs})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Policy:")
	printEnvelope(a.out, res.Policy)
	fmt.Fprintln(a.out, "Published:")
	printEnvelope(a.out, res.ReadBack)
	return nil
}

// ingest reads a JSON array of objects (or one object) from a file.
func (a *App) ingest(ctx context.Context, c call) error {
	data, err := os.ReadFile(c.args[2])
	if err != nil {
		return err
	}
	records, err := decodeRecords(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrInvalidArgument, c.args[2], err)
	}

	env, err := a.nodeSvc.SendData(ctx, c.args[0], c.args[1], records)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Sent %d records\n", len(records))
	printEnvelope(a.out, env)
	return nil
}

func decodeRecords(data []byte) ([]map[string]any, error) {
	data = bytes.TrimSpace(data)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if len(data) > 0 && data[0] == '{' {
		var one map[string]any
		if err := dec.Decode(&one); err != nil {
			return nil, err
		}
		return []map[string]any{one}, nil
	}
	var many []map[string]any
	if err := dec.Decode(&many); err != nil {
		return nil, err
	}
	return many, nil
}

func (a *App) blobs(ctx context.Context, c call) error {
	env, err := a.nodeSvc.ExecuteSQL(ctx, c.rest(1))
	if err != nil {
		return err
	}
	refs := services.BlobRefs(env)
	if len(refs) == 0 {
		fmt.Fprintln(a.out, "No blobs in the reply")
		return nil
	}
	ids, err := a.nodeSvc.RetrieveBlobs(ctx, refs, c.args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Requested %d files into %s\n", len(ids), c.args[0])
	printLines(a.out, ids)
	return nil
}

func (a *App) databases(ctx context.Context, _ call) error {
	dbs, err := a.nodeSvc.Databases(ctx)
	if err != nil {
		return err
	}
	printLines(a.out, dbs)
	return nil
}

func (a *App) tables(ctx context.Context, c call) error {
	tables, err := a.nodeSvc.Tables(ctx, c.args[0])
	if err != nil {
		return err
	}
	printLines(a.out, tables)
	return nil
}

func (a *App) columns(ctx context.Context, c call) error {
	cols, err := a.nodeSvc.Columns(ctx, c.args[0], c.args[1])
	if err != nil {
		return err
	}
	for _, col := range cols {
		fmt.Fprintf(a.out, "%-30s %s\n", col.Name, col.Type)
	}
	return nil
}

func (a *App) companies(ctx context.Context, _ call) error {
	names, err := a.nodeSvc.Companies(ctx)
	if err != nil {
		return err
	}
	printLines(a.out, names)
	return nil
}

func (a *App) companyTables(ctx context.Context, c call) error {
	dbms := ""
	if len(c.args) > 1 {
		dbms = c.args[1]
	}
	refs, err := a.nodeSvc.TablesByCompany(ctx, c.args[0], dbms)
	if err != nil {
		return err
	}
	for _, r := range refs {
		fmt.Fprintf(a.out, "%s.%s on %s (%s)\n", r.DBMS, r.Table, r.NodeName, r.Address)
	}
	return nil
}

func (a *App) tableInfo(ctx context.Context, c call) error {
	info, err := a.nodeSvc.TableInfo(ctx, c.args[0], c.args[1])
	if err != nil {
		return err
	}
	printJSON(a.out, info)
	return nil
}
