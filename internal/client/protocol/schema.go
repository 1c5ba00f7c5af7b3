package protocol

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/anylogcli/internal/common"
)

// FieldType is a column type understood by the message client.
type FieldType string

const (
	TypeInt       FieldType = "int"
	TypeFloat     FieldType = "float"
	TypeString    FieldType = "string"
	TypeBool      FieldType = "bool"
	TypeTimestamp FieldType = "timestamp"
)

// SchemaField is one inferred column.
type SchemaField struct {
	Name string
	Type FieldType
}

// Schema is ordered by first appearance of each field.
type Schema []SchemaField

func (s Schema) Lookup(name string) (FieldType, bool) {
	for _, f := range s {
		if f.Name == name {
			return f.Type, true
		}
	}
	return "", false
}

// InferSchema scans all records and records each field's first-observed
// type. The result is the union of fields across records; later records
// never change a type already seen. Keys of a single record are visited in
// sorted order so the outcome does not depend on map iteration.
func InferSchema(records []map[string]any) Schema {
	var schema Schema
	seen := make(map[string]bool)

	for _, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if seen[k] {
				continue
			}
			seen[k] = true
			schema = append(schema, SchemaField{Name: k, Type: typeOf(rec[k])})
		}
	}
	return schema
}

func typeOf(v any) FieldType {
	switch val := v.(type) {
	case bool:
		return TypeBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInt
	case float32, float64:
		return TypeFloat
	case json.Number:
		if strings.ContainsAny(val.String(), ".eE") {
			return TypeFloat
		}
		return TypeInt
	case time.Time:
		return TypeTimestamp
	default:
		return TypeString
	}
}

// TagRecords copies records, sets "dbms" and "table" on every copy and
// returns the JSON array to post. The caller's maps are left untouched.
func TagRecords(records []map[string]any, dbms, table string) ([]byte, error) {
	if err := checkQuoted("dbms", dbms); err != nil {
		return nil, err
	}
	if err := checkQuoted("table", table); err != nil {
		return nil, err
	}

	tagged := make([]map[string]any, len(records))
	for i, rec := range records {
		cp := make(map[string]any, len(rec)+2)
		for k, v := range rec {
			cp[k] = v
		}
		cp["dbms"] = dbms
		cp["table"] = table
		tagged[i] = cp
	}

	b, err := json.Marshal(tagged)
	if err != nil {
		return nil, fmt.Errorf("%w: records are not serializable: %v", common.ErrInvalidArgument, err)
	}
	return b, nil
}
