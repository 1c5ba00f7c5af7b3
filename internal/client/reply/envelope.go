package reply

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the shape a reply was classified as.
type Kind string

const (
	KindEmpty        Kind = "empty"
	KindJSON         Kind = "json"
	KindTable        Kind = "table"
	KindStatus       Kind = "status"
	KindBlobManifest Kind = "blob-manifest"
)

// Record is one row of a reply. Values from JSON keep their decoded type
// (numbers as json.Number); values from text replies are strings.
type Record map[string]any

// String returns the value at key rendered as text, or "" when absent.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Project keeps only the listed keys that are present in r.
func (r Record) Project(keys ...string) Record {
	out := make(Record, len(keys))
	for _, k := range keys {
		if v, ok := r[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Envelope is the canonical result of one command.
type Envelope struct {
	Kind    Kind
	Records []Record
	Raw     string
	// Columns holds table header tokens in display order.
	Columns []string
	// Scalar is the first status value when it is purely numeric
	// (int64 or float64); nil otherwise.
	Scalar any
}

func (e Envelope) IsEmpty() bool { return e.Kind == KindEmpty }

// Int returns Scalar as an integer when the status value was integral.
func (e Envelope) Int() (int64, bool) {
	switch v := e.Scalar.(type) {
	case int64:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

// First returns the first record, or nil when there are none.
func (e Envelope) First() Record {
	if len(e.Records) == 0 {
		return nil
	}
	return e.Records[0]
}

// Filter returns the records for which keep reports true.
func (e Envelope) Filter(keep func(Record) bool) []Record {
	var out []Record
	for _, r := range e.Records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func parseScalar(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return nil
}
