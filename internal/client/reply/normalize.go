package reply

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
	"unicode"
)

// Envelope keys a node may wrap its JSON payload in, in lookup order.
var envelopeKeys = []string{"data", "Query", "result"}

// Keys that make a JSON record a blob descriptor.
var BlobKeys = []string{"ip", "port", "dbms_name", "table_name", "file"}

// Lower-case prefixes of replies that mean "nothing here".
var emptyMarkers = []string{
	"no message client subscriptions",
	"no such",
	"not found",
	"no data",
	"no policy",
}

var (
	statusLineRe = regexp.MustCompile(`^([A-Za-z][^:]*):(?:\s+(.*))?$`)
	addrRe       = regexp.MustCompile(`^\S+:\d+$`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	separatorRe  = regexp.MustCompile(`^[\s\-|=]+$`)
)

// Normalize classifies raw into exactly one Kind. The first matching rule
// wins: empty, json, table, status, blob-manifest. Anything else is
// returned as a status envelope holding {"raw": text}.
func Normalize(raw string) Envelope {
	env := Envelope{Raw: raw}
	text := strings.TrimSpace(raw)

	if text == "" || isEmptyMarker(text) {
		env.Kind = KindEmpty
		return env
	}

	if recs, isJSON := parseJSON(text); isJSON {
		if len(recs) == 0 {
			env.Kind = KindEmpty
			return env
		}
		env.Kind = KindJSON
		if allBlobs(recs) {
			env.Kind = KindBlobManifest
		}
		env.Records = recs
		return env
	}

	lines := splitLines(raw)

	if cols, recs, ok := parseTable(lines); ok {
		env.Kind = KindTable
		env.Columns = cols
		env.Records = recs
		return env
	}

	if recs, scalar, ok := parseStatus(lines); ok {
		env.Kind = KindStatus
		env.Records = recs
		env.Scalar = scalar
		return env
	}

	if recs, ok := parseBlobLines(lines); ok {
		env.Kind = KindBlobManifest
		env.Records = recs
		return env
	}

	env.Kind = KindStatus
	env.Records = []Record{{"raw": text}}
	return env
}

func isEmptyMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range emptyMarkers {
		if strings.HasPrefix(lower, m) {
			return true
		}
	}
	return false
}

// parseJSON reports isJSON when text is a single JSON value starting with
// '{' or '['. An object carrying an envelope key is unwrapped one level.
func parseJSON(text string) ([]Record, bool) {
	if text[0] != '{' && text[0] != '[' {
		return nil, false
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}

	if obj, ok := v.(map[string]any); ok {
		for _, k := range envelopeKeys {
			inner, ok := obj[k]
			if !ok {
				continue
			}
			switch inner.(type) {
			case map[string]any, []any:
				v = inner
			}
			break
		}
	}

	switch val := v.(type) {
	case map[string]any:
		if len(val) == 0 {
			return nil, true
		}
		return []Record{Record(val)}, true
	case []any:
		recs := make([]Record, 0, len(val))
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				recs = append(recs, Record(m))
				continue
			}
			recs = append(recs, Record{"value": item})
		}
		return recs, true
	default:
		return nil, true
	}
}

func allBlobs(recs []Record) bool {
	for _, r := range recs {
		for _, k := range BlobKeys {
			if _, ok := r[k]; !ok {
				return false
			}
		}
	}
	return true
}

// splitLines drops blank lines and trailing space but keeps indentation,
// which fixed-width tables depend on.
func splitLines(raw string) []string {
	var out []string
	for _, l := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		l = strings.TrimRightFunc(l, unicode.IsSpace)
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func parseTable(lines []string) ([]string, []Record, bool) {
	for i := 1; i < len(lines); i++ {
		if isSeparator(lines[i]) {
			return parseFixedTable(lines[i-1], lines[i], lines[i+1:])
		}
	}
	return parseDelimitedTable(lines)
}

func isSeparator(line string) bool {
	t := strings.TrimSpace(line)
	return strings.Contains(t, "---") && separatorRe.MatchString(t)
}

type span struct{ start, end int }

// parseFixedTable reads the node's aligned layout: a header line, a
// separator of dashes split by '|' marking the column widths, then rows.
func parseFixedTable(header, sep string, rows []string) ([]string, []Record, bool) {
	spans := columnSpans(sep)
	if len(spans) < 1 {
		return nil, nil, false
	}

	cols := make([]string, len(spans))
	for i, s := range spans {
		cols[i] = cell(header, s)
	}
	if !looksLikeHeader(cols) {
		return nil, nil, false
	}

	recs := make([]Record, 0, len(rows))
	for _, row := range rows {
		if isSeparator(row) {
			continue
		}
		var cells []string
		if parts := strings.Split(row, "|"); len(parts) >= len(spans) {
			cells = parts[:len(spans)]
		} else {
			cells = make([]string, len(spans))
			for i, s := range spans {
				cells[i] = cell(row, s)
			}
		}
		rec := make(Record, len(cols))
		for i, c := range cols {
			rec[c] = strings.TrimSpace(cells[i])
		}
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return nil, nil, false
	}
	return cols, recs, true
}

// columnSpans returns byte ranges of the dash runs in sep. A run ends at
// '|', at a blank, or at end of line.
func columnSpans(sep string) []span {
	var spans []span
	start := -1
	for i := 0; i <= len(sep); i++ {
		dash := i < len(sep) && (sep[i] == '-' || sep[i] == '=')
		switch {
		case dash && start == -1:
			start = i
		case !dash && start != -1:
			spans = append(spans, span{start, i})
			start = -1
		}
	}
	// Widen each span to the start of the next so values that spill past
	// the dashes stay in their column.
	for i := range spans {
		if i+1 < len(spans) {
			spans[i].end = spans[i+1].start
		} else {
			spans[i].end = -1
		}
	}
	return spans
}

func cell(line string, s span) string {
	if s.start >= len(line) {
		return ""
	}
	end := s.end
	if end == -1 || end > len(line) {
		end = len(line)
	}
	return strings.Trim(line[s.start:end], " \t|")
}

// parseDelimitedTable accepts a header row followed by rows with the same
// number of cells, split on '|', tabs, or runs of two or more spaces.
func parseDelimitedTable(lines []string) ([]string, []Record, bool) {
	if len(lines) < 2 {
		return nil, nil, false
	}
	split := splitterFor(lines[0])
	if split == nil {
		return nil, nil, false
	}

	cols := split(lines[0])
	if len(cols) < 2 || !looksLikeHeader(cols) {
		return nil, nil, false
	}

	recs := make([]Record, 0, len(lines)-1)
	for _, l := range lines[1:] {
		cells := split(l)
		if len(cells) != len(cols) {
			return nil, nil, false
		}
		rec := make(Record, len(cols))
		for i, c := range cols {
			rec[c] = cells[i]
		}
		recs = append(recs, rec)
	}
	return cols, recs, true
}

func splitterFor(header string) func(string) []string {
	trimAll := func(parts []string) []string {
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	switch {
	case strings.Contains(header, "|"):
		return func(l string) []string { return trimAll(strings.Split(l, "|")) }
	case strings.Contains(header, "\t"):
		return func(l string) []string { return trimAll(strings.Split(l, "\t")) }
	case multiSpaceRe.MatchString(strings.TrimSpace(header)):
		return func(l string) []string { return trimAll(multiSpaceRe.Split(strings.TrimSpace(l), -1)) }
	}
	return nil
}

// looksLikeHeader rejects token rows that are really data or status lines.
func looksLikeHeader(cols []string) bool {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if c == "" || seen[c] || addrRe.MatchString(c) || strings.HasSuffix(c, ":") {
			return false
		}
		if strings.IndexFunc(c, unicode.IsLetter) == -1 {
			return false
		}
		seen[c] = true
	}
	return true
}

// parseStatus accepts replies where every line is "label: value". All
// pairs land in one record; Scalar is the first value if numeric.
func parseStatus(lines []string) ([]Record, any, bool) {
	if len(lines) == 0 {
		return nil, nil, false
	}
	rec := make(Record, len(lines))
	var scalar any
	for i, l := range lines {
		m := statusLineRe.FindStringSubmatch(strings.TrimSpace(l))
		if m == nil {
			return nil, nil, false
		}
		label, value := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		rec[label] = value
		if i == 0 {
			scalar = parseScalar(value)
		}
	}
	return []Record{rec}, scalar, true
}

// parseBlobLines accepts lines of "<ip:port> <dbms> <table> <file> [status]".
func parseBlobLines(lines []string) ([]Record, bool) {
	recs := make([]Record, 0, len(lines))
	for _, l := range lines {
		f := strings.Fields(l)
		if len(f) < 4 || len(f) > 5 || !addrRe.MatchString(f[0]) {
			return nil, false
		}
		idx := strings.LastIndexByte(f[0], ':')
		rec := Record{
			"ip":         f[0][:idx],
			"port":       f[0][idx+1:],
			"dbms_name":  f[1],
			"table_name": f[2],
			"file":       f[3],
		}
		if len(f) == 5 {
			rec["status"] = f[4]
		}
		recs = append(recs, rec)
	}
	return recs, len(recs) > 0
}

// DecodeInto re-encodes a record into a typed value.
func DecodeInto(r Record, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(r); err != nil {
		return err
	}
	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	return dec.Decode(v)
}
