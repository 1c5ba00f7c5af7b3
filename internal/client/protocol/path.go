package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/anylogcli/internal/common"
)

// PolicyPath addresses a location inside a nested policy document,
// e.g. ["bookmark", "bookmarks", "GroupA", "ButtonX"].
type PolicyPath []string

// Child returns a new path with seg appended; p is not modified.
func (p PolicyPath) Child(seg ...string) PolicyPath {
	out := make(PolicyPath, 0, len(p)+len(seg))
	out = append(out, p...)
	return append(out, seg...)
}

// Validate rejects empty paths and segments the bracket syntax cannot carry.
// Segments are not escaped by the node, so '[' and ']' are refused here.
func (p PolicyPath) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty policy path", common.ErrInvalidArgument)
	}
	for i, seg := range p {
		if strings.TrimSpace(seg) == "" {
			return fmt.Errorf("%w: empty segment at position %d", common.ErrInvalidArgument, i)
		}
		if strings.ContainsAny(seg, "[]\n\r") {
			return fmt.Errorf("%w: segment %q contains a reserved character", common.ErrInvalidArgument, seg)
		}
	}
	return nil
}

func (p PolicyPath) String() string {
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('[')
		b.WriteString(seg)
		b.WriteByte(']')
	}
	return b.String()
}

// EmptyObject renders as {}.
type EmptyObject struct{}

// Field is one key of an inline Object literal.
type Field struct {
	Key   string
	Value string
}

// Object renders as an inline literal {"k": "v", ...} in field order.
type Object []Field

// Encode renders "[seg1]...[segN] = <value>". Supported values are
// EmptyObject, Object, string (quoted), bool and integer/float numbers (bare).
func Encode(path PolicyPath, value any) (string, error) {
	if err := path.Validate(); err != nil {
		return "", err
	}
	lit, err := literal(value)
	if err != nil {
		return "", err
	}
	return path.String() + " = " + lit, nil
}

// SetPolicy renders the full "set policy <doc> <path> = <value>" command text.
func SetPolicy(doc string, path PolicyPath, value any) (string, error) {
	if err := checkName(doc); err != nil {
		return "", err
	}
	frag, err := Encode(path, value)
	if err != nil {
		return "", err
	}
	return "set policy " + doc + " " + frag, nil
}

func literal(value any) (string, error) {
	switch v := value.(type) {
	case EmptyObject:
		return "{}", nil
	case Object:
		if len(v) == 0 {
			return "{}", nil
		}
		parts := make([]string, len(v))
		for i, f := range v {
			parts[i] = quote(f.Key) + ": " + quote(f.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	case string:
		return quote(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: unsupported policy value %T", common.ErrInvalidArgument, value)
	}
}

// quote renders s as a JSON string without HTML escaping.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
