package variable

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Serialization separators.
const (
	FieldSep = "~"
	ListSep  = "»"
	nullText = "null"
)

var (
	// ErrReservedChar indicates a name or value containing a separator.
	ErrReservedChar = errors.New("field contains a reserved separator")

	// ErrMalformed indicates an entry that cannot be decoded.
	ErrMalformed = errors.New("malformed variable entry")
)

// Encode writes v as name~type~value. GLOBAL variables have an empty type
// field and a nil value is written as "null".
func Encode(v *Variable) (string, error) {
	val := FormatValue(v.Value)
	for _, field := range []string{v.Name, val} {
		if strings.Contains(field, FieldSep) || strings.Contains(field, ListSep) {
			return "", fmt.Errorf("%w: %q", ErrReservedChar, field)
		}
	}
	return v.Name + FieldSep + v.Type.String() + FieldSep + val, nil
}

// EncodeList encodes every variable and joins the entries with ListSep.
func EncodeList(vars []*Variable) (string, error) {
	parts := make([]string, 0, len(vars))
	for _, v := range vars {
		s, err := Encode(v)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ListSep), nil
}

// Decode parses one entry. Both name~type~value and name~value (GLOBAL)
// are accepted.
func Decode(s string) (*Variable, error) {
	fields := strings.Split(s, FieldSep)
	var name, typ, raw string
	switch len(fields) {
	case 2:
		name, raw = fields[0], fields[1]
	case 3:
		name, typ, raw = fields[0], fields[1], fields[2]
	default:
		return nil, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty name in %q", ErrMalformed, s)
	}

	t, err := ParseType(typ)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	value, err := ParseValue(t, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
	return New(name, t, value), nil
}

// DecodeList is the inverse of EncodeList. An empty string yields an
// empty list.
func DecodeList(s string) (List, error) {
	if s == "" {
		return List{}, nil
	}
	entries := strings.Split(s, ListSep)
	out := make(List, 0, len(entries))
	for _, e := range entries {
		v, err := Decode(e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// FormatValue renders a value the way Encode writes it.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return nullText
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// ParseValue converts raw into the Go value stored for type t.
func ParseValue(t Type, raw string) (any, error) {
	if raw == nullText {
		return nil, nil
	}
	switch t {
	case TypeNumber:
		return strconv.ParseFloat(strings.TrimSpace(raw), 64)
	case TypeDate:
		return time.Parse(time.RFC3339, strings.TrimSpace(raw))
	default:
		return raw, nil
	}
}
