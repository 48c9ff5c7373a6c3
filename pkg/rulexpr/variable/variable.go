// Package variable holds the caller-owned variables an expression is
// evaluated against.
//
// Variables are looked up case-insensitively by name or description. A
// variable without a declared type is GLOBAL: its text is classified into a
// number or date only when an expression uses it.
package variable

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/aggregate"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/convert"
)

// Type is the declared type of a variable.
type Type int

const (
	// TypeGlobal marks an untyped variable.
	TypeGlobal Type = iota
	TypeNumber
	TypeDate
	TypeText
)

// String returns the serialized type name. GLOBAL serializes as "".
func (t Type) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeDate:
		return "date"
	case TypeText:
		return "text"
	default:
		return ""
	}
}

// ParseType is the inverse of Type.String. "", "null" and "global" all
// mean TypeGlobal.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "global":
		return TypeGlobal, nil
	case "number":
		return TypeNumber, nil
	case "date":
		return TypeDate, nil
	case "text":
		return TypeText, nil
	}
	return TypeGlobal, fmt.Errorf("unknown variable type %q", s)
}

// Variable is a named value an expression can reference.
type Variable struct {
	Name        string
	Description string
	Type        Type

	// Value is the single current value. nil means no value.
	Value any

	// Values, when non-empty, is what aggregate functions operate on.
	Values []any

	// Invalid marks a variable the caller has rejected; referencing it is
	// an error.
	Invalid bool
}

// New creates a variable whose description defaults to its name.
func New(name string, typ Type, value any) *Variable {
	return &Variable{Name: name, Description: name, Type: typ, Value: value}
}

// WithValues sets the aggregate values and returns v.
func (v *Variable) WithValues(values ...any) *Variable {
	v.Values = values
	return v
}

// Label returns the description, or the name when no description is set.
func (v *Variable) Label() string {
	if v.Description != "" {
		return v.Description
	}
	return v.Name
}

// Matches reports whether name refers to v.
func (v *Variable) Matches(name string) bool {
	return strings.EqualFold(v.Name, name) || (v.Description != "" && strings.EqualFold(v.Description, name))
}

// Items returns Values, or the single Value when Values is empty.
func (v *Variable) Items() []any {
	if len(v.Values) > 0 {
		return v.Values
	}
	if v.Value == nil {
		return nil
	}
	return []any{v.Value}
}

// Aggregate applies fn over Items. GLOBAL variables pass SUM and AVG
// entries through conv; typed variables are summed as stored.
func (v *Variable) Aggregate(fn aggregate.Func, conv *convert.Converter) (any, error) {
	c := conv
	if v.Type != TypeGlobal && (fn == aggregate.Sum || fn == aggregate.Avg) {
		c = nil
	}
	res, err := aggregate.Apply(fn, v.Items(), c)
	if err != nil {
		return nil, fmt.Errorf("%s of %s: %w", fn, v.Name, err)
	}
	return res, nil
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s=%v", v.Name, v.Value)
}

// List is an ordered set of variables.
type List []*Variable

// Resolve returns the first variable matching name, or nil.
func (l List) Resolve(name string) *Variable {
	return Resolve(name, l)
}

// Resolve returns the first variable in vars whose name or description
// equals name, ignoring case.
func Resolve(name string, vars []*Variable) *Variable {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for _, v := range vars {
		if v != nil && v.Matches(name) {
			return v
		}
	}
	return nil
}
