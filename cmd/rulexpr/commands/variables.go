package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/config"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/convert"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/variable"
)

// varFlags collects variables from --var, --vars-file and --set.
type varFlags struct {
	assignments []string
	file        string
	set         string
}

func (f *varFlags) bind(cmd *cobra.Command, withSet bool) {
	cmd.Flags().StringArrayVar(&f.assignments, "var", nil, "variable as NAME[:TYPE]=VALUE, TYPE is number, text, date or global (repeatable)")
	cmd.Flags().StringVar(&f.file, "vars-file", "", "YAML, JSON or TOML file with a variables list")
	if withSet {
		cmd.Flags().StringVar(&f.set, "set", "", "saved variable set to load from the store")
	}
}

// load returns the variables in lookup order: --var entries shadow the
// file, which shadows the saved set.
func (f *varFlags) load(root *rootOptions, s config.Settings, conv *convert.Converter) (variable.List, error) {
	var vars variable.List
	for _, a := range f.assignments {
		v, err := parseAssignment(a, conv)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}

	if f.file != "" {
		fromFile, err := readVarsFile(f.file, conv)
		if err != nil {
			return nil, err
		}
		vars = append(vars, fromFile...)
	}

	if f.set != "" {
		st, err := root.openStore(s)
		if err != nil {
			return nil, err
		}
		defer st.Close()

		saved, err := st.Load(f.set)
		if err != nil {
			return nil, fmt.Errorf("load variable set %s: %w", f.set, err)
		}
		vars = append(vars, saved...)
	}
	return vars, nil
}

// parseAssignment reads NAME[:TYPE]=VALUE. Without a type the variable is
// GLOBAL and its value is classified when evaluated.
func parseAssignment(a string, conv *convert.Converter) (*variable.Variable, error) {
	lhs, raw, ok := strings.Cut(a, "=")
	if !ok {
		return nil, fmt.Errorf("invalid --var %q: want NAME[:TYPE]=VALUE", a)
	}
	name, typName, _ := strings.Cut(lhs, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("invalid --var %q: empty name", a)
	}

	typ, err := variable.ParseType(typName)
	if err != nil {
		return nil, fmt.Errorf("invalid --var %q: %w", a, err)
	}
	var value any = raw
	if raw == "null" {
		value = nil
	}
	value, err = typedValue(typ, value, conv)
	if err != nil {
		return nil, fmt.Errorf("invalid --var %q: %w", a, err)
	}
	return variable.New(name, typ, value), nil
}

// readVarsFile reads a document of the form
//
//	variables:
//	  - name: AGE
//	    type: number
//	    value: 42
//	  - name: SCORES
//	    type: number
//	    values: [70, 95]
func readVarsFile(path string, conv *convert.Converter) (variable.List, error) {
	doc, err := config.ValuesFromFile(path)
	if err != nil {
		return nil, err
	}
	entries, ok := doc.Raw()["variables"].([]any)
	if !ok {
		return nil, fmt.Errorf("%s: missing variables list", path)
	}

	vars := make(variable.List, 0, len(entries))
	for i, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: variable %d is not a table", path, i+1)
		}
		v, err := fileVariable(config.NewValues(m), conv)
		if err != nil {
			return nil, fmt.Errorf("%s: variable %d: %w", path, i+1, err)
		}
		vars = append(vars, v)
	}
	return vars, nil
}

func fileVariable(entry config.Values, conv *convert.Converter) (*variable.Variable, error) {
	name := entry.String("name", "")
	if name == "" {
		return nil, fmt.Errorf("missing name")
	}
	typ, err := variable.ParseType(entry.String("type", ""))
	if err != nil {
		return nil, err
	}

	value, err := typedValue(typ, entry.Raw()["value"], conv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	v := variable.New(name, typ, value)
	v.Description = entry.String("description", name)
	v.Invalid = entry.Bool("invalid", false)

	if list, ok := entry.Raw()["values"].([]any); ok {
		values := make([]any, 0, len(list))
		for _, raw := range list {
			x, err := typedValue(typ, raw, conv)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			values = append(values, x)
		}
		v.WithValues(values...)
	}
	return v, nil
}

// typedValue converts a decoded or command-line value to the Go type the
// variable codec stores for typ.
func typedValue(typ variable.Type, raw any, conv *convert.Converter) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch typ {
	case variable.TypeNumber:
		if f, ok := convert.ToFloat(raw); ok {
			return f, nil
		}
		s := fmt.Sprint(raw)
		if f, ok := conv.ClassifyNumber(s); ok {
			return f, nil
		}
		return nil, fmt.Errorf("%q is not a number", s)
	case variable.TypeDate:
		if d, ok := raw.(time.Time); ok {
			return d, nil
		}
		return conv.ParseDate(fmt.Sprint(raw))
	default:
		return variable.FormatValue(raw), nil
	}
}
