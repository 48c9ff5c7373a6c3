package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FromFile loads and validates settings, choosing the format by extension:
// .yaml, .yml, .json or .toml.
func FromFile(path string) (Settings, error) {
	v, err := ValuesFromFile(path)
	if err != nil {
		return Settings{}, err
	}
	s := FromValues(v)
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ValuesFromFile decodes a configuration file without interpreting it.
func ValuesFromFile(path string) (Values, error) {
	data, err := os.ReadFile(os.ExpandEnv(path))
	if err != nil {
		return Values{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	case ".toml":
		return FromTOML(data)
	default:
		return Values{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML decodes YAML data.
func FromYAML(data []byte) (Values, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Values{}, fmt.Errorf("parse yaml: %w", err)
	}
	return NewValues(m), nil
}

// FromJSON decodes JSON data.
func FromJSON(data []byte) (Values, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Values{}, fmt.Errorf("parse json: %w", err)
	}
	return NewValues(m), nil
}

// FromTOML decodes TOML data. Arrays of tables are returned as []any like
// the YAML and JSON decoders produce.
func FromTOML(data []byte) (Values, error) {
	var m map[string]any
	if _, err := toml.Decode(string(data), &m); err != nil {
		return Values{}, fmt.Errorf("parse toml: %w", err)
	}
	return NewValues(normalizeTables(m).(map[string]any)), nil
}

func normalizeTables(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeTables(e)
		}
		return x
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeTables(e)
		}
		return out
	case []any:
		for i, e := range x {
			x[i] = normalizeTables(e)
		}
		return x
	}
	return v
}
