package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValues_Int verifies integer extraction across decoder number types.
func TestValues_Int(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want int
	}{
		{"int", map[string]any{"n": 7}, 7},
		{"int64 from toml", map[string]any{"n": int64(8)}, 8},
		{"whole float from json", map[string]any{"n": 9.0}, 9},
		{"fractional float", map[string]any{"n": 9.5}, -1},
		{"string", map[string]any{"n": "9"}, -1},
		{"missing", map[string]any{}, -1},
		{"nil map", nil, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.NewValues(tt.data).Int("n", -1))
		})
	}
}

// TestValues_Duration verifies duration extraction.
func TestValues_Duration(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want time.Duration
	}{
		{"string", "1m30s", 90 * time.Second},
		{"int milliseconds", 250, 250 * time.Millisecond},
		{"int64 milliseconds", int64(40), 40 * time.Millisecond},
		{"float milliseconds", 1.5, 1500 * time.Microsecond},
		{"duration", 3 * time.Second, 3 * time.Second},
		{"invalid string", "soon", time.Hour},
		{"wrong type", true, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := config.NewValues(map[string]any{"d": tt.val})
			assert.Equal(t, tt.want, v.Duration("d", time.Hour))
		})
	}
}

func TestValues_Accessors(t *testing.T) {
	v := config.NewValues(map[string]any{
		"name":    "rules",
		"enabled": true,
		"list":    []any{"a", "b"},
		"mixed":   []any{"a", 1},
		"typed":   []string{"x"},
		"store":   map[string]any{"path": "/tmp/x.db"},
	})

	assert.Equal(t, "rules", v.String("name", "d"))
	assert.Equal(t, "d", v.String("enabled", "d"))
	assert.True(t, v.Bool("enabled", false))
	assert.False(t, v.Bool("name", false))
	assert.Equal(t, []string{"a", "b"}, v.StringSlice("list", nil))
	assert.Nil(t, v.StringSlice("mixed", nil))
	assert.Equal(t, []string{"x"}, v.StringSlice("typed", nil))
	assert.Equal(t, "/tmp/x.db", v.Sub("store").String("path", ""))
	assert.False(t, v.Sub("name").Has("path"))
	assert.True(t, v.Has("list"))
	assert.False(t, v.Has("absent"))
	assert.Len(t, v.Raw(), 6)
}

func TestDefaults(t *testing.T) {
	s := config.Defaults()
	require.NoError(t, s.Validate())
	assert.Equal(t, 32, s.MaxDepth)
	assert.Equal(t, config.DriverMemory, s.Store.Driver)
	assert.Equal(t, 5*time.Second, s.Store.BusyTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Settings)
	}{
		{"decimal separator", func(s *config.Settings) { s.DecimalSeparator = ";" }},
		{"max depth", func(s *config.Settings) { s.MaxDepth = 0 }},
		{"timezone", func(s *config.Settings) { s.Timezone = "Nowhere/Atlantis" }},
		{"log level", func(s *config.Settings) { s.LogLevel = "chatty" }},
		{"driver", func(s *config.Settings) { s.Store.Driver = "redis" }},
		{"sqlite path", func(s *config.Settings) { s.Store.Driver = config.DriverSQLite }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.Defaults()
			tt.modify(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalidSettings)
		})
	}
}

func TestSettings_Converter(t *testing.T) {
	s := config.Defaults()
	s.Locale = "de_DE.UTF-8"
	s.Timezone = "UTC"
	s.DateLayouts = []string{"02.01.2006"}

	conv, err := s.Converter()
	require.NoError(t, err)
	assert.Equal(t, ',', conv.DecimalSeparator())

	v, ok := conv.Classify("1.234,5")
	require.True(t, ok)
	assert.Equal(t, 1234.5, v)

	d, err := conv.ParseDate("05.03.2024")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), d)

	s.DecimalSeparator = "."
	conv, err = s.Converter()
	require.NoError(t, err)
	assert.Equal(t, '.', conv.DecimalSeparator())
}

func TestSettings_Level(t *testing.T) {
	s := config.Defaults()
	s.LogLevel = "debug"
	lvl, err := s.Level()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", lvl.String())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFromFile(t *testing.T) {
	files := map[string]string{
		"rulexpr.yaml": `
locale: fr-FR
strict: true
max_depth: 8
date_layouts: ["02/01/2006"]
store:
  driver: sqlite
  path: /tmp/vars.db
  busy_timeout: 2s
`,
		"rulexpr.json": `{
  "locale": "fr-FR",
  "strict": true,
  "max_depth": 8,
  "date_layouts": ["02/01/2006"],
  "store": {"driver": "sqlite", "path": "/tmp/vars.db", "busy_timeout": "2s"}
}`,
		"rulexpr.toml": `
locale = "fr-FR"
strict = true
max_depth = 8
date_layouts = ["02/01/2006"]

[store]
driver = "sqlite"
path = "/tmp/vars.db"
busy_timeout = 2000
`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			s, err := config.FromFile(writeFile(t, name, content))
			require.NoError(t, err)

			assert.Equal(t, "fr-FR", s.Locale)
			assert.True(t, s.Strict)
			assert.Equal(t, 8, s.MaxDepth)
			assert.Equal(t, []string{"02/01/2006"}, s.DateLayouts)
			assert.Equal(t, config.DriverSQLite, s.Store.Driver)
			assert.Equal(t, "/tmp/vars.db", s.Store.Path)
			assert.Equal(t, 2*time.Second, s.Store.BusyTimeout)
			assert.Equal(t, "info", s.LogLevel)
		})
	}
}

func TestFromFile_Errors(t *testing.T) {
	_, err := config.FromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.FromFile(writeFile(t, "rulexpr.ini", "strict=true"))
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = config.FromFile(writeFile(t, "bad.json", "{"))
	assert.ErrorContains(t, err, "parse json")

	_, err = config.FromFile(writeFile(t, "bad.toml", "= 1"))
	assert.ErrorContains(t, err, "parse toml")

	_, err = config.FromFile(writeFile(t, "bad.yaml", "max_depth: -1\n"))
	assert.ErrorIs(t, err, config.ErrInvalidSettings)
}

// TestFromTOML_ArrayOfTables verifies [[tables]] decode to the same shape
// as YAML and JSON lists.
func TestFromTOML_ArrayOfTables(t *testing.T) {
	doc := `
[[variables]]
name = "AGE"
type = "number"
value = 42

[[variables]]
name = "SCORES"
values = [70, 95]

[store]
[[store.tags]]
id = "a"
`
	fromTOML, err := config.FromTOML([]byte(doc))
	require.NoError(t, err)

	list, ok := fromTOML.Raw()["variables"].([]any)
	require.True(t, ok, "got %T", fromTOML.Raw()["variables"])
	require.Len(t, list, 2)

	first, ok := list[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "AGE", config.NewValues(first).String("name", ""))
	assert.Equal(t, 42, config.NewValues(first).Int("value", 0))

	_, ok = fromTOML.Sub("store").Raw()["tags"].([]any)
	assert.True(t, ok)

	fromYAML, err := config.FromYAML([]byte("variables:\n  - name: AGE\n  - name: SCORES\n"))
	require.NoError(t, err)
	yamlList, ok := fromYAML.Raw()["variables"].([]any)
	require.True(t, ok)
	assert.Len(t, yamlList, len(list))
}
