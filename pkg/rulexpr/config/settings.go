package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/convert"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// ErrInvalidSettings is wrapped by every Validate failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings configures the engine, the converter and the variable store.
type Settings struct {
	// Locale is a POSIX or BCP 47 locale name. Empty reads the process
	// environment (LC_ALL, LC_NUMERIC, LANG).
	Locale string

	// DecimalSeparator overrides the locale's separator: "", "." or ",".
	DecimalSeparator string

	// DateLayouts are Go time layouts tried before the built-in ones.
	DateLayouts []string

	// Timezone is an IANA zone for dates written without one. Empty means
	// the local zone.
	Timezone string

	Strict   bool
	MaxDepth int

	// LogLevel is a slog level name: debug, info, warn or error.
	LogLevel string

	Metrics bool
	Tracing bool

	Store StoreSettings
}

// StoreSettings selects the variable-set store.
type StoreSettings struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration
}

// Defaults returns the settings used when no file is given.
func Defaults() Settings {
	return Settings{
		MaxDepth: 32,
		LogLevel: "info",
		Store: StoreSettings{
			Driver:      DriverMemory,
			BusyTimeout: 5 * time.Second,
		},
	}
}

// FromValues reads settings from a decoded document, keeping defaults for
// absent keys.
func FromValues(v Values) Settings {
	s := Defaults()
	s.Locale = v.String("locale", s.Locale)
	s.DecimalSeparator = v.String("decimal_separator", s.DecimalSeparator)
	s.DateLayouts = v.StringSlice("date_layouts", s.DateLayouts)
	s.Timezone = v.String("timezone", s.Timezone)
	s.Strict = v.Bool("strict", s.Strict)
	s.MaxDepth = v.Int("max_depth", s.MaxDepth)
	s.LogLevel = v.String("log_level", s.LogLevel)
	s.Metrics = v.Bool("metrics", s.Metrics)
	s.Tracing = v.Bool("tracing", s.Tracing)

	store := v.Sub("store")
	s.Store.Driver = store.String("driver", s.Store.Driver)
	s.Store.Path = store.String("path", s.Store.Path)
	s.Store.BusyTimeout = store.Duration("busy_timeout", s.Store.BusyTimeout)
	return s
}

// Validate reports the first invalid field.
func (s Settings) Validate() error {
	switch s.DecimalSeparator {
	case "", ".", ",":
	default:
		return fmt.Errorf("%w: decimal_separator must be \".\" or \",\", got %q", ErrInvalidSettings, s.DecimalSeparator)
	}
	if s.MaxDepth <= 0 {
		return fmt.Errorf("%w: max_depth must be positive, got %d", ErrInvalidSettings, s.MaxDepth)
	}
	if _, err := s.Location(); err != nil {
		return fmt.Errorf("%w: timezone: %v", ErrInvalidSettings, err)
	}
	if _, err := s.Level(); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalidSettings, err)
	}
	switch s.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if s.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for the sqlite driver", ErrInvalidSettings)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidSettings, s.Store.Driver)
	}
	return nil
}

// Location resolves Timezone.
func (s Settings) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

// Level parses LogLevel. Empty means info.
func (s Settings) Level() (slog.Level, error) {
	var lvl slog.Level
	if s.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	err := lvl.UnmarshalText([]byte(s.LogLevel))
	return lvl, err
}

// Converter builds the data converter described by the settings.
func (s Settings) Converter() (*convert.Converter, error) {
	loc, err := s.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}

	tag := convert.FromEnvironment()
	if s.Locale != "" {
		tag = convert.ParseLocale(s.Locale)
	}
	opts := []convert.Option{convert.WithLanguage(tag), convert.WithLocation(loc)}
	if s.DecimalSeparator != "" {
		opts = append(opts, convert.WithDecimalSeparator(rune(s.DecimalSeparator[0])))
	}
	if len(s.DateLayouts) > 0 {
		opts = append(opts, convert.WithDateLayouts(s.DateLayouts...))
	}
	return convert.New(opts...), nil
}
