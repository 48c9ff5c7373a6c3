// Package store persists named variable sets.
//
// Sets are kept in the variable codec's text form (name~type~value»...), so
// a set read back has the same names, types and values as the one saved.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/config"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/variable"
)

// Store persists variable sets by name.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores vars under name, replacing any existing set.
	Save(name string, vars variable.List) error

	// Load returns the set saved under name.
	// Returns ErrNotFound if there is none.
	Load(name string) (variable.List, error)

	// List returns metadata for every set, ordered by name.
	List() ([]Info, error)

	// Delete removes a set. Deleting a missing set is not an error.
	Delete(name string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info describes a saved set without decoding it.
type Info struct {
	Name    string
	Count   int
	Updated time.Time
	Size    int64
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates no set is saved under the name.
	ErrNotFound = errors.New("variable set not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("variable store closed")

	// ErrInvalidName indicates an empty set name.
	ErrInvalidName = errors.New("invalid variable set name")
)

// Open creates the store selected by s.
func Open(s config.StoreSettings) (Store, error) {
	switch s.Driver {
	case "", config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverSQLite:
		return NewSQLiteStore(s.Path, WithBusyTimeout(s.BusyTimeout))
	default:
		return nil, fmt.Errorf("unknown store driver %q", s.Driver)
	}
}

func checkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

func encode(vars variable.List) (string, error) {
	data, err := variable.EncodeList(vars)
	if err != nil {
		return "", fmt.Errorf("encode variables: %w", err)
	}
	return data, nil
}

func decode(name, data string) (variable.List, error) {
	vars, err := variable.DecodeList(data)
	if err != nil {
		return nil, fmt.Errorf("decode variable set %s: %w", name, err)
	}
	return vars, nil
}
