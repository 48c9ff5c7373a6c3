package store_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/config"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/store"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/variable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactory creates a store instance for testing.
type storeFactory func(t *testing.T) store.Store

func sampleSet() variable.List {
	return variable.List{
		variable.New("AGE", variable.TypeNumber, 42.5),
		variable.New("NAME", variable.TypeText, "Ada Lovelace"),
		variable.New("BORN", variable.TypeDate, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)),
		variable.New("RAW", variable.TypeGlobal, "1.234,5"),
		variable.New("NOTHING", variable.TypeText, nil),
	}
}

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	t.Run(name+"/Save_and_Load", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save("people", sampleSet()))

		loaded, err := s.Load("people")
		require.NoError(t, err)
		assert.Equal(t, sampleSet(), loaded)
	})

	t.Run(name+"/Load_NotFound", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		_, err := s.Load("missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run(name+"/Save_Overwrite", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save("set", sampleSet()))
		require.NoError(t, s.Save("set", variable.List{variable.New("X", variable.TypeNumber, 1.0)}))

		loaded, err := s.Load("set")
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "X", loaded[0].Name)
	})

	t.Run(name+"/Save_Empty", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save("empty", nil))
		loaded, err := s.Load("empty")
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})

	t.Run(name+"/InvalidName", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		assert.ErrorIs(t, s.Save("  ", sampleSet()), store.ErrInvalidName)
		_, err := s.Load("")
		assert.ErrorIs(t, err, store.ErrInvalidName)
	})

	t.Run(name+"/Save_ReservedChar", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		bad := variable.List{variable.New("A~B", variable.TypeText, "x")}
		assert.ErrorIs(t, s.Save("bad", bad), variable.ErrReservedChar)
	})

	t.Run(name+"/List", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		infos, err := s.List()
		require.NoError(t, err)
		assert.Empty(t, infos)

		require.NoError(t, s.Save("zeta", sampleSet()))
		require.NoError(t, s.Save("alpha", sampleSet()[:2]))

		infos, err = s.List()
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, "alpha", infos[0].Name)
		assert.Equal(t, 2, infos[0].Count)
		assert.Equal(t, "zeta", infos[1].Name)
		assert.Equal(t, 5, infos[1].Count)
		assert.Positive(t, infos[1].Size)
		assert.WithinDuration(t, time.Now(), infos[1].Updated, time.Minute)
	})

	t.Run(name+"/Delete", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save("set", sampleSet()))
		require.NoError(t, s.Delete("set"))
		_, err := s.Load("set")
		assert.ErrorIs(t, err, store.ErrNotFound)

		assert.NoError(t, s.Delete("never-saved"))
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		s := factory(t)
		require.NoError(t, s.Close())

		assert.ErrorIs(t, s.Save("set", sampleSet()), store.ErrStoreClosed)
		_, err := s.Load("set")
		assert.ErrorIs(t, err, store.ErrStoreClosed)
		_, err = s.List()
		assert.ErrorIs(t, err, store.ErrStoreClosed)
		assert.ErrorIs(t, s.Delete("set"), store.ErrStoreClosed)
		assert.NoError(t, s.Close())
	})

	t.Run(name+"/Concurrent", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				set := "set-" + string(rune('a'+id%5))
				for j := 0; j < 10; j++ {
					switch j % 3 {
					case 0:
						_ = s.Save(set, sampleSet())
					case 1:
						_, _ = s.Load(set)
					case 2:
						_, _ = s.List()
					}
				}
			}(i)
		}
		wg.Wait()

		infos, err := s.List()
		require.NoError(t, err)
		assert.Len(t, infos, 5)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContractTest(t, "Memory", func(t *testing.T) store.Store {
		return store.NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	storeContractTest(t, "SQLite", func(t *testing.T) store.Store {
		s, err := store.NewSQLiteStore(":memory:")
		require.NoError(t, err)
		return s
	})
}

func TestSQLiteStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.db")

	s1, err := store.NewSQLiteStore(path, store.WithBusyTimeout(time.Second))
	require.NoError(t, err)
	require.NoError(t, s1.Save("people", sampleSet()))
	require.NoError(t, s1.Close())

	s2, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	loaded, err := s2.Load("people")
	require.NoError(t, err)
	assert.Equal(t, sampleSet(), loaded)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := store.NewSQLiteStore("/nonexistent/path/vars.db")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	s, err := store.Open(config.StoreSettings{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, s)
	require.NoError(t, s.Close())

	s, err = store.Open(config.StoreSettings{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "vars.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = store.Open(config.StoreSettings{Driver: "redis"})
	assert.Error(t, err)
}
