// Package commands implements the rulexpr command tree.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/config"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/store"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	verbose    bool
	storePath  string
}

// NewRootCommand creates the rulexpr command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "rulexpr",
		Short: "Evaluate business-rule expressions",
		Long: `rulexpr parses and evaluates conditions and formulas over named variables.

Examples:
  rulexpr eval "2 + 3 * 4"
  rulexpr eval --filter --var AGE:number=17 "AGE >= 18"
  rulexpr eval --vars-file people.yaml "MAX(SCORES) > 90"
  rulexpr tokens "AGE >= 18 AND NAME S= 'A'"
  rulexpr vars save people --vars-file people.yaml`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "settings file (.yaml, .yml, .json or .toml)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log parse and evaluation details to stderr")
	pf.StringVar(&opts.storePath, "store", "", "SQLite file holding saved variable sets")

	cmd.AddCommand(
		newEvalCommand(opts),
		newTokensCommand(opts),
		newVarsCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// settings loads the --config file, or the defaults without one.
func (o *rootOptions) settings() (config.Settings, error) {
	if o.configFile == "" {
		return config.Defaults(), nil
	}
	s, err := config.FromFile(o.configFile)
	if err != nil {
		return config.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

// logger writes to stderr. Only errors are shown unless a settings file
// names a level or --verbose is given.
func (o *rootOptions) logger(cmd *cobra.Command, s config.Settings) *slog.Logger {
	level := slog.LevelError
	if o.configFile != "" {
		if l, err := s.Level(); err == nil {
			level = l
		}
	}
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// openStore opens the variable-set store. --store wins over the settings;
// an in-memory store is replaced by a file under the user config directory
// so sets survive between invocations.
func (o *rootOptions) openStore(s config.Settings) (store.Store, error) {
	st := s.Store
	switch {
	case o.storePath != "":
		st.Driver, st.Path = config.DriverSQLite, o.storePath
	case st.Driver == config.DriverMemory:
		path, err := defaultStorePath()
		if err != nil {
			return nil, err
		}
		st.Driver, st.Path = config.DriverSQLite, path
	}
	return store.Open(st)
}

func defaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	dir = filepath.Join(dir, "rulexpr")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return filepath.Join(dir, "vars.db"), nil
}
