package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/config"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/observability"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/store"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/variable"
)

func newVarsCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vars",
		Short: "Manage saved variable sets",
		Long: `Save named variable sets and reuse them with "eval --set NAME".

Sets are kept in a SQLite file: --store, the store section of --config, or
rulexpr/vars.db under the user config directory.`,
	}
	cmd.AddCommand(
		newVarsSaveCommand(root),
		newVarsShowCommand(root),
		newVarsListCommand(root),
		newVarsDeleteCommand(root),
	)
	return cmd
}

// withStore runs fn against the configured store and closes it after.
func withStore(root *rootOptions, fn func(st store.Store, s config.Settings) error) error {
	s, err := root.settings()
	if err != nil {
		return err
	}
	st, err := root.openStore(s)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st, s)
}

func newVarsSaveCommand(root *rootOptions) *cobra.Command {
	var vf varFlags

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save variables under a name, replacing any earlier set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if vf.file == "" && len(vf.assignments) == 0 {
				return errors.New("nothing to save: pass --var or --vars-file")
			}
			return withStore(root, func(st store.Store, s config.Settings) error {
				conv, err := s.Converter()
				if err != nil {
					return err
				}
				vars, err := vf.load(root, s, conv)
				if err != nil {
					return err
				}
				if err := st.Save(args[0], vars); err != nil {
					observability.LogStoreError(root.logger(cmd, s), "save", args[0], err)
					return fmt.Errorf("save %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %d variables as %s\n", len(vars), args[0])
				return nil
			})
		},
	}
	vf.bind(cmd, false)
	return cmd
}

func newVarsShowCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved variable set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(root, func(st store.Store, s config.Settings) error {
				vars, err := st.Load(args[0])
				if err != nil {
					observability.LogStoreError(root.logger(cmd, s), "load", args[0], err)
					return fmt.Errorf("load %s: %w", args[0], err)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tTYPE\tVALUE")
				for _, v := range vars {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Name, typeLabel(v.Type), variable.FormatValue(v.Value))
				}
				return tw.Flush()
			})
		},
	}
}

func newVarsListCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved variable sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(root, func(st store.Store, s config.Settings) error {
				infos, err := st.List()
				if err != nil {
					observability.LogStoreError(root.logger(cmd, s), "list", "", err)
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tCOUNT\tUPDATED")
				for _, info := range infos {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Name, info.Count, info.Updated.Local().Format(time.DateTime))
				}
				return tw.Flush()
			})
		},
	}
}

func newVarsDeleteCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved variable set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(root, func(st store.Store, s config.Settings) error {
				if err := st.Delete(args[0]); err != nil {
					observability.LogStoreError(root.logger(cmd, s), "delete", args[0], err)
					return fmt.Errorf("delete %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func typeLabel(t variable.Type) string {
	if t == variable.TypeGlobal {
		return "global"
	}
	return t.String()
}
