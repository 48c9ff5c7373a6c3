package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/expr"
)

func newTokensCommand(root *rootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "tokens <expression>",
		Short: "Show how an expression is tokenized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.settings()
			if err != nil {
				return err
			}
			conv, err := s.Converter()
			if err != nil {
				return err
			}

			tokens, err := expr.Tokenize(args[0], strict || s.Strict, expr.WithConverter(conv))
			if err != nil {
				return reportError(cmd.ErrOrStderr(), args[0], "lexical", err)
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "POS\tCLASS\tOP\tTEXT")
			for _, t := range tokens {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.Pos, t.Class, t.Op, t.Text)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s\n", expr.Format(tokens))
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject unterminated quotes")
	return cmd
}
