package commands

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/expr"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/variable"
)

type evalOptions struct {
	vars   varFlags
	filter bool
	strict bool
	locale string
	usage  bool
}

func newEvalCommand(root *rootOptions) *cobra.Command {
	opts := &evalOptions{}

	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression",
		Long: `Evaluate an expression and print its value and nature.

With --filter the expression must be a condition; numbers, text and dates
are rejected instead of printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, root, opts, args[0])
		},
	}

	opts.vars.bind(cmd, true)
	cmd.Flags().BoolVar(&opts.filter, "filter", false, "require a condition")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "reject unterminated quotes")
	cmd.Flags().StringVar(&opts.locale, "locale", "", "locale for numbers and dates, e.g. de-DE")
	cmd.Flags().BoolVar(&opts.usage, "usage", false, "print how each variable took part")
	return cmd
}

func runEval(cmd *cobra.Command, root *rootOptions, opts *evalOptions, text string) error {
	s, err := root.settings()
	if err != nil {
		return err
	}
	if opts.locale != "" {
		s.Locale = opts.locale
	}
	if opts.strict {
		s.Strict = true
	}
	if err := s.Validate(); err != nil {
		return err
	}
	conv, err := s.Converter()
	if err != nil {
		return err
	}

	vars, err := opts.vars.load(root, s, conv)
	if err != nil {
		return err
	}

	eng := rulexpr.New(
		rulexpr.FromSettings(s),
		rulexpr.WithConverter(conv),
		rulexpr.WithLogger(root.logger(cmd, s)),
	)

	ctx := cmd.Context()
	compile := eng.Compile
	if opts.filter {
		compile = eng.CompileFilter
	}
	x, err := compile(ctx, text, vars)
	if err != nil {
		return reportError(cmd.ErrOrStderr(), text, "parse", err)
	}
	res, err := eng.Run(ctx, x)
	if err != nil {
		return reportError(cmd.ErrOrStderr(), text, "evaluation", err)
	}
	if _, ok := res.Bool(); opts.filter && !ok {
		return fmt.Errorf("%w: got %s", expr.ErrNotCondition, res.Nature)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", variable.FormatValue(res.Value), res.Nature)
	if opts.usage {
		printUsage(out, res.Usage)
	}
	return nil
}

func printUsage(w io.Writer, usage []*expr.Usage) {
	if len(usage) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tMET\tDIRECT\tAGGREGATES")
	for _, u := range usage {
		var aggs []string
		for fn, r := range u.Results {
			aggs = append(aggs, fmt.Sprintf("%s=%s", fn, variable.FormatValue(r)))
		}
		fmt.Fprintf(tw, "%s\t%t\t%t\t%s\n", u.Variable.Name, u.Met, u.OutsideFunction, strings.Join(sorted(aggs), " "))
	}
	tw.Flush()
}

// reportError points at the failing position under the source text.
func reportError(w io.Writer, text, stage string, err error) error {
	var xe *expr.Error
	if errors.As(err, &xe) {
		fmt.Fprintf(w, "  %s\n  %s^\n", text, strings.Repeat(" ", caretOffset(text, xe.Pos)))
	}
	return fmt.Errorf("%s error: %w", stage, err)
}

// caretOffset converts a rune offset to a column, clamped to the text.
func caretOffset(text string, pos int) int {
	n := len([]rune(text))
	switch {
	case pos < 0:
		return 0
	case pos > n:
		return n
	}
	return pos
}

func sorted(s []string) []string {
	slices.Sort(s)
	return s
}
