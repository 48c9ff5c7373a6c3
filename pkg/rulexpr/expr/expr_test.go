package expr_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/aggregate"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/expr"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/variable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluate(t *testing.T, text string, vars variable.List, opts ...expr.Option) *expr.Result {
	t.Helper()
	e, err := expr.ParseWith(text, vars, opts...)
	require.NoError(t, err, "parse %q", text)
	res, err := e.Evaluate()
	require.NoError(t, err, "evaluate %q", text)
	return res
}

func TestEvaluate_Values(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   any
		nature expr.Nature
	}{
		{"precedence", "2 + 3 * 4", 14.0, expr.NatureNumeric},
		{"parentheses", "(2 + 3) * 4", 20.0, expr.NatureNumeric},
		{"subtraction is left associative", "10 - 4 - 3", 3.0, expr.NatureNumeric},
		{"division is left associative", "8 / 4 / 2", 1.0, expr.NatureNumeric},
		{"leading minus", "-(2 + 3) * 2", -10.0, expr.NatureNumeric},
		{"decimal arithmetic", "0.1 + 0.2 = 0.3", true, expr.NatureLogical},
		{"thousands separator", "1,234 + 1", 1235.0, expr.NatureNumeric},
		{"concatenation", "'ab' + 'cd'", "abcd", expr.NatureText},
		{"and", "5 > 3 AND 2 < 1", false, expr.NatureLogical},
		{"not group", "NOT (5 > 3)", false, expr.NatureLogical},
		{"not binds to the next term", "NOT 5 > 3 OR 1 = 1", true, expr.NatureLogical},
		{"and not", "5 > 3 AND NOT 2 > 1", false, expr.NatureLogical},
		{"and before or", "1 = 1 OR 1 = 2 AND 1 = 2", true, expr.NatureLogical},
		{"lowercase keywords", "1 = 1 and not 2 = 3", true, expr.NatureLogical},
		{"coalesced comparator", "3 => 3", true, expr.NatureLogical},
		{"max", "MAX(3 5 1)", 5.0, expr.NatureNumeric},
		{"min", "MIN(4, 2) + 1", 3.0, expr.NatureNumeric},
		{"second max", "MX2(3 5 1)", 3.0, expr.NatureNumeric},
		{"second min", "MN2(3 5 1)", 3.0, expr.NatureNumeric},
		{"sum", "SUM(1, 2, 3.5)", 6.5, expr.NatureNumeric},
		{"avg", "AVG(2 4)", 3.0, expr.NatureNumeric},
		{"abs of compound operand", "ABS(2 - 5)", 3.0, expr.NatureNumeric},
		{"nested group in function", "MAX((1 + 2) 2)", 3.0, expr.NatureNumeric},
		{"text max", "MAX('pear' 'apple')", "pear", expr.NatureText},
		{"starts with", "'Hello' + ' ' + 'World' C= 'lo W'", true, expr.NatureLogical},
		{"case-insensitive starts with", "'  Alice ' iS= 'ali'", true, expr.NatureLogical},
		{"ends with", "'abc' E= 'bc'", true, expr.NatureLogical},
		{"text inequality", "'abc' != 'abd'", true, expr.NatureLogical},
		{"case-sensitive equality", "'abc' = 'ABC'", false, expr.NatureLogical},
		{"case-insensitive equality", "'abc' i= ' ABC '", true, expr.NatureLogical},
		{"date order", "2024-03-05 > 2024-01-01", true, expr.NatureLogical},
		{"date equality includes time", "2024-03-05T10:00 = 2024-03-05", false, expr.NatureLogical},
		{"date equality by day", "2024-03-05T10:00 i= 2024-03-05", true, expr.NatureLogical},
		{"unknown identifier is text", "Paris = 'Paris'", true, expr.NatureLogical},
		{"empty expression", "", true, expr.NatureLogical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := evaluate(t, tt.in, nil)
			assert.Equal(t, tt.want, res.Value)
			assert.Equal(t, tt.nature, res.Nature)
		})
	}
}

func TestEvaluate_Variables(t *testing.T) {
	vars := variable.List{
		variable.New("AGE", variable.TypeNumber, 30.0),
		variable.New("NAME", variable.TypeText, "Bob"),
		variable.New("SALARY", variable.TypeNumber, "1,000"),
		variable.New("BORN", variable.TypeDate, "2000-06-15"),
		variable.New("G", variable.TypeGlobal, "1,500"),
		variable.New("D", variable.TypeGlobal, "2024-03-05"),
		variable.New("CITY", variable.TypeGlobal, "Lyon"),
	}

	tests := []struct {
		in   string
		want any
	}{
		{"AGE >= 18 AND (NAME S= 'A' OR SALARY*1.1 > 1000)", true},
		{"age + 1", 31.0},
		{"NAME + '!'", "Bob!"},
		{"BORN < 2001-01-01", true},
		{"G > 1000", true},
		{"G + 1", 1501.0},
		{"G S= '1,5'", true},
		{"D < 2025-01-01", true},
		{"CITY = 'Lyon'", true},
		{"CITY + '-' + NAME", "Lyon-Bob"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, evaluate(t, tt.in, vars).Value)
		})
	}
}

func TestEvaluate_ForceLogical(t *testing.T) {
	for age, want := range map[float64]bool{17: false, 18: true} {
		vars := variable.List{variable.New("AGE", variable.TypeNumber, age)}
		res := evaluate(t, "AGE >= 18", vars, expr.WithForceLogical(true))
		b, ok := res.Bool()
		require.True(t, ok)
		assert.Equal(t, want, b, "AGE=%v", age)
	}

	_, err := expr.Parse("1 + 2", expr.WithForceLogical(true))
	require.Error(t, err)
	assert.ErrorIs(t, err, expr.ErrNotCondition)
}

func TestEvaluate_MultiValuedFunctions(t *testing.T) {
	vars := variable.List{
		variable.New("A", variable.TypeNumber, nil).WithValues(1.0, 5.0),
		variable.New("B", variable.TypeNumber, 3.0),
	}

	assert.Equal(t, 5.0, evaluate(t, "MAX(A B)", vars).Value)
	assert.Equal(t, 9.0, evaluate(t, "SUM(A B)", vars).Value)
	assert.Equal(t, 1.0, evaluate(t, "MIN(A, B)", vars).Value)

	res := evaluate(t, "MAX(A) > 4 AND B = 3", vars)
	assert.Equal(t, true, res.Value)
	require.Len(t, res.Usage, 2)

	a, b := res.Usage[0], res.Usage[1]
	assert.Equal(t, "A", a.Variable.Name)
	assert.False(t, a.OutsideFunction)
	assert.True(t, a.Met)
	assert.Equal(t, 5.0, a.Results[aggregate.Max])

	assert.Equal(t, "B", b.Variable.Name)
	assert.True(t, b.OutsideFunction)
	assert.True(t, b.Met)
}

func TestEvaluate_Usage(t *testing.T) {
	vars := variable.List{
		variable.New("AGE", variable.TypeNumber, 30.0),
		variable.New("NAME", variable.TypeText, "Alice"),
	}
	res := evaluate(t, "AGE >= 18 AND NAME = 'Bob'", vars)
	assert.Equal(t, false, res.Value)

	met := map[string]bool{}
	for _, u := range res.Usage {
		met[u.Variable.Name] = u.Met
	}
	assert.Equal(t, map[string]bool{"AGE": true, "NAME": false}, met)
}

func TestEvaluate_FunctionAnnotations(t *testing.T) {
	e, err := expr.Parse("MAX(3 5 1) + 1")
	require.NoError(t, err)

	res, err := e.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, 6.0, res.Value)

	var annotated int
	for _, tk := range e.Tokens() {
		for _, fr := range tk.Functions {
			assert.Equal(t, aggregate.Max, fr.Func)
			assert.Equal(t, 5.0, fr.Result)
			annotated++
		}
	}
	assert.Equal(t, 3, annotated)

	// A second evaluation starts from clean annotations.
	_, err = e.Evaluate()
	require.NoError(t, err)
	assert.Len(t, e.Tokens()[2].Functions, 1)
}

func TestEvaluate_Coercion(t *testing.T) {
	vars := variable.List{
		variable.New("N", variable.TypeText, nil),
		variable.New("X", variable.TypeNumber, nil),
		variable.New("WHEN", variable.TypeGlobal, "soon"),
		variable.New("DUE", variable.TypeDate, nil),
	}

	assert.Equal(t, false, evaluate(t, "N S= 'a'", vars).Value)
	assert.Equal(t, false, evaluate(t, "WHEN > 2024-01-01", vars).Value)
	assert.Equal(t, false, evaluate(t, "DUE i<= 2024-01-01", vars).Value)

	e, err := expr.ParseWith("X > 1", vars)
	require.NoError(t, err)
	_, err = e.Evaluate()
	require.Error(t, err)
	assert.Equal(t, expr.KindBinding, expr.Categorize(err))
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := evaluateErr("5 / (2 - 2)", nil)
	assert.ErrorIs(t, err, expr.ErrDivisionByZero)
	assert.Equal(t, expr.KindEvaluation, expr.Categorize(err))

	_, err = evaluateErr("ABS(1 2)", nil)
	assert.ErrorIs(t, err, aggregate.ErrArity)
	assert.Equal(t, 0, expr.Position(err))
}

func TestEvaluate_MaxDepth(t *testing.T) {
	vars := variable.List{variable.New("G", variable.TypeGlobal, "5")}

	res := evaluate(t, "ABS(G - 10)", vars)
	assert.Equal(t, 5.0, res.Value)

	_, err := evaluateErr("ABS(G - 10)", vars, expr.WithMaxDepth(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, expr.ErrMaxDepth)
}

func TestEvaluate_OutOfRange(t *testing.T) {
	vars := variable.List{variable.New("HUGE", variable.TypeNumber, math.Inf(1))}

	tests := []struct {
		name string
		in   string
		kind expr.Kind
	}{
		{"literal beyond float64", "1e400 + 1", expr.KindLexical},
		{"literal inside function", "SUM(1e400)", expr.KindLexical},
		{"product overflows", "(1e300 * 1e300) + 1", expr.KindEvaluation},
		{"infinite variable", "HUGE + 1", expr.KindEvaluation},
		{"infinite variable in sum", "SUM(HUGE 1)", expr.KindEvaluation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { _, err = evaluateErr(tt.in, vars) })
			require.Error(t, err)
			assert.ErrorIs(t, err, aggregate.ErrOverflow)
			assert.Equal(t, tt.kind, expr.Categorize(err))
		})
	}

	v, ok := evaluate(t, "1e300 * 1", nil).Value.(float64)
	require.True(t, ok)
	assert.InEpsilon(t, 1e300, v, 1e-9)
}

func evaluateErr(text string, vars variable.List, opts ...expr.Option) (*expr.Result, error) {
	e, err := expr.ParseWith(text, vars, opts...)
	if err != nil {
		return nil, err
	}
	return e.Evaluate()
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		kind    expr.Kind
		pos     int
		message string
	}{
		{"text subtraction", "'ab' - 'cd'", expr.KindNature, 5, ""},
		{"number against text", "5 > 'abc'", expr.KindNature, 4, ""},
		{"pending parenthesis", "(5 > 3", expr.KindStructural, 0, "1 pending parenthesis"},
		{"pending parentheses", "((5 > 3", expr.KindStructural, 1, "2 pending parentheses"},
		{"nested pending", "((5 > 3)", expr.KindStructural, 0, "1 pending parenthesis"},
		{"unexpected close", "5 > 3)", expr.KindStructural, 5, "unexpected ')'"},
		{"function without paren", "MAX 3", expr.KindStructural, 4, "function MAX must be followed by '('"},
		{"trailing operator", "5 +", expr.KindStructural, 2, "expression cannot end with +"},
		{"leading operator", "* 5", expr.KindStructural, 0, "expression cannot start with *"},
		{"adjacent operands", "5 3", expr.KindStructural, 2, "3 cannot follow 5"},
		{"two comparators", "5 > 3 > 2", expr.KindStructural, 6, ""},
		{"and after value", "5 AND 3 > 1", expr.KindNature, 2, "AND needs a condition on its left"},
		{"or operand not a condition", "5 > 3 AND 7", expr.KindNature, 10, "condition expected"},
		{"logical inside arithmetic", "5 + (3 > 2 AND 1 > 0)", expr.KindNature, 11, ""},
		{"logical inside function", "MAX(1 > 0)", expr.KindNature, 6, ""},
		{"date arithmetic", "2024-01-01 + 1", expr.KindNature, 11, ""},
		{"date against number", "2024-01-01 > 5", expr.KindNature, 13, ""},
		{"ordering text", "'abc' > 'abd'", expr.KindNature, 6, ""},
		{"arithmetic on condition", "true + 1", expr.KindNature, 5, ""},
		{"numeric function on dates", "SUM(2024-01-01 2024-02-01)", expr.KindNature, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := expr.Parse(tt.in)
			require.Error(t, err)

			var xe *expr.Error
			require.True(t, errors.As(err, &xe), "want *expr.Error, got %T", err)
			assert.Equal(t, tt.kind, xe.Kind, xe.Error())
			assert.Equal(t, tt.pos, xe.Pos, xe.Error())
			if tt.message != "" {
				assert.Equal(t, tt.message, xe.Message)
			}
			assert.True(t, expr.IsParseError(err))
		})
	}
}

func TestParse_EmptyGroups(t *testing.T) {
	for _, in := range []string{"()", "MAX()", "1 + ()"} {
		_, err := expr.Parse(in)
		assert.ErrorIs(t, err, expr.ErrEmptyGroup, in)
	}
}

func TestParse_InvalidVariable(t *testing.T) {
	v := variable.New("AGE", variable.TypeNumber, 3.0)
	v.Invalid = true

	_, err := expr.ParseWith("1 + AGE", variable.List{v})
	require.Error(t, err)
	assert.Equal(t, expr.KindBinding, expr.Categorize(err))
	assert.Equal(t, 4, expr.Position(err))
}

func TestParse_Strict(t *testing.T) {
	_, err := expr.Parse("'abc", expr.WithStrict(true))
	require.Error(t, err)
	assert.Equal(t, expr.KindLexical, expr.Categorize(err))

	res := evaluate(t, "'abc", nil)
	assert.Equal(t, "abc", res.Value)
}

func TestParse_Natures(t *testing.T) {
	vars := variable.List{
		variable.New("G", variable.TypeGlobal, "x"),
		variable.New("N", variable.TypeNumber, 1.0),
	}
	tests := map[string]expr.Nature{
		"N + 1":           expr.NatureNumeric,
		"'a' + 'b'":       expr.NatureText,
		"2024-01-01":      expr.NatureDate,
		"N > 0":           expr.NatureLogical,
		"G":               expr.NatureGlobal,
		"G + N":           expr.NatureGlobal,
		"MAX(N 2) > 1":    expr.NatureLogical,
		"(N + 1) * 2":     expr.NatureNumeric,
		"NOT (N = 1)":     expr.NatureLogical,
		"MAX(2024-01-01)": expr.NatureDate,
	}
	for in, want := range tests {
		e, err := expr.ParseWith(in, vars)
		require.NoError(t, err, in)
		assert.Equal(t, want, e.Nature(), in)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	vars := variable.List{
		variable.New("AGE", variable.TypeNumber, 42.0),
		variable.New("NAME", variable.TypeText, "it's me"),
		variable.New("G", variable.TypeGlobal, "7"),
	}
	inputs := []string{
		"AGE >= 18 AND (NAME S= 'it' OR AGE*1.1 > 1000)",
		"max(1,234 5)<=AGE",
		"NAME + '\\'s'",
		"NOT G > 3",
		"ABS(AGE - 50) + MN2(1 2 3)",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			e1, err := expr.ParseWith(in, vars)
			require.NoError(t, err)
			r1, err := e1.Evaluate()
			require.NoError(t, err)

			printed := expr.Format(e1.Tokens())
			e2, err := expr.ParseWith(printed, vars)
			require.NoError(t, err, printed)
			r2, err := e2.Evaluate()
			require.NoError(t, err)

			assert.Equal(t, e1.Nature(), e2.Nature())
			assert.Equal(t, r1.Value, r2.Value)
		})
	}
}

func TestParseTokens_ReusesResolvedOperands(t *testing.T) {
	vars := variable.List{variable.New("X", variable.TypeNumber, 2.0)}
	e1, err := expr.ParseWith("X * 3", vars)
	require.NoError(t, err)

	e2, err := expr.ParseTokens(e1.Tokens(), vars)
	require.NoError(t, err)
	assert.Equal(t, "X * 3", e2.Source())

	tok, err := e2.Value()
	require.NoError(t, err)
	assert.Equal(t, 6.0, tok.Value())
	assert.Equal(t, "6", tok.String())
}

func TestExpression_Accessors(t *testing.T) {
	vars := variable.List{
		variable.New("A", variable.TypeNumber, 1.0),
		variable.New("B", variable.TypeNumber, 2.0),
	}
	e, err := expr.ParseWith("A + MAX(B 1) > A", vars)
	require.NoError(t, err)

	assert.Equal(t, "A + MAX(B 1) > A", e.Source())
	assert.Equal(t, "A + MAX ( B, 1 ) > A", e.String())

	names := make([]string, 0, 2)
	for _, v := range e.Variables() {
		names = append(names, v.Name)
	}
	assert.ElementsMatch(t, []string{"A", "B"}, names)

	tree := e.Tree()
	assert.True(t, strings.Contains(tree, "function"), tree)
	assert.True(t, strings.Contains(tree, "term"), tree)
}

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, "lexical", expr.KindLexical.String())
	assert.Equal(t, "structural", expr.KindStructural.String())
	assert.Equal(t, "nature", expr.KindNature.String())
	assert.Equal(t, "binding", expr.KindBinding.String())
	assert.Equal(t, "evaluation", expr.KindEvaluation.String())
	assert.Equal(t, "coercion", expr.KindCoercion.String())

	plain := errors.New("boom")
	assert.Equal(t, expr.KindEvaluation, expr.Categorize(plain))
	assert.Equal(t, -1, expr.Position(plain))
	assert.False(t, expr.IsParseError(plain))

	_, err := expr.Parse("(5 > 3")
	assert.Equal(t, "1 pending parenthesis at position 0", err.Error())
}
