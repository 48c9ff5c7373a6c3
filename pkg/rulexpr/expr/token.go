package expr

import (
	"strings"
	"time"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/aggregate"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/variable"
)

// Class is the operator class of a token.
type Class int

const (
	// ClassNone marks an operand: a literal, string or variable reference.
	ClassNone Class = iota
	ClassLogical
	ClassComparative
	ClassArithmetic
	ClassSeparator
	ClassFunction

	// ClassEnd marks the synthetic end-of-stream token.
	ClassEnd
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassNone:
		return "operand"
	case ClassLogical:
		return "logical"
	case ClassComparative:
		return "comparative"
	case ClassArithmetic:
		return "arithmetic"
	case ClassSeparator:
		return "separator"
	case ClassFunction:
		return "function"
	case ClassEnd:
		return "end"
	default:
		return "unknown"
	}
}

// FuncResult records an aggregate function a token took part in.
type FuncResult struct {
	Func   aggregate.Func
	Result any
}

// Token is the atomic lexical unit. Nature and value are resolved once,
// when the token is first parsed against a variable list.
type Token struct {
	// Text is the token as written in the source. String literals keep
	// their quotes and escapes.
	Text string

	// Op is the canonical operator ("=>" becomes ">=", "max2" becomes
	// "MX2"). Empty for operands.
	Op string

	// Pos is the 0-based rune offset of the token in the source.
	Pos int

	Class  Class
	Quoted bool

	// Variable is set when the operand resolved to a caller variable.
	Variable *variable.Variable

	// Functions lists the aggregates this token fed in the last evaluation.
	Functions []FuncResult

	nature   Nature
	value    any
	resolved bool
}

// Nature returns the resolved nature. Operators report NatureNone.
func (t *Token) Nature() Nature {
	return t.nature
}

// Value returns the resolved value: float64, string, time.Time, bool, or
// nil for a variable without a value.
func (t *Token) Value() any {
	return t.value
}

// IsOperand reports whether t is a value rather than an operator.
func (t *Token) IsOperand() bool {
	return t.Class == ClassNone
}

// Bool returns the value as a bool when the token is logical.
func (t *Token) Bool() (bool, bool) {
	b, ok := t.value.(bool)
	return b, ok
}

// String returns the printable form used by Format.
func (t *Token) String() string {
	switch {
	case t.Op != "":
		return t.Op
	case t.Quoted:
		s, _ := t.value.(string)
		if !t.resolved {
			s = unquote(t.Text)
		}
		return quote(s)
	}
	return t.Text
}

func (t *Token) is(op string) bool {
	return t.Op == op
}

func (t *Token) annotate(fn aggregate.Func, result any) {
	t.Functions = append(t.Functions, FuncResult{Func: fn, Result: result})
}

// resultToken builds the operand that replaces a reduced window.
func resultToken(pos int, n Nature, v any) *Token {
	t := &Token{Pos: pos, nature: n, value: v, resolved: true}
	switch x := v.(type) {
	case string:
		t.Quoted = true
		t.Text = quote(x)
	case time.Time:
		t.Text = x.Format(dateLiteralLayout(x))
	default:
		t.Text = variable.FormatValue(v)
	}
	return t
}

func dateLiteralLayout(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return "2006-01-02"
	}
	return "2006-01-02T15:04:05"
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

// unquote strips the quotes of a string literal and resolves \' escapes.
func unquote(text string) string {
	s := strings.TrimPrefix(text, "'")
	if strings.HasSuffix(s, "'") && !strings.HasSuffix(s, `\'`) {
		s = s[:len(s)-1]
	}
	return strings.ReplaceAll(s, `\'`, "'")
}

// operator describes one entry of the fixed operator table.
type operator struct {
	text  string
	canon string
	class Class

	// word operators are case-insensitive and need boundaries on both sides.
	word bool

	// letterLed operators (S=, iC=, ...) are exact-case and need a left
	// boundary.
	letterLed bool
}

var operators = buildOperators()

func buildOperators() []operator {
	ops := []operator{
		{text: "AND", class: ClassLogical, word: true},
		{text: "OR", class: ClassLogical, word: true},
		{text: "NOT", class: ClassLogical, word: true},

		{text: "+", class: ClassArithmetic},
		{text: "-", class: ClassArithmetic},
		{text: "*", class: ClassArithmetic},
		{text: "/", class: ClassArithmetic},

		{text: "(", class: ClassSeparator},
		{text: ")", class: ClassSeparator},

		{text: "MAX", class: ClassFunction, word: true},
		{text: "MIN", class: ClassFunction, word: true},
		{text: "MX2", class: ClassFunction, word: true},
		{text: "MN2", class: ClassFunction, word: true},
		{text: "MAX2", canon: "MX2", class: ClassFunction, word: true},
		{text: "MIN2", canon: "MN2", class: ClassFunction, word: true},
		{text: "SUM", class: ClassFunction, word: true},
		{text: "AVG", class: ClassFunction, word: true},
		{text: "ABS", class: ClassFunction, word: true},
	}

	symbolic := []struct{ text, canon string }{
		{">", ""}, {"<", ""}, {"=", ""},
		{">=", ""}, {"<=", ""}, {"=>", ">="}, {"=<", "<="}, {"!=", ""},
	}
	for _, s := range symbolic {
		ops = append(ops,
			operator{text: s.text, canon: s.canon, class: ClassComparative},
			operator{text: "i" + s.text, canon: prefixed("i", s.canon), class: ClassComparative, letterLed: true},
		)
	}
	for _, s := range []string{"S=", "E=", "C="} {
		ops = append(ops,
			operator{text: s, class: ClassComparative, letterLed: true},
			operator{text: "i" + s, class: ClassComparative, letterLed: true},
		)
	}

	for i := range ops {
		if ops[i].canon == "" {
			ops[i].canon = ops[i].text
		}
	}
	return ops
}

func prefixed(prefix, s string) string {
	if s == "" {
		return ""
	}
	return prefix + s
}

const maxOperatorLen = 4

// Comparators accepted per nature. GLOBAL accepts all of them and is
// checked again once its operands are classified.
var (
	numericComparators = []string{">=", "<=", "!=", ">", "<", "="}
	textComparators    = []string{"S=", "E=", "C=", "!=", "=", "iS=", "iE=", "iC=", "i!=", "i="}
	dateComparators    = []string{">=", "<=", "!=", ">", "<", "=", "i>=", "i<=", "i!=", "i>", "i<", "i="}
)

func comparatorAllowed(n Nature, op string) bool {
	var set []string
	switch n {
	case NatureNone, NatureGlobal:
		return true
	case NatureNumeric:
		set = numericComparators
	case NatureText:
		set = textComparators
	case NatureDate:
		set = dateComparators
	default:
		return false
	}
	for _, s := range set {
		if s == op {
			return true
		}
	}
	return false
}

func arithmeticAllowed(n Nature, op string) bool {
	switch n {
	case NatureNone, NatureNumeric, NatureGlobal:
		return true
	case NatureText:
		return op == "+"
	}
	return false
}
