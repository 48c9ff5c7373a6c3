package expr

import (
	"math"
	"strings"
	"time"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/aggregate"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/convert"
	"github.com/shopspring/decimal"
)

// arithmetic folds operand/operator runs: '*' and '/' first, then '+' and
// '-', each left to right. A leading '-' negates the first operand.
// Decimal arithmetic keeps "0.1 + 0.2 = 0.3" true.
func (e *Expression) arithmetic(items []*Token) (float64, error) {
	if len(items) > 0 && items[0].is("-") {
		items = append([]*Token{resultToken(items[0].Pos, NatureNumeric, 0.0)}, items...)
	}
	if len(items)%2 == 0 {
		return 0, e.missingOperand(items)
	}

	operands := make([]decimal.Decimal, 0, len(items)/2+1)
	var ops []*Token
	for i, t := range items {
		if i%2 == 1 {
			if t.Class != ClassArithmetic {
				return 0, errAt(KindEvaluation, t, "arithmetic operator expected, found %s", t.String())
			}
			ops = append(ops, t)
			continue
		}
		f, err := e.number(t)
		if err != nil {
			return 0, err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, wrapError(KindEvaluation, t.Pos, t.Text, aggregate.ErrOverflow, "%s is out of range", t.String())
		}
		operands = append(operands, decimal.NewFromFloat(f))
	}

	// '*' and '/' collapse into the running operand; '+' and '-' wait.
	terms := []decimal.Decimal{operands[0]}
	var pending []*Token
	for i, op := range ops {
		r := operands[i+1]
		last := len(terms) - 1
		switch op.Op {
		case "*":
			terms[last] = terms[last].Mul(r)
		case "/":
			if r.IsZero() {
				return 0, wrapError(KindEvaluation, op.Pos, op.Text, ErrDivisionByZero, "division by zero")
			}
			terms[last] = terms[last].Div(r)
		default:
			pending = append(pending, op)
			terms = append(terms, r)
		}
	}

	total := terms[0]
	for i, op := range pending {
		if op.is("+") {
			total = total.Add(terms[i+1])
		} else {
			total = total.Sub(terms[i+1])
		}
	}
	f, _ := total.Float64()
	if math.IsInf(f, 0) {
		return 0, wrapError(KindEvaluation, items[0].Pos, "", aggregate.ErrOverflow, "result of %q is out of range", Format(items))
	}
	return f, nil
}

func (e *Expression) missingOperand(items []*Token) error {
	if len(items) == 0 {
		return newError(KindEvaluation, 0, "", "missing operand")
	}
	last := items[len(items)-1]
	return errAt(KindEvaluation, last, "missing operand after %s", last.String())
}

// textComparisons holds the case-sensitive text tests. The i-prefixed
// forms trim and fold case before testing.
var textComparisons = map[string]func(a, b string) bool{
	"=":  func(a, b string) bool { return a == b },
	"!=": func(a, b string) bool { return a != b },
	"S=": strings.HasPrefix,
	"E=": strings.HasSuffix,
	"C=": strings.Contains,
}

func compareText(op, a, b string) bool {
	if strings.HasPrefix(op, "i") {
		op = op[1:]
		a = strings.ToLower(strings.TrimSpace(a))
		b = strings.ToLower(strings.TrimSpace(b))
	}
	test, ok := textComparisons[op]
	if !ok {
		return false
	}
	return test(a, b)
}

// reduceGlobal classifies every GLOBAL operand and re-parses the term as a
// typed expression. When the classified natures conflict with the
// operators, the GLOBAL operands are compared as text instead; a
// comparison that still does not type-check is false.
func (e *Expression) reduceGlobal(st *evalState, items []*Token, cmp *Token) (*Token, error) {
	classified := make([]*Token, len(items))
	textual := make([]*Token, len(items))
	for i, t := range items {
		classified[i], textual[i] = t, t
		if t.IsOperand() && t.nature == NatureGlobal {
			classified[i] = e.classify(t)
			textual[i] = t.retyped(NatureText, globalText(t))
		}
	}

	res, err := e.evalSub(st, classified)
	if err == nil || Categorize(err) != KindNature {
		return res, err
	}
	res, err = e.evalSub(st, textual)
	if err != nil && cmp != nil && Categorize(err) == KindNature {
		return e.coercionFailed(cmp, wrapError(KindCoercion, cmp.Pos, cmp.Text, ErrCoercion, "%v", err))
	}
	return res, err
}

// classify turns a GLOBAL operand into a numeric, date or text operand.
func (e *Expression) classify(t *Token) *Token {
	s := globalText(t)
	v, ok := e.cfg.conv.Classify(s)
	if !ok {
		return t.retyped(NatureText, s)
	}
	if d, isDate := v.(time.Time); isDate {
		return t.retyped(NatureDate, d)
	}
	f, _ := convert.ToFloat(v)
	return t.retyped(NatureNumeric, f)
}

func globalText(t *Token) string {
	if s, ok := t.value.(string); ok {
		return s
	}
	if t.value == nil {
		return ""
	}
	s, _ := text(t)
	return s
}

// retyped copies an operand with a concrete nature and value.
func (t *Token) retyped(n Nature, v any) *Token {
	return &Token{
		Text:     t.Text,
		Pos:      t.Pos,
		Class:    t.Class,
		Variable: t.Variable,
		nature:   n,
		value:    v,
		resolved: true,
	}
}

// evalSub parses tokens as a nested expression and reduces it within the
// current evaluation.
func (e *Expression) evalSub(st *evalState, tokens []*Token) (*Token, error) {
	if e.depth+1 > e.cfg.maxDepth {
		pos := 0
		if len(tokens) > 0 {
			pos = tokens[0].Pos
		}
		return nil, wrapError(KindEvaluation, pos, "", ErrMaxDepth, "expression nested deeper than %d", e.cfg.maxDepth)
	}
	cfg := e.cfg
	cfg.forceLogical = false
	sub, err := parseTokens(e.source, tokens, e.vars, cfg, e.depth+1)
	if err != nil {
		return nil, err
	}
	return sub.reduce(st, sub.root)
}
