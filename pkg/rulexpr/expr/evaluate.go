package expr

import (
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/aggregate"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/convert"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/observability"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/variable"
)

// Usage reports how one variable took part in an evaluation.
type Usage struct {
	Variable *variable.Variable

	// Met is set when the variable appears in a comparison that held.
	Met bool

	// OutsideFunction is set when the variable was read directly rather
	// than only through an aggregate function.
	OutsideFunction bool

	// Results memoizes aggregate results over the variable's values.
	Results map[aggregate.Func]any
}

// Result is the outcome of an evaluation.
type Result struct {
	Token  *Token
	Nature Nature
	Value  any
	Usage  []*Usage
}

// Bool returns the value as a bool when the result is a condition.
func (r *Result) Bool() (bool, bool) {
	b, ok := r.Value.(bool)
	return b, ok
}

// evalState is the per-evaluation scratch space shared with sub-parses.
type evalState struct {
	usage map[*variable.Variable]*Usage
	order []*Usage

	// fnDepth counts the aggregate calls being reduced.
	fnDepth int
}

func newEvalState() *evalState {
	return &evalState{usage: make(map[*variable.Variable]*Usage)}
}

func (s *evalState) use(v *variable.Variable) *Usage {
	if u, ok := s.usage[v]; ok {
		return u
	}
	u := &Usage{Variable: v, Results: make(map[aggregate.Func]any)}
	s.usage[v] = u
	s.order = append(s.order, u)
	return u
}

// Value reduces the expression to a single token.
func (e *Expression) Value() (*Token, error) {
	r, err := e.Evaluate()
	if err != nil {
		return nil, err
	}
	return r.Token, nil
}

// Evaluate reduces the expression and reports variable usage. Variables
// are read, never modified, so one variable list may back concurrent
// evaluations of separately parsed expressions.
func (e *Expression) Evaluate() (*Result, error) {
	for _, t := range e.tokens {
		t.Functions = nil
	}
	st := newEvalState()
	tok, err := e.reduce(st, e.root)
	if err != nil {
		return nil, err
	}
	return &Result{Token: tok, Nature: tok.nature, Value: tok.value, Usage: st.order}, nil
}

func (e *Expression) reduce(st *evalState, id NodeID) (*Token, error) {
	n := e.nodes[id]
	switch n.kind {
	case kindFunction:
		return e.reduceFunction(st, n)
	case kindGroup:
		return e.reduceGroup(st, n)
	}
	return e.reduceTerm(st, n)
}

// flatten replaces nested nodes by their reduced token.
func (e *Expression) flatten(st *evalState, children []child) ([]*Token, error) {
	out := make([]*Token, 0, len(children))
	for _, c := range children {
		if c.tok == nil {
			t, err := e.reduce(st, c.node)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
			continue
		}
		if v := c.tok.Variable; v != nil {
			u := st.use(v)
			if st.fnDepth == 0 {
				u.OutsideFunction = true
			}
		}
		out = append(out, c.tok)
	}
	return out, nil
}

func (e *Expression) reduceGroup(st *evalState, n *node) (*Token, error) {
	items, err := e.flatten(st, n.children)
	if err != nil {
		return nil, err
	}
	if !n.logical {
		if len(items) != 1 {
			return nil, e.stuck(items, n.nature)
		}
		return items[0], nil
	}
	return e.reduceLogical(items)
}

func (e *Expression) reduceTerm(st *evalState, n *node) (*Token, error) {
	items, err := e.flatten(st, n.children)
	if err != nil {
		return nil, err
	}

	var res *Token
	switch {
	case len(items) == 1 && n.comparator == nil && n.nature != NatureGlobal:
		res = items[0]
	case n.nature == NatureNumeric:
		res, err = e.reduceNumeric(items, n.comparator)
	case n.nature == NatureText:
		res, err = e.reduceText(items, n.comparator)
	case n.nature == NatureDate:
		res, err = e.reduceDate(items, n.comparator)
	case n.nature == NatureGlobal:
		res, err = e.reduceGlobal(st, items, n.comparator)
	default:
		err = e.stuck(items, n.nature)
	}
	if err != nil {
		return nil, err
	}

	if held, isBool := res.Bool(); held && isBool && n.comparator != nil {
		for _, v := range n.vars {
			st.use(v).Met = true
		}
	}
	return res, nil
}

func (e *Expression) stuck(items []*Token, n Nature) error {
	pos := 0
	if len(items) > 0 {
		pos = items[0].Pos
	}
	return newError(KindEvaluation, pos, "", "cannot reduce %s expression %q", n, Format(items))
}

// split cuts items around the comparator.
func split(items []*Token, cmp *Token) (left, right []*Token) {
	for i, t := range items {
		if t == cmp {
			return items[:i], items[i+1:]
		}
	}
	return items, nil
}

func (e *Expression) reduceNumeric(items []*Token, cmp *Token) (*Token, error) {
	if cmp == nil {
		v, err := e.arithmetic(items)
		if err != nil {
			return nil, err
		}
		return resultToken(items[0].Pos, NatureNumeric, v), nil
	}

	left, right := split(items, cmp)
	l, err := e.arithmetic(left)
	if err != nil {
		return nil, err
	}
	r, err := e.arithmetic(right)
	if err != nil {
		return nil, err
	}
	ok, err := compareOrdered(cmp, compareFloats(l, r))
	if err != nil {
		return nil, err
	}
	return resultToken(cmp.Pos, NatureLogical, ok), nil
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// orderings maps a comparator, without its case-insensitive prefix, to a
// test on a three-way comparison.
var orderings = map[string]func(c int) bool{
	">":  func(c int) bool { return c > 0 },
	"<":  func(c int) bool { return c < 0 },
	"=":  func(c int) bool { return c == 0 },
	">=": func(c int) bool { return c >= 0 },
	"<=": func(c int) bool { return c <= 0 },
	"!=": func(c int) bool { return c != 0 },
}

func compareOrdered(cmp *Token, c int) (bool, error) {
	test, ok := orderings[cmp.Op]
	if !ok {
		return false, errAt(KindEvaluation, cmp, "operator %s cannot order values", cmp.Op)
	}
	return test(c), nil
}

func (e *Expression) number(t *Token) (float64, error) {
	if t.value == nil && t.Variable != nil {
		return 0, errAt(KindBinding, t, "variable %s has no value", t.Variable.Name)
	}
	if f, ok := convert.ToFloat(t.value); ok {
		return f, nil
	}
	return 0, errAt(KindEvaluation, t, "%s is not a number", t.String())
}

func (e *Expression) reduceText(items []*Token, cmp *Token) (*Token, error) {
	if cmp == nil {
		s, err := e.concat(items)
		if err != nil {
			return nil, err
		}
		return resultToken(items[0].Pos, NatureText, s), nil
	}

	left, right := split(items, cmp)
	l, err := e.concat(left)
	if err == nil {
		var r string
		if r, err = e.concat(right); err == nil {
			return resultToken(cmp.Pos, NatureLogical, compareText(cmp.Op, l, r)), nil
		}
	}
	return e.coercionFailed(cmp, err)
}

// coercionFailed downgrades a coercion error to a false comparison.
func (e *Expression) coercionFailed(cmp *Token, err error) (*Token, error) {
	if !errors.Is(err, ErrCoercion) {
		return nil, err
	}
	observability.LogCoercion(e.cfg.logger, cmp.Pos, cmp.Op, err)
	return resultToken(cmp.Pos, NatureLogical, false), nil
}

func (e *Expression) concat(items []*Token) (string, error) {
	if len(items)%2 == 0 {
		return "", e.missingOperand(items)
	}
	var out string
	for i, t := range items {
		if i%2 == 1 {
			if !t.is("+") {
				return "", errAt(KindEvaluation, t, "operator %s cannot join text", t.String())
			}
			continue
		}
		s, err := text(t)
		if err != nil {
			return "", err
		}
		out += s
	}
	return out, nil
}

func text(t *Token) (string, error) {
	switch v := t.value.(type) {
	case string:
		return v, nil
	case nil:
		return "", coercionError(t, "no value")
	case bool:
		return "", coercionError(t, "condition used as text")
	case time.Time:
		return v.Format(dateLiteralLayout(v)), nil
	default:
		return variable.FormatValue(v), nil
	}
}

func coercionError(t *Token, reason string) error {
	return wrapError(KindCoercion, t.Pos, t.Text, ErrCoercion, "%s: %s", t.String(), reason)
}

func (e *Expression) reduceDate(items []*Token, cmp *Token) (*Token, error) {
	left, right := split(items, cmp)
	if cmp == nil || len(left) != 1 || len(right) != 1 {
		return nil, e.stuck(items, NatureDate)
	}
	l, err := e.date(left[0])
	if err != nil {
		return e.coercionFailed(cmp, err)
	}
	r, err := e.date(right[0])
	if err != nil {
		return e.coercionFailed(cmp, err)
	}

	op := cmp.Op
	if op[0] == 'i' {
		op = op[1:]
		l, r = convert.Day(l), convert.Day(r.In(l.Location()))
	}
	test, ok := orderings[op]
	if !ok {
		return nil, errAt(KindEvaluation, cmp, "operator %s cannot order dates", cmp.Op)
	}
	return resultToken(cmp.Pos, NatureLogical, test(l.Compare(r))), nil
}

func (e *Expression) date(t *Token) (time.Time, error) {
	switch v := t.value.(type) {
	case time.Time:
		return v, nil
	case string:
		d, err := e.cfg.conv.ParseDate(v)
		if err != nil {
			return time.Time{}, coercionError(t, err.Error())
		}
		return d, nil
	}
	return time.Time{}, coercionError(t, "not a date")
}

// reduceLogical applies NOT, then AND, then OR.
func (e *Expression) reduceLogical(items []*Token) (*Token, error) {
	for i := len(items) - 2; i >= 0; i-- {
		if !items[i].is("NOT") {
			continue
		}
		b, err := condition(items[i+1])
		if err != nil {
			return nil, err
		}
		items = splice(items, i, i+2, resultToken(items[i].Pos, NatureLogical, !b))
	}

	for _, op := range []string{"AND", "OR"} {
		for i := 1; i < len(items)-1; {
			if !items[i].is(op) {
				i++
				continue
			}
			l, err := condition(items[i-1])
			if err != nil {
				return nil, err
			}
			r, err := condition(items[i+1])
			if err != nil {
				return nil, err
			}
			v := l && r
			if op == "OR" {
				v = l || r
			}
			items = splice(items, i-1, i+2, resultToken(items[i-1].Pos, NatureLogical, v))
		}
	}

	if len(items) != 1 {
		return nil, e.stuck(items, NatureLogical)
	}
	return items[0], nil
}

func condition(t *Token) (bool, error) {
	b, ok := t.Bool()
	if !ok {
		return false, errAt(KindEvaluation, t, "%s is not a condition", t.String())
	}
	return b, nil
}

// splice replaces items[from:to] with t.
func splice(items []*Token, from, to int, t *Token) []*Token {
	out := make([]*Token, 0, len(items)-(to-from)+1)
	out = append(out, items[:from]...)
	out = append(out, t)
	return append(out, items[to:]...)
}

func errNotA(kind string, v any) error {
	return fmt.Errorf("%v is not a %s", v, kind)
}
