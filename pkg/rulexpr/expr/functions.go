package expr

import (
	"time"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/aggregate"
)

// reduceFunction evaluates an aggregate call. Operands are split into
// compound groups joined by arithmetic; single operands bound to a
// multi-valued variable contribute that variable's own aggregate.
func (e *Expression) reduceFunction(st *evalState, n *node) (*Token, error) {
	name := n.children[0].tok
	st.fnDepth++
	defer func() { st.fnDepth-- }()

	items, err := e.flatten(st, n.children[1:])
	if err != nil {
		return nil, err
	}

	groups := compoundGroups(items)
	if n.fn == aggregate.Abs && len(groups) != 1 {
		return nil, wrapError(KindEvaluation, name.Pos, name.Text, aggregate.ErrArity, "ABS takes one operand, got %d", len(groups))
	}

	values := make([]any, 0, len(groups))
	var participants []*Token
	for _, g := range groups {
		if len(g) == 1 {
			t := g[0]
			v, err := e.operandValue(st, n.fn, t)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			participants = append(participants, t)
			continue
		}

		res, err := e.evalSub(st, g)
		if err != nil {
			return nil, err
		}
		values = append(values, res.value)
		for _, t := range g {
			if t.IsOperand() {
				participants = append(participants, t)
			}
		}
	}

	result, err := aggregate.Apply(n.fn, values, e.cfg.conv)
	if err != nil {
		return nil, wrapError(KindEvaluation, name.Pos, name.Text, err, "%s: %v", n.fn, err)
	}
	for _, t := range participants {
		t.annotate(n.fn, result)
	}
	return resultToken(name.Pos, natureOfValue(result), result), nil
}

// operandValue resolves one function operand, aggregating multi-valued
// variables once per evaluation.
func (e *Expression) operandValue(st *evalState, fn aggregate.Func, t *Token) (any, error) {
	v := t.Variable
	if v == nil || len(v.Values) == 0 {
		return t.value, nil
	}
	u := st.use(v)
	if res, ok := u.Results[fn]; ok {
		return res, nil
	}
	res, err := v.Aggregate(fn, e.cfg.conv)
	if err != nil {
		return nil, wrapError(KindEvaluation, t.Pos, t.Text, err, "%v", err)
	}
	u.Results[fn] = res
	return res, nil
}

// compoundGroups splits function operands wherever two operands touch.
func compoundGroups(items []*Token) [][]*Token {
	var groups [][]*Token
	var cur []*Token
	for _, t := range items {
		if len(cur) > 0 && t.IsOperand() && cur[len(cur)-1].IsOperand() {
			groups = append(groups, cur)
			cur = nil
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

func natureOfValue(v any) Nature {
	switch v.(type) {
	case float64:
		return NatureNumeric
	case time.Time:
		return NatureDate
	case bool:
		return NatureLogical
	case string:
		return NatureText
	}
	return NatureGlobal
}
