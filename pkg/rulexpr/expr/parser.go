package expr

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/aggregate"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/convert"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/variable"
)

// Parse tokenizes and parses text without variables.
func Parse(text string, opts ...Option) (*Expression, error) {
	return ParseWith(text, nil, opts...)
}

// ParseWith tokenizes and parses text, binding operands to vars. Use
// WithForceLogical(true) where the result must be a pass/fail condition.
func ParseWith(text string, vars []*variable.Variable, opts ...Option) (*Expression, error) {
	cfg := newConfig(opts...)
	tokens, err := tokenize(text, &cfg)
	if err != nil {
		return nil, err
	}
	return parseTokens(text, tokens, vars, cfg, 0)
}

// ParseTokens parses an existing token stream. Operands already resolved
// by an earlier parse keep their nature and value.
func ParseTokens(tokens []*Token, vars []*variable.Variable, opts ...Option) (*Expression, error) {
	return parseTokens(Format(tokens), tokens, vars, newConfig(opts...), 0)
}

func parseTokens(source string, tokens []*Token, vars []*variable.Variable, cfg config, depth int) (*Expression, error) {
	e := &Expression{
		source: source,
		tokens: tokens,
		vars:   vars,
		cfg:    cfg,
		depth:  depth,
	}
	e.root = e.add(kindGroup, noNode)

	p := &parser{expr: e, cur: e.root}
	for _, t := range tokens {
		if err := p.validate(t); err != nil {
			return nil, err
		}
		if err := p.resolve(t); err != nil {
			return nil, err
		}
		if err := p.accept(t); err != nil {
			return nil, err
		}
		p.prev = t
	}
	if err := p.finish(len([]rune(source))); err != nil {
		return nil, err
	}
	return e, nil
}

// parser builds the tree one token at a time.
type parser struct {
	expr  *Expression
	cur   NodeID
	prev  *Token
	opens []*Token
}

func (p *parser) node(id NodeID) *node {
	return p.expr.nodes[id]
}

// resolve fixes an operand's nature and value from the variable list or
// the literal text.
func (p *parser) resolve(t *Token) error {
	if t.Class != ClassNone || t.resolved {
		return nil
	}
	t.resolved = true

	if v := variable.Resolve(t.Text, p.expr.vars); v != nil {
		if v.Invalid {
			return errAt(KindBinding, t, "variable %s is invalid", v.Name)
		}
		val, err := variableValue(v, p.expr.cfg.conv)
		if err != nil {
			return wrapError(KindBinding, t.Pos, t.Text, err, "variable %s: %v", v.Name, err)
		}
		t.Variable = v
		t.nature = NatureOf(v.Type)
		t.value = val
		return nil
	}

	switch strings.ToLower(t.Text) {
	case "true":
		t.nature, t.value = NatureLogical, true
		return nil
	case "false":
		t.nature, t.value = NatureLogical, false
		return nil
	}

	if v, ok := p.expr.cfg.conv.Literal(t.Text); ok {
		if d, isDate := v.(time.Time); isDate {
			t.nature, t.value = NatureDate, d
			return nil
		}
		f, _ := convert.ToFloat(v)
		t.nature, t.value = NatureNumeric, f
		return nil
	}

	if _, err := strconv.ParseFloat(t.Text, 64); errors.Is(err, strconv.ErrRange) {
		return wrapError(KindLexical, t.Pos, t.Text, aggregate.ErrOverflow, "number %s is out of range", t.Text)
	}

	// Unknown identifiers are text.
	t.nature, t.value = NatureText, t.Text
	return nil
}

// variableValue converts a variable's stored value to the representation
// its nature evaluates with. GLOBAL values stay text.
func variableValue(v *variable.Variable, conv *convert.Converter) (any, error) {
	if v.Value == nil {
		return nil, nil
	}
	switch v.Type {
	case variable.TypeNumber:
		if f, ok := convert.ToFloat(v.Value); ok {
			return f, nil
		}
		if s, ok := v.Value.(string); ok {
			if f, ok := conv.ClassifyNumber(s); ok {
				return f, nil
			}
		}
		return nil, errNotA("number", v.Value)
	case variable.TypeDate:
		switch x := v.Value.(type) {
		case time.Time:
			return x, nil
		case string:
			return conv.ParseDate(x)
		}
		return nil, errNotA("date", v.Value)
	default:
		if s, ok := v.Value.(string); ok {
			return s, nil
		}
		return variable.FormatValue(v.Value), nil
	}
}

func (p *parser) accept(t *Token) error {
	switch t.Class {
	case ClassSeparator:
		if t.is("(") {
			return p.openParen(t)
		}
		return p.closeParen(t)
	case ClassFunction:
		return p.openFunction(t)
	case ClassLogical:
		return p.logical(t)
	case ClassComparative:
		return p.comparator(t)
	case ClassArithmetic:
		return p.arithmetic(t)
	}
	return p.operand(t)
}

// container returns the node operands go into: the current term or
// function, or a new term when the current node is a group.
func (p *parser) container(t *Token) (NodeID, *node) {
	cur := p.node(p.cur)
	if cur.kind != kindGroup {
		return p.cur, cur
	}
	id := p.expr.add(kindTerm, p.cur)
	term := p.node(id)
	term.forceLogical = cur.logical
	term.first = t
	p.cur = id
	return id, term
}

func (p *parser) openParen(t *Token) error {
	p.opens = append(p.opens, t)

	if cur := p.node(p.cur); cur.kind == kindFunction && !cur.open {
		cur.open = true
		return nil
	}

	hostID, host := p.container(t)
	id := p.expr.add(kindGroup, hostID)
	g := p.node(id)
	g.first = t
	g.forbidLogical = host.kind == kindFunction ||
		(host.nature != NatureNone && host.nature != NatureLogical) ||
		host.comparator != nil ||
		p.inheritedForbid(hostID)
	p.cur = id
	return nil
}

// inheritedForbid reports whether the group enclosing a term forbids
// logical operators.
func (p *parser) inheritedForbid(id NodeID) bool {
	n := p.node(id)
	if n.kind != kindTerm || n.parent == noNode {
		return false
	}
	return p.node(n.parent).forbidLogical
}

func (p *parser) closeParen(t *Token) error {
	if len(p.opens) == 0 {
		return errAt(KindStructural, t, "unexpected ')'")
	}
	p.opens = p.opens[:len(p.opens)-1]

	cur := p.node(p.cur)
	switch cur.kind {
	case kindFunction:
		return p.closeFunction(t)
	case kindTerm:
		if err := p.finishTerm(p.cur); err != nil {
			return err
		}
		p.cur = cur.parent
	}

	gid := p.cur
	g := p.node(gid)
	if len(g.children) == 0 {
		return wrapError(KindStructural, t.Pos, t.Text, ErrEmptyGroup, "empty parenthesis")
	}
	if g.parent == noNode {
		return errAt(KindStructural, t, "unexpected ')'")
	}
	p.cur = g.parent
	return p.absorb(p.cur, g.effective(), g.vars, g.first)
}

// absorb merges a closed child's nature and variables into host.
func (p *parser) absorb(hostID NodeID, n Nature, vars []*variable.Variable, at *Token) error {
	host := p.node(hostID)
	merged, ok := combine(host.nature, n)
	if !ok {
		return errAt(KindNature, at, "cannot combine %s with %s", n, host.nature)
	}
	host.nature = merged
	for _, v := range vars {
		host.addVar(v)
	}
	return nil
}

// finishTerm validates a complete term and hands its nature to its group.
func (p *parser) finishTerm(id NodeID) error {
	term := p.node(id)
	if c := term.comparator; c != nil && !comparatorAllowed(term.nature, c.Op) {
		return errAt(KindNature, c, "operator %s is not valid for a %s expression", c.Op, term.nature)
	}
	if term.forceLogical && term.effective() != NatureLogical {
		return errAt(KindNature, term.first, "condition expected")
	}

	g := p.node(term.parent)
	if g.logical {
		g.nature = NatureLogical
	} else {
		g.nature = term.effective()
	}
	for _, v := range term.vars {
		g.addVar(v)
	}
	return nil
}

func (p *parser) openFunction(t *Token) error {
	fn, ok := aggregate.Lookup(t.Op)
	if !ok {
		return errAt(KindStructural, t, "unknown function %s", t.Text)
	}
	hostID, _ := p.container(t)
	id := p.expr.add(kindFunction, hostID)
	f := p.node(id)
	f.fn = fn
	f.first = t
	f.forbidLogical = true
	f.children = append(f.children, child{tok: t})
	p.cur = id
	return nil
}

func (p *parser) closeFunction(t *Token) error {
	f := p.node(p.cur)
	if len(f.children) < 2 {
		return wrapError(KindStructural, t.Pos, t.Text, ErrEmptyGroup, "function %s has no operands", f.fn)
	}
	if f.nature == NatureLogical {
		return errAt(KindNature, f.first, "function %s is not valid for conditions", f.fn)
	}
	if f.fn.Numeric() && f.nature == NatureDate {
		return errAt(KindNature, f.first, "function %s is not valid for dates", f.fn)
	}
	p.cur = f.parent
	return p.absorb(p.cur, f.resultNature(), f.vars, f.first)
}

func (p *parser) logical(t *Token) error {
	cur := p.node(p.cur)
	if cur.kind == kindFunction {
		return errAt(KindNature, t, "logical operator %s is not allowed inside function %s", t.Op, cur.fn)
	}

	if t.is("NOT") {
		if cur.forbidLogical {
			return errAt(KindNature, t, "logical operator %s is not allowed here", t.Op)
		}
		cur.logical = true
		cur.nature = NatureLogical
		cur.children = append(cur.children, child{tok: t})
		return nil
	}

	// AND/OR follow a value or ')', so the current node is a term.
	gid := cur.parent
	g := p.node(gid)
	if g.forbidLogical {
		return errAt(KindNature, t, "logical operator %s is not allowed in a %s expression", t.Op, p.node(g.parent).nature)
	}
	if cur.effective() != NatureLogical {
		return errAt(KindNature, t, "%s needs a condition on its left", t.Op)
	}
	g.logical = true
	if err := p.finishTerm(p.cur); err != nil {
		return err
	}
	g.children = append(g.children, child{tok: t})
	p.cur = gid
	return nil
}

func (p *parser) comparator(t *Token) error {
	cur := p.node(p.cur)
	if cur.kind == kindFunction {
		return errAt(KindNature, t, "comparison is not allowed inside function %s", cur.fn)
	}
	if cur.comparator != nil {
		return errAt(KindStructural, t, "only one comparison operator is allowed, found %s after %s", t.Op, cur.comparator.Op)
	}
	if !comparatorAllowed(cur.nature, t.Op) {
		return errAt(KindNature, t, "operator %s is not valid for a %s expression", t.Op, cur.nature)
	}
	cur.comparator = t
	cur.children = append(cur.children, child{tok: t})
	return nil
}

func (p *parser) arithmetic(t *Token) error {
	_, cur := p.container(t)
	if !arithmeticAllowed(cur.nature, t.Op) {
		return errAt(KindNature, t, "operator %s is not valid for a %s expression", t.Op, cur.nature)
	}
	if cur.nature == NatureNone {
		cur.nature = NatureNumeric
	}
	cur.children = append(cur.children, child{tok: t})
	return nil
}

func (p *parser) operand(t *Token) error {
	_, cur := p.container(t)
	merged, ok := combine(cur.nature, t.nature)
	if !ok {
		return errAt(KindNature, t, "cannot combine %s with %s", t.nature, cur.nature)
	}
	cur.nature = merged
	cur.children = append(cur.children, child{tok: t})
	if t.Variable != nil {
		cur.addVar(t.Variable)
	}
	return nil
}

// finish handles the end of the token stream.
func (p *parser) finish(end int) error {
	if err := p.validate(&Token{Class: ClassEnd, Pos: end}); err != nil {
		return err
	}
	if n := len(p.opens); n > 0 {
		word := "parenthesis"
		if n > 1 {
			word = "parentheses"
		}
		open := p.opens[len(p.opens)-1]
		return errAt(KindStructural, open, "%d pending %s", n, word)
	}

	if cur := p.node(p.cur); cur.kind == kindTerm {
		if err := p.finishTerm(p.cur); err != nil {
			return err
		}
		p.cur = cur.parent
	}

	root := p.node(p.expr.root)
	p.expr.nature = root.effective()
	if p.expr.cfg.forceLogical && p.expr.nature != NatureLogical {
		return wrapError(KindNature, 0, "", ErrNotCondition, "expression is %s, a condition is required", p.expr.nature)
	}
	return nil
}
