package expr

// slot classifies a token for the cross-token validator.
type slot int

const (
	slotStart slot = iota
	slotOperand
	slotMinus
	slotArithmetic
	slotComparator
	slotAndOr
	slotNot
	slotFunction
	slotOpen
	slotClose
	slotEnd
)

func slotOf(t *Token) slot {
	if t == nil {
		return slotStart
	}
	switch t.Class {
	case ClassNone:
		return slotOperand
	case ClassArithmetic:
		if t.is("-") {
			return slotMinus
		}
		return slotArithmetic
	case ClassComparative:
		return slotComparator
	case ClassLogical:
		if t.is("NOT") {
			return slotNot
		}
		return slotAndOr
	case ClassFunction:
		return slotFunction
	case ClassSeparator:
		if t.is("(") {
			return slotOpen
		}
		return slotClose
	}
	return slotEnd
}

func slots(s ...slot) map[slot]bool {
	m := make(map[slot]bool, len(s))
	for _, x := range s {
		m[x] = true
	}
	return m
}

// follows lists what may come after each slot. Operands inside a function
// may also be followed by another operand, '(' or a function.
var follows = map[slot]map[slot]bool{
	slotStart:      slots(slotOperand, slotMinus, slotNot, slotFunction, slotOpen),
	slotOperand:    slots(slotMinus, slotArithmetic, slotComparator, slotAndOr, slotClose, slotEnd),
	slotMinus:      slots(slotOperand, slotFunction, slotOpen),
	slotArithmetic: slots(slotOperand, slotFunction, slotOpen),
	slotComparator: slots(slotOperand, slotMinus, slotFunction, slotOpen),
	slotAndOr:      slots(slotOperand, slotMinus, slotNot, slotFunction, slotOpen),
	slotNot:        slots(slotOperand, slotMinus, slotNot, slotFunction, slotOpen),
	slotFunction:   slots(slotOpen),
	slotOpen:       slots(slotOperand, slotMinus, slotNot, slotFunction, slotOpen),
	slotClose:      slots(slotMinus, slotArithmetic, slotComparator, slotAndOr, slotClose, slotEnd),
}

var inFunctionFollows = slots(slotOperand, slotFunction, slotOpen)

// validate checks t against the previous token.
func (p *parser) validate(t *Token) error {
	prev, cur := slotOf(p.prev), slotOf(t)

	if follows[prev][cur] {
		return nil
	}
	if (prev == slotOperand || prev == slotClose) && inFunctionFollows[cur] &&
		p.node(p.cur).kind == kindFunction {
		return nil
	}

	switch {
	case cur == slotEnd && prev == slotStart:
		return newError(KindStructural, t.Pos, "", "empty expression")
	case cur == slotEnd:
		return errAt(KindStructural, p.prev, "expression cannot end with %s", p.prev.String())
	case prev == slotStart:
		return errAt(KindStructural, t, "expression cannot start with %s", t.String())
	case prev == slotFunction:
		return errAt(KindStructural, t, "function %s must be followed by '('", p.prev.Op)
	case prev == slotOpen && cur == slotClose:
		return wrapError(KindStructural, t.Pos, t.Text, ErrEmptyGroup, "empty parenthesis")
	}
	return errAt(KindStructural, t, "%s cannot follow %s", t.String(), p.prev.String())
}
