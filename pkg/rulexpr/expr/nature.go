package expr

import "github.com/randalmurphal/rulexpr/pkg/rulexpr/variable"

// Nature is the inferred value category of a token or sub-expression.
type Nature int

const (
	// NatureNone means not yet inferred.
	NatureNone Nature = iota
	NatureNumeric
	NatureText
	NatureDate
	NatureLogical

	// NatureGlobal is untyped; it is resolved when the expression is
	// evaluated.
	NatureGlobal
)

// String returns the nature name.
func (n Nature) String() string {
	switch n {
	case NatureNumeric:
		return "numeric"
	case NatureText:
		return "text"
	case NatureDate:
		return "date"
	case NatureLogical:
		return "logical"
	case NatureGlobal:
		return "global"
	default:
		return "none"
	}
}

// NatureOf maps a declared variable type to a nature.
func NatureOf(t variable.Type) Nature {
	switch t {
	case variable.TypeNumber:
		return NatureNumeric
	case variable.TypeDate:
		return NatureDate
	case variable.TypeText:
		return NatureText
	default:
		return NatureGlobal
	}
}

// combine merges the nature of a new operand into cur. GLOBAL absorbs the
// scalar natures, DATE mixes only with DATE and GLOBAL, and LOGICAL mixes
// with nothing else.
func combine(cur, next Nature) (Nature, bool) {
	switch {
	case cur == NatureNone:
		return next, true
	case next == NatureNone, cur == next:
		return cur, true
	case cur == NatureLogical, next == NatureLogical:
		return cur, false
	case cur == NatureGlobal || next == NatureGlobal:
		return NatureGlobal, true
	}
	// numeric/text/date pairs never mix
	return cur, false
}
