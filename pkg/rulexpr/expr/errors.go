package expr

import (
	"errors"
	"fmt"
)

// Kind classifies an expression error.
type Kind int

const (
	// KindLexical indicates a tokenizer failure, such as an unterminated
	// string literal in strict mode.
	KindLexical Kind = iota

	// KindStructural indicates misplaced operators, unbalanced or empty
	// parentheses, or a function not followed by '('.
	KindStructural

	// KindNature indicates operands or operators whose natures do not mix.
	KindNature

	// KindBinding indicates a reference to a variable the caller marked
	// invalid, or one without a value where a value is required.
	KindBinding

	// KindEvaluation indicates a failure while reducing a parsed tree.
	KindEvaluation

	// KindCoercion indicates an operand that could not be coerced. These are
	// downgraded to a false comparison by the evaluator.
	KindCoercion
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindLexical:
		return "lexical"
	case KindStructural:
		return "structural"
	case KindNature:
		return "nature"
	case KindBinding:
		return "binding"
	case KindEvaluation:
		return "evaluation"
	case KindCoercion:
		return "coercion"
	default:
		return "unknown"
	}
}

// Sentinel errors wrapped by *Error.
var (
	// ErrEmptyGroup indicates "()" or a function call without operands.
	ErrEmptyGroup = errors.New("empty parenthesis")

	// ErrCoercion indicates an operand that could not be coerced for a
	// comparison.
	ErrCoercion = errors.New("operand cannot be coerced")

	// ErrMaxDepth indicates re-entrant parsing exceeded the configured depth.
	ErrMaxDepth = errors.New("maximum expression depth exceeded")

	// ErrDivisionByZero indicates a division with a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrNotCondition indicates a filter expression that does not yield a
	// boolean.
	ErrNotCondition = errors.New("expression is not a condition")
)

// Error is the single error carrier for tokenize, parse and evaluation
// failures. Pos is a 0-based rune offset into the source text.
type Error struct {
	Kind    Kind
	Message string
	Pos     int

	// Token is the text of the offending token, if any.
	Token string

	// Err is an optional wrapped cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s at position %d", e.Message, e.Pos)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, pos int, tok, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Token: tok, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, pos int, tok string, err error, format string, args ...any) *Error {
	e := newError(kind, pos, tok, format, args...)
	e.Err = err
	return e
}

func errAt(kind Kind, t *Token, format string, args ...any) *Error {
	return newError(kind, t.Pos, t.Text, format, args...)
}

// Categorize returns the Kind of err. Errors that are not an *Error are
// reported as KindEvaluation.
func Categorize(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindEvaluation
}

// Position returns the source offset carried by err, or -1.
func Position(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Pos
	}
	return -1
}

// IsParseError reports whether err was raised while tokenizing or parsing.
func IsParseError(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindLexical, KindStructural, KindNature, KindBinding:
		return true
	}
	return false
}
