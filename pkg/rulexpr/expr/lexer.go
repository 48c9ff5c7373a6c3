package expr

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	isoDatePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(?:T\d{2}:\d{2}(?::\d{2}(?:\.\d+)?)?(?:Z|[+-]\d{2}:\d{2})?)?`)
	mantissaPattern = regexp.MustCompile(`^-?(?:\d+(?:[.,]\d+)*|[.,]\d+)[eE]$`)
	commaGrouped    = regexp.MustCompile(`^-?\d+(?:,\d{3})*$`)
	dotGrouped      = regexp.MustCompile(`^-?\d+(?:\.\d{3})*$`)
)

// lexer scans runes into tokens, buffering the pending literal.
type lexer struct {
	src     []rune
	pos     int
	decimal rune
	strict  bool

	tokens   []*Token
	buf      []rune
	bufStart int

	// signAllowed is true where a '-' before a digit starts a number.
	signAllowed bool
}

// Tokenize splits text into tokens. Nature and value are resolved later,
// by the parser. Empty input yields the single literal "true".
func Tokenize(text string, strict bool, opts ...Option) ([]*Token, error) {
	cfg := newConfig(opts...)
	cfg.strict = strict
	return tokenize(text, &cfg)
}

func tokenize(text string, cfg *config) ([]*Token, error) {
	if strings.TrimSpace(text) == "" {
		return []*Token{{Text: "true"}}, nil
	}

	l := &lexer{
		src:         []rune(text),
		decimal:     cfg.conv.DecimalSeparator(),
		strict:      cfg.strict,
		signAllowed: true,
	}
	for l.pos < len(l.src) {
		if err := l.step(); err != nil {
			return nil, err
		}
	}
	l.flush()
	return l.tokens, nil
}

func (l *lexer) step() error {
	r := l.src[l.pos]

	switch {
	case r == '\'':
		l.flush()
		return l.quoted()
	case unicode.IsSpace(r):
		l.flush()
		l.pos++
		return nil
	case r == ',':
		if l.commaInNumber() {
			l.push()
			return nil
		}
		l.flush()
		l.signAllowed = true
		l.pos++
		return nil
	}

	if len(l.buf) == 0 {
		if m := isoDatePattern.FindString(string(l.src[l.pos:])); m != "" {
			end := l.pos + len([]rune(m))
			if l.boundary(end) {
				for l.pos < end {
					l.push()
				}
				l.flush()
				return nil
			}
		}
	}

	if (r == '-' || r == '+') && l.digitAt(l.pos+1) && mantissaPattern.MatchString(string(l.buf)) {
		l.push()
		return nil
	}

	if r == '-' && len(l.buf) == 0 && l.signAllowed &&
		(l.digitAt(l.pos+1) || (l.at(l.pos+1) == '.' && l.digitAt(l.pos+2))) {
		l.push()
		return nil
	}

	if op, n, ok := l.matchOperator(); ok {
		l.flush()
		l.tokens = append(l.tokens, &Token{
			Text:  string(l.src[l.pos : l.pos+n]),
			Op:    op.canon,
			Pos:   l.pos,
			Class: op.class,
		})
		l.pos += n
		l.signAllowed = op.canon != ")"
		return nil
	}

	l.push()
	return nil
}

// quoted scans a string literal starting at the opening quote.
func (l *lexer) quoted() error {
	start := l.pos
	l.pos++

	var sb strings.Builder
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		if r == '\\' && l.at(l.pos+1) == '\'' {
			sb.WriteRune('\'')
			l.pos += 2
			continue
		}
		if r == '\'' {
			l.pos++
			l.emitString(start, sb.String())
			return nil
		}
		sb.WriteRune(r)
		l.pos++
	}

	if l.strict {
		return newError(KindLexical, start, string(l.src[start:]), "unterminated string literal")
	}
	l.emitString(start, sb.String())
	return nil
}

func (l *lexer) emitString(start int, value string) {
	l.tokens = append(l.tokens, &Token{
		Text:     string(l.src[start:l.pos]),
		Pos:      start,
		Quoted:   true,
		nature:   NatureText,
		value:    value,
		resolved: true,
	})
	l.signAllowed = false
}

// matchOperator tries the longest operator at the current position.
func (l *lexer) matchOperator() (operator, int, bool) {
	for n := maxOperatorLen; n >= 1; n-- {
		if l.pos+n > len(l.src) {
			continue
		}
		cand := string(l.src[l.pos : l.pos+n])
		for _, op := range operators {
			if len(op.text) != n {
				continue
			}
			if op.word {
				if !strings.EqualFold(cand, op.text) || !l.boundary(l.pos-1) || !l.boundary(l.pos+n) {
					continue
				}
			} else if cand != op.text {
				continue
			}
			if op.letterLed && !l.boundary(l.pos-1) {
				continue
			}
			return op, n, true
		}
	}
	return operator{}, 0, false
}

// commaInNumber reports whether the comma at pos continues the pending
// number instead of separating tokens.
func (l *lexer) commaInNumber() bool {
	if len(l.buf) == 0 {
		return false
	}
	pending := string(l.buf)
	next := l.pos + 1

	if l.decimal == ',' {
		return dotGrouped.MatchString(pending) && l.digitAt(next)
	}
	if !commaGrouped.MatchString(pending) {
		return false
	}
	for i := next; i < next+3; i++ {
		if !l.digitAt(i) {
			return false
		}
	}
	return !l.digitAt(next + 3)
}

func (l *lexer) push() {
	if len(l.buf) == 0 {
		l.bufStart = l.pos
	}
	l.buf = append(l.buf, l.src[l.pos])
	l.pos++
}

func (l *lexer) flush() {
	if len(l.buf) == 0 {
		return
	}
	l.tokens = append(l.tokens, &Token{Text: string(l.buf), Pos: l.bufStart})
	l.buf = l.buf[:0]
	l.signAllowed = false
}

func (l *lexer) at(i int) rune {
	if i < 0 || i >= len(l.src) {
		return 0
	}
	return l.src[i]
}

func (l *lexer) digitAt(i int) bool {
	r := l.at(i)
	return r >= '0' && r <= '9'
}

// boundary reports whether position i is outside the text or holds a rune
// that cannot be part of a word.
func (l *lexer) boundary(i int) bool {
	if i < 0 || i >= len(l.src) {
		return true
	}
	return !isWordRune(l.src[i])
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Format prints a token stream so that tokenizing the result yields the
// same tokens: single spaces between tokens, ", " between adjacent
// operands, string literals re-quoted.
func Format(tokens []*Token) string {
	var sb strings.Builder
	var prev *Token
	for _, t := range tokens {
		if t.Class == ClassEnd {
			continue
		}
		if prev != nil {
			if prev.IsOperand() && t.IsOperand() {
				sb.WriteString(", ")
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.String())
		prev = t
	}
	return sb.String()
}
