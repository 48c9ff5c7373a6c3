package convert

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
)

// exponentPattern splits a literal into mantissa and exponent.
var exponentPattern = regexp.MustCompile(`^(.+)[eE]([+-]?\d+)$`)

// Converter classifies text into int64, float64 or time.Time values.
type Converter struct {
	decimal  rune
	locale   monday.Locale
	layouts  []string
	location *time.Location
	tag      language.Tag
}

// Option configures a Converter.
type Option func(*Converter)

// WithLanguage sets the locale used for the decimal separator and for
// month names in dates.
func WithLanguage(tag language.Tag) Option {
	return func(c *Converter) {
		c.tag = tag
		c.decimal = DecimalSeparator(tag)
		c.locale = MondayLocale(tag)
	}
}

// WithDecimalSeparator overrides the decimal separator. Only '.' and ','
// are accepted; other runes are ignored.
func WithDecimalSeparator(sep rune) Option {
	return func(c *Converter) {
		if sep == '.' || sep == ',' {
			c.decimal = sep
		}
	}
}

// WithDateLayouts adds layouts that are tried before the built-in ones.
func WithDateLayouts(layouts ...string) Option {
	return func(c *Converter) {
		c.layouts = append(c.layouts, layouts...)
	}
}

// WithLocation sets the location used for dates without a zone.
// Default: time.Local
func WithLocation(loc *time.Location) Option {
	return func(c *Converter) {
		if loc != nil {
			c.location = loc
		}
	}
}

// New creates a Converter. Without options it uses American English
// conventions ('.' decimal separator, month-first dates).
func New(opts ...Option) *Converter {
	c := &Converter{
		decimal:  '.',
		locale:   monday.LocaleEnUS,
		location: time.Local,
		tag:      language.AmericanEnglish,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Default returns a Converter configured from the process environment.
func Default() *Converter {
	return New(WithLanguage(FromEnvironment()))
}

// DecimalSeparator returns the decimal separator in use.
func (c *Converter) DecimalSeparator() rune {
	return c.decimal
}

// GroupSeparator returns the thousands separator in use.
func (c *Converter) GroupSeparator() rune {
	if c.decimal == ',' {
		return '.'
	}
	return ','
}

// Language returns the configured language tag.
func (c *Converter) Language() language.Tag {
	return c.tag
}

// Classify converts text into an int64, float64 or time.Time.
// It returns false when the text is not recognizable as either.
func (c *Converter) Classify(text string) (any, bool) {
	return c.classify(strings.TrimSpace(text), true)
}

// Literal classifies text without the numeric-prefix retry, so "12kg"
// stays text. Expression literals use this.
func (c *Converter) Literal(text string) (any, bool) {
	return c.classify(strings.TrimSpace(text), false)
}

// ClassifyNumber is like Classify but only accepts numbers, returned as float64.
func (c *Converter) ClassifyNumber(text string) (float64, bool) {
	v, ok := c.Classify(text)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

func (c *Converter) classify(s string, firstTime bool) (any, bool) {
	if s == "" {
		return nil, false
	}

	neg := false
	body := s
	switch body[0] {
	case '-':
		neg = true
		body = body[1:]
	case '+':
		body = body[1:]
	}

	if body != "" {
		if v, ok := c.number(body); ok {
			return negate(v, neg), true
		}
	}

	if t, err := c.ParseDate(s); err == nil {
		return t, true
	}

	// Retry once on the numeric prefix ("12kg" -> 12).
	if firstTime {
		if part := NumericPart(s); part != "" && part != s {
			return c.classify(part, false)
		}
	}
	return nil, false
}

// number handles an unsigned literal.
func (c *Converter) number(s string) (any, bool) {
	if m := exponentPattern.FindStringSubmatch(s); m != nil {
		// The mantissa cannot carry its own exponent ("1e2e3").
		if strings.ContainsAny(m[1], "eE") {
			return nil, false
		}
		mantissa, ok := c.number(m[1])
		if !ok {
			return nil, false
		}
		exp, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, false
		}
		f, _ := ToFloat(mantissa)
		if f == 0 {
			return 0.0, true
		}
		f *= math.Pow10(exp)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, false
		}
		return f, true
	}

	if !strings.ContainsAny(s, ".,") {
		if !isDigits(s) {
			return nil, false
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		// Too large for int64.
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		return nil, false
	}

	d, ok := UnformatMonetaryNumber(s, c.decimal)
	if !ok {
		return nil, false
	}
	if !strings.ContainsRune(s, c.decimal) && d.BigInt().IsInt64() {
		return d.IntPart(), true
	}
	f, _ := d.Float64()
	return f, true
}

func negate(v any, neg bool) any {
	if !neg {
		return v
	}
	switch n := v.(type) {
	case int64:
		return -n
	case float64:
		return -n
	}
	return v
}

// ToFloat converts the numeric kinds produced by Classify (and plain Go
// numbers) to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
