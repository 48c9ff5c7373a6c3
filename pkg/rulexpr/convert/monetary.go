package convert

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// numericPrefix matches the longest numeric run at the start of a string,
// with optional grouping/decimal separators and exponent.
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+([.,]\d+)*|[.,]\d+)([eE][+-]?\d+)?`)

// UnformatMonetaryNumber parses a number written with grouping and decimal
// separators, such as "1,234,567.89" (decimalSep '.') or "1.234,5"
// (decimalSep ','). The grouping separator is the other of '.' and ','.
//
// The first group may have one to three digits, every following group must
// have exactly three. Malformed input returns false.
func UnformatMonetaryNumber(s string, decimalSep rune) (decimal.Decimal, bool) {
	group := ","
	if decimalSep == ',' {
		group = "."
	}

	intPart, frac := s, ""
	if i := strings.IndexRune(s, decimalSep); i >= 0 {
		if strings.Count(s, string(decimalSep)) > 1 {
			return decimal.Zero, false
		}
		intPart, frac = s[:i], s[i+1:]
		if !isDigits(frac) {
			return decimal.Zero, false
		}
	}

	var digits string
	if intPart == "" {
		if frac == "" {
			return decimal.Zero, false
		}
		digits = "0"
	} else {
		groups := strings.Split(intPart, group)
		for i, g := range groups {
			if !isDigits(g) {
				return decimal.Zero, false
			}
			if i == 0 && len(groups) > 1 && len(g) > 3 {
				return decimal.Zero, false
			}
			if i > 0 && len(g) != 3 {
				return decimal.Zero, false
			}
		}
		digits = strings.Join(groups, "")
	}

	normalized := digits
	if frac != "" {
		normalized += "." + frac
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// NumericPart returns the longest numeric prefix of s, or "" if s does not
// start with a number. Exponents are included ("1.5e3kg" -> "1.5e3").
func NumericPart(s string) string {
	return numericPrefix.FindString(strings.TrimSpace(s))
}
