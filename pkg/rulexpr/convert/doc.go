/*
Package convert classifies untyped text as a number or a date.

# Overview

Rule variables without a declared type ("global" variables) carry raw text.
Before such a value can take part in arithmetic or comparisons it has to be
classified. A Converter does that heuristically and locale-aware:

	c := convert.New(convert.WithLanguage(language.German))

	v, ok := c.Classify("1.234,56") // 1234.56 (float64), true
	v, ok = c.Classify("42")        // 42 (int64), true
	v, ok = c.Classify("3.1.2024")  // time.Time, true
	v, ok = c.Classify("12kg")      // 12 (int64), true (numeric prefix)
	v, ok = c.Classify("n/a")       // nil, false

# Classification Order

	integer → long (overflow falls back to float) → exponential
	→ grouped / decimal number → date → numeric prefix (once)

Grouped numbers are validated strictly: the first group has one to three
digits and every following group exactly three. Anything else is "no
match", never a panic.

# Locale

The decimal separator comes from CLDR data (golang.org/x/text) for the
configured language; the other of '.' and ',' is the grouping separator.
Month names in dates are parsed with github.com/goodsign/monday for the
same locale. Day-first numeric dates are tried before month-first ones when
the locale uses a decimal comma.

A Converter is immutable after construction and safe for concurrent use.
*/
package convert
