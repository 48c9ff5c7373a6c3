// Package aggregate implements the rule language's aggregate functions
// (MAX, MIN, MX2, MN2, SUM, AVG, ABS) over lists of loosely typed values.
//
// Values may be float64, int64, int, string or time.Time. Strings are
// coerced through a convert.Converter before comparison or accumulation.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/convert"
	"github.com/shopspring/decimal"
)

// Func names an aggregate function.
type Func string

// Aggregate functions in evaluation scan order.
const (
	Max       Func = "MAX"
	Min       Func = "MIN"
	SecondMax Func = "MX2"
	SecondMin Func = "MN2"
	Sum       Func = "SUM"
	Avg       Func = "AVG"
	Abs       Func = "ABS"
)

// Funcs lists every function in scan order.
var Funcs = []Func{Max, Min, SecondMax, SecondMin, Sum, Avg, Abs}

var aliases = map[string]Func{
	"MAX2": SecondMax,
	"MIN2": SecondMin,
}

// Sentinel errors.
var (
	// ErrNoValues indicates an aggregate over an empty list.
	ErrNoValues = errors.New("no values to aggregate")

	// ErrArity indicates ABS received more than one operand.
	ErrArity = errors.New("ABS takes exactly one operand")

	// ErrNotNumeric indicates ABS received a value that is not a number.
	ErrNotNumeric = errors.New("value is not numeric")

	// ErrOverflow indicates a value or result outside the float64 range.
	ErrOverflow = errors.New("number out of range")

	// ErrUnknownFunc indicates an unsupported function name.
	ErrUnknownFunc = errors.New("unknown aggregate function")
)

// Lookup resolves a function name case-insensitively. MAX2 and MIN2 are
// accepted as aliases of MX2 and MN2.
func Lookup(name string) (Func, bool) {
	upper := strings.ToUpper(name)
	if f, ok := aliases[upper]; ok {
		return f, true
	}
	for _, f := range Funcs {
		if string(f) == upper {
			return f, true
		}
	}
	return "", false
}

// Numeric reports whether fn always yields a number.
func (f Func) Numeric() bool {
	return f == Sum || f == Avg || f == Abs
}

// Apply runs fn over values.
func Apply(fn Func, values []any, conv *convert.Converter) (any, error) {
	switch fn {
	case Max:
		return extremum(values, conv, 1)
	case Min:
		return extremum(values, conv, -1)
	case SecondMax:
		return second(values, conv, true)
	case SecondMin:
		return second(values, conv, false)
	case Sum:
		return SumOf(values, conv)
	case Avg:
		return AvgOf(values, conv)
	case Abs:
		return AbsOf(values, conv)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFunc, fn)
}

// Coerce normalizes v: numbers become float64, strings that classify as a
// number or date are converted, everything else is returned unchanged.
func Coerce(v any, conv *convert.Converter) any {
	if f, ok := convert.ToFloat(v); ok {
		return f
	}
	s, ok := v.(string)
	if !ok || conv == nil {
		return v
	}
	c, ok := conv.Classify(s)
	if !ok {
		return v
	}
	if f, ok := convert.ToFloat(c); ok {
		return f
	}
	return c
}

// Compare orders two coerced values: numbers numerically, dates
// chronologically, anything else by its string form.
func Compare(a, b any) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func coerceAll(values []any, conv *convert.Converter) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		out = append(out, Coerce(v, conv))
	}
	return out
}

// extremum returns the max (dir=1) or min (dir=-1) coerced value.
func extremum(values []any, conv *convert.Converter, dir int) (any, error) {
	vals := coerceAll(values, conv)
	if len(vals) == 0 {
		return nil, ErrNoValues
	}
	best := vals[0]
	for _, v := range vals[1:] {
		if Compare(v, best)*dir > 0 {
			best = v
		}
	}
	return best, nil
}

// second sorts the values and picks the runner-up. With a single value the
// extremum itself is returned.
func second(values []any, conv *convert.Converter, desc bool) (any, error) {
	vals := coerceAll(values, conv)
	if len(vals) == 0 {
		return nil, ErrNoValues
	}
	sort.SliceStable(vals, func(i, j int) bool {
		if desc {
			return Compare(vals[i], vals[j]) > 0
		}
		return Compare(vals[i], vals[j]) < 0
	})
	if len(vals) == 1 {
		return vals[0], nil
	}
	return vals[1], nil
}

// SumOf adds the numeric interpretation of every value. Values that are not
// numbers count as zero. Infinite or NaN values and sums beyond float64 fail
// with ErrOverflow.
func SumOf(values []any, conv *convert.Converter) (float64, error) {
	total := decimal.Zero
	for _, v := range values {
		f, ok := Coerce(v, conv).(float64)
		if !ok {
			continue
		}
		if !finite(f) {
			return 0, fmt.Errorf("%w: %v", ErrOverflow, v)
		}
		total = total.Add(decimal.NewFromFloat(f))
	}
	f, _ := total.Float64()
	if !finite(f) {
		return 0, fmt.Errorf("%w: sum of %d values", ErrOverflow, len(values))
	}
	return f, nil
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// AvgOf averages values, counting non-numeric entries as zero.
func AvgOf(values []any, conv *convert.Converter) (float64, error) {
	if len(values) == 0 {
		return 0, ErrNoValues
	}
	sum, err := SumOf(values, conv)
	if err != nil {
		return 0, err
	}
	total := decimal.NewFromFloat(sum)
	f, _ := total.Div(decimal.NewFromInt(int64(len(values)))).Float64()
	return f, nil
}

// AbsOf returns the absolute value of the single operand.
func AbsOf(values []any, conv *convert.Converter) (float64, error) {
	switch len(values) {
	case 0:
		return 0, ErrNoValues
	case 1:
	default:
		return 0, ErrArity
	}
	f, ok := Coerce(values[0], conv).(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrNotNumeric, values[0])
	}
	if f < 0 {
		return -f, nil
	}
	return f, nil
}
