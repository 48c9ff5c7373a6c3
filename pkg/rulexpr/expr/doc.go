/*
Package expr tokenizes, parses and evaluates business-rule expressions.

# Overview

An expression is a condition or formula over named variables:

	AGE >= 18 AND (NAME S= 'A' OR SALARY * 1.1 > 1000)

Text is split into tokens, built into a typed tree, and reduced to a single
value: a number (float64), text (string), date (time.Time) or condition
(bool). Every node of the tree has a nature inferred while tokens arrive;
operands of different natures that cannot mix are rejected at parse time
with the rune offset of the offending token.

# Expression Syntax

	<group>  := ['NOT'...] <term> (('AND' | 'OR') ['NOT'...] <term>)*
	<term>   := <arith> [<cmp> <arith>]
	<arith>  := ['-'] <unit> (('+' | '-' | '*' | '/') <unit>)*
	<unit>   := <operand> | '(' <group> ')' | <func> '(' <unit>... ')'
	<func>   := 'MAX' | 'MIN' | 'MX2' | 'MN2' | 'SUM' | 'AVG' | 'ABS'

Operands are quoted strings ('it\'s'), numbers (1,234.5 or 1.5e3), ISO
dates (2024-03-05), true/false, or variable names. Unknown names are text.

# Operators

Comparison operators:

	=  !=  >  <  >=  <=  =>  =<    numbers and dates
	S=  E=  C=                     text starts with, ends with, contains
	i=  i!=  iS=  iE=  iC=         text, trimmed and case-insensitive
	i>  i<  i>=  i<=  i=>  i=<     dates, compared by calendar day

Arithmetic operators + - * / apply to numbers; + also joins text.
Logical operators AND, OR, NOT and function names are case-insensitive.

# Natures

	numeric   numbers and arithmetic
	text      strings, '+' concatenation, text comparators
	date      dates, no arithmetic
	logical   comparisons and their AND/OR/NOT combinations
	global    untyped variables, classified when evaluated

A GLOBAL operand mixes with numbers, text and dates. Its text is classified
by the convert package at evaluation time and the term is parsed again with
the concrete natures.

# Functions

Function operands are separated by spaces or commas. An operand bound to a
variable with several values contributes that variable's own aggregate:
with A = [1 5] and B = 3, MAX(A B) is 5. Operands joined by arithmetic,
such as MAX(A + 1, B), are evaluated as one value first.

# Errors

All failures are *Error values carrying a Kind and a position. Comparisons
whose operands cannot be coerced evaluate to false instead of failing.

# Usage

	vars := variable.List{variable.New("AGE", variable.TypeNumber, 17.0)}
	e, err := expr.ParseWith("AGE >= 18", vars, expr.WithForceLogical(true))
	if err != nil {
	    return err
	}
	res, err := e.Evaluate()
	// res.Value == false
*/
package expr
