/*
Package rulexpr evaluates business rules written as text.

# Overview

Rules are conditions and formulas over named, typed variables:

	AGE >= 18 AND (NAME S= 'A' OR SALARY * 1.1 > 1000)
	MAX(Q1 Q2 Q3) - MIN(Q1 Q2 Q3)

An Engine parses and evaluates them with a shared locale, parser limits,
logging, metrics and tracing. The grammar, natures and error kinds are
described in package expr.

# Basic Usage

	engine := rulexpr.New()

	vars := variable.List{
	    variable.New("AGE", variable.TypeNumber, 42.0),
	    variable.New("NAME", variable.TypeText, "Ada"),
	}

	ok, err := engine.Filter(ctx, "AGE >= 18 AND NAME S= 'A'", vars)
	if err != nil {
	    return err
	}

	res, err := engine.Eval(ctx, "AGE * 12", vars)
	// res.Value == 504.0, res.Nature == expr.NatureNumeric

Filter requires a condition; Eval accepts any expression. Compile and
CompileFilter parse without evaluating, and Run evaluates a compiled
expression.

# Locale

Numbers such as 1.234,5 and dates such as 05.03.2024 are read according to
the engine's converter. The default follows LC_ALL, LC_NUMERIC or LANG:

	conv := convert.New(convert.WithLanguage(language.German))
	engine := rulexpr.New(rulexpr.WithConverter(conv))

# Configuration

Settings files (YAML, JSON or TOML) are loaded by package config:

	s, err := config.FromFile("rulexpr.yaml")
	if err != nil {
	    return err
	}
	engine := rulexpr.New(rulexpr.FromSettings(s))

# Observability

Every call gets an evaluation ID (a UUID) attached to log records as
eval_id and to spans as eval.id. Metrics and tracing use the global
OpenTelemetry providers:

	engine := rulexpr.New(
	    rulexpr.WithLogger(logger),
	    rulexpr.WithMetrics(observability.NewMetricsRecorder()),
	    rulexpr.WithSpanManager(observability.NewSpanManager()),
	)

# Errors

Parse and evaluation failures are *expr.Error values:

	_, err := engine.Eval(ctx, "5 > 'abc'", nil)
	var xe *expr.Error
	if errors.As(err, &xe) {
	    fmt.Println(xe.Kind, xe.Pos) // nature 4
	}

# Thread Safety

An Engine may be shared between goroutines. Variables are only read during
evaluation, so one variable list can back concurrent calls.
*/
package rulexpr
