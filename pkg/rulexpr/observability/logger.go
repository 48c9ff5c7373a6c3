// Package observability provides structured logging, metrics and tracing
// for rule parsing and evaluation.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds evaluation context to a logger.
// Returns a new logger with eval_id and expression fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "6f1c...", "AGE >= 18")
//	enriched.Info("evaluating") // includes eval_id, expression
func EnrichLogger(logger *slog.Logger, evalID, source string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("eval_id", evalID),
		slog.String("expression", source),
	)
}

// LogParseStart logs the start of a parse.
func LogParseStart(logger *slog.Logger, variables int, forceLogical bool) {
	if logger == nil {
		return
	}
	logger.Debug("parse starting",
		slog.Int("variables", variables),
		slog.Bool("force_logical", forceLogical),
	)
}

// LogParseError logs a rejected expression with the offending position.
func LogParseError(logger *slog.Logger, err error, kind string, pos int) {
	if logger == nil {
		return
	}
	logger.Warn("parse failed",
		slog.String("error", err.Error()),
		slog.String("kind", kind),
		slog.Int("position", pos),
	)
}

// LogEvalComplete logs a successful evaluation.
func LogEvalComplete(logger *slog.Logger, nature string, value any, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("evaluation completed",
		slog.String("nature", nature),
		slog.Any("value", value),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogEvalError logs a failed evaluation.
func LogEvalError(logger *slog.Logger, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("evaluation failed",
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogCoercion logs a comparison that was downgraded to false because an
// operand could not be coerced.
func LogCoercion(logger *slog.Logger, pos int, op string, err error) {
	if logger == nil {
		return
	}
	logger.Debug("comparison operand not coercible, result is false",
		slog.Int("position", pos),
		slog.String("operator", op),
		slog.String("error", err.Error()),
	)
}

// LogStoreError logs a variable store failure.
func LogStoreError(logger *slog.Logger, op, name string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("variable store operation failed",
		slog.String("operation", op),
		slog.String("set", name),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
