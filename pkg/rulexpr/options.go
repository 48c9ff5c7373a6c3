package rulexpr

import (
	"log/slog"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/config"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/convert"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/expr"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/observability"
)

// engineConfig holds the engine configuration.
type engineConfig struct {
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	conv     *convert.Converter
	strict   bool
	maxDepth int
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		conv:     convert.Default(),
		maxDepth: expr.DefaultMaxDepth,
	}
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithLogger sets the logger. Every call logs through a child logger
// carrying eval_id and expression.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}
//
// Example:
//
//	engine := rulexpr.New(rulexpr.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *engineConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpanManager sets the span manager used for parse and evaluate spans.
// Default: observability.NoopSpanManager{}
func WithSpanManager(s observability.SpanManager) Option {
	return func(c *engineConfig) {
		if s != nil {
			c.spans = s
		}
	}
}

// WithConverter sets the converter that reads numbers and dates.
// Default: convert.Default(), which follows the process locale.
func WithConverter(conv *convert.Converter) Option {
	return func(c *engineConfig) {
		if conv != nil {
			c.conv = conv
		}
	}
}

// WithStrict rejects unterminated string literals.
func WithStrict(strict bool) Option {
	return func(c *engineConfig) {
		c.strict = strict
	}
}

// WithMaxDepth bounds re-entrant parsing of GLOBAL terms and compound
// function operands.
// Default: expr.DefaultMaxDepth
func WithMaxDepth(depth int) Option {
	return func(c *engineConfig) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// FromSettings applies loaded settings: converter, strictness, depth, and
// OTel metrics and tracing when enabled. Settings should have passed
// Validate; a converter that cannot be built leaves the current one.
func FromSettings(s config.Settings) Option {
	return func(c *engineConfig) {
		if conv, err := s.Converter(); err == nil {
			c.conv = conv
		}
		c.strict = s.Strict
		if s.MaxDepth > 0 {
			c.maxDepth = s.MaxDepth
		}
		if s.Metrics {
			c.metrics = observability.NewMetricsRecorder()
		}
		if s.Tracing {
			c.spans = observability.NewSpanManager()
		}
	}
}
