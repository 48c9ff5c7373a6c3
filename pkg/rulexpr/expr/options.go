package expr

import (
	"log/slog"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/convert"
)

// DefaultMaxDepth bounds re-entrant parsing during evaluation.
const DefaultMaxDepth = 32

// config holds tokenizer, parser and evaluator settings.
type config struct {
	strict       bool
	forceLogical bool
	maxDepth     int
	conv         *convert.Converter
	logger       *slog.Logger
}

// Option configures parsing and evaluation.
type Option func(*config)

// WithStrict makes an unterminated string literal an error instead of
// closing it at end of input.
func WithStrict(strict bool) Option {
	return func(c *config) {
		c.strict = strict
	}
}

// WithForceLogical requires the whole expression to be a condition.
// Filter call sites use this; formula call sites leave it off.
func WithForceLogical(force bool) Option {
	return func(c *config) {
		c.forceLogical = force
	}
}

// WithConverter sets the converter used for literals and GLOBAL operands.
// Default: convert.New() (American English conventions).
func WithConverter(conv *convert.Converter) Option {
	return func(c *config) {
		if conv != nil {
			c.conv = conv
		}
	}
}

// WithMaxDepth bounds how many times evaluation may re-enter the parser.
// Values below 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithLogger sets the logger for evaluation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func newConfig(opts ...Option) config {
	c := config{
		maxDepth: DefaultMaxDepth,
		conv:     convert.New(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
