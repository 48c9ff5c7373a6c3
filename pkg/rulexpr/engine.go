package rulexpr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/rulexpr/pkg/rulexpr/convert"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/expr"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/observability"
	"github.com/randalmurphal/rulexpr/pkg/rulexpr/variable"
)

// Engine parses and evaluates expressions with shared settings and
// observability. An Engine is safe for concurrent use.
type Engine struct {
	cfg engineConfig
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{cfg: cfg}
}

// Converter returns the converter the engine reads numbers and dates with.
func (e *Engine) Converter() *convert.Converter {
	return e.cfg.conv
}

// Compile parses text into an expression of any nature.
func (e *Engine) Compile(ctx context.Context, text string, vars variable.List) (*expr.Expression, error) {
	evalID := uuid.NewString()
	return e.compile(ctx, e.logger(evalID, text), evalID, text, vars, false)
}

// CompileFilter parses text as a condition. Expressions that do not yield
// a boolean fail with expr.ErrNotCondition.
func (e *Engine) CompileFilter(ctx context.Context, text string, vars variable.List) (*expr.Expression, error) {
	evalID := uuid.NewString()
	return e.compile(ctx, e.logger(evalID, text), evalID, text, vars, true)
}

// Eval parses and evaluates text.
func (e *Engine) Eval(ctx context.Context, text string, vars variable.List) (*expr.Result, error) {
	return e.run(ctx, text, vars, false)
}

// Filter parses and evaluates text as a condition.
func (e *Engine) Filter(ctx context.Context, text string, vars variable.List) (bool, error) {
	res, err := e.run(ctx, text, vars, true)
	if err != nil {
		return false, err
	}
	b, ok := res.Bool()
	if !ok {
		return false, fmt.Errorf("%w: got %s", expr.ErrNotCondition, res.Nature)
	}
	return b, nil
}

// Run evaluates an expression compiled earlier.
func (e *Engine) Run(ctx context.Context, x *expr.Expression) (*expr.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	evalID := uuid.NewString()
	return e.evaluate(ctx, e.logger(evalID, x.Source()), evalID, x)
}

func (e *Engine) run(ctx context.Context, text string, vars variable.List, force bool) (*expr.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	evalID := uuid.NewString()
	logger := e.logger(evalID, text)

	x, err := e.compile(ctx, logger, evalID, text, vars, force)
	if err != nil {
		return nil, err
	}
	return e.evaluate(ctx, logger, evalID, x)
}

func (e *Engine) logger(evalID, text string) *slog.Logger {
	return observability.EnrichLogger(e.cfg.logger, evalID, text)
}

func (e *Engine) compile(ctx context.Context, logger *slog.Logger, evalID, text string, vars variable.List, force bool) (x *expr.Expression, err error) {
	ctx, span := e.cfg.spans.StartParseSpan(ctx, evalID, text)
	defer func() {
		e.cfg.spans.EndSpanWithError(span, err)
	}()

	observability.LogParseStart(logger, len(vars), force)
	start := time.Now()

	x, err = expr.ParseWith(text, vars,
		expr.WithConverter(e.cfg.conv),
		expr.WithStrict(e.cfg.strict),
		expr.WithMaxDepth(e.cfg.maxDepth),
		expr.WithForceLogical(force),
		expr.WithLogger(logger),
	)

	kind := ""
	if err != nil {
		kind = expr.Categorize(err).String()
		observability.LogParseError(logger, err, kind, expr.Position(err))
	}
	e.cfg.metrics.RecordParse(ctx, kind, time.Since(start))
	return x, err
}

func (e *Engine) evaluate(ctx context.Context, logger *slog.Logger, evalID string, x *expr.Expression) (res *expr.Result, err error) {
	nature := x.Nature().String()
	ctx, span := e.cfg.spans.StartEvalSpan(ctx, evalID, nature)
	defer func() {
		e.cfg.spans.EndSpanWithError(span, err)
	}()

	elapsed := observability.TimedOperation()
	start := time.Now()
	res, err = x.Evaluate()
	duration := time.Since(start)

	e.cfg.metrics.RecordEvaluation(ctx, nature, err == nil, duration)
	if err != nil {
		observability.LogEvalError(logger, err, elapsed())
		return nil, err
	}

	e.cfg.spans.AddSpanEvent(ctx, "rulexpr.result",
		attribute.String("result.nature", res.Nature.String()),
		attribute.Int("result.variables", len(res.Usage)),
	)
	observability.LogEvalComplete(logger, res.Nature.String(), res.Value, elapsed())
	return res, nil
}

var defaultEngine = sync.OnceValue(func() *Engine { return New() })

// Eval evaluates text with a default engine.
func Eval(ctx context.Context, text string, vars variable.List) (*expr.Result, error) {
	return defaultEngine().Eval(ctx, text, vars)
}

// Filter evaluates text as a condition with a default engine.
func Filter(ctx context.Context, text string, vars variable.List) (bool, error) {
	return defaultEngine().Filter(ctx, text, vars)
}
