package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics_AllKinds(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordParse(ctx, "", time.Millisecond)
		m.RecordParse(ctx, "structural", 0)
		m.RecordEvaluation(ctx, "numeric", true, time.Millisecond)
	})
}

func TestNoopSpanManager_Subtests(t *testing.T) {
	var sm SpanManager = NoopSpanManager{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "kept")

	t.Run("parse span", func(t *testing.T) {
		got, span := sm.StartParseSpan(ctx, "eval-1", "AGE > 18")
		require.NotNil(t, span)
		assert.Equal(t, ctx, got)
		assert.False(t, span.IsRecording())
		assert.False(t, span.SpanContext().IsValid())

		assert.NotPanics(t, func() {
			span.SetAttributes(attribute.String("k", "v"))
			sm.EndSpanWithError(span, errors.New("boom"))
			sm.EndSpanWithError(span, nil)
		})
	})

	t.Run("eval span", func(t *testing.T) {
		got, span := sm.StartEvalSpan(ctx, "eval-1", "logical")
		require.NotNil(t, span)
		assert.Equal(t, "kept", got.Value(ctxKey{}))

		assert.NotPanics(t, func() {
			sm.AddSpanEvent(got, "rulexpr.result", attribute.Int("result.variables", 2))
			span.End()
		})
	})
}

type ctxKey struct{}
