package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recorder 把全局Provider替换为内存记录器
func recorder(t *testing.T, rate float64) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp, err := newProvider(context.Background(), Config{ServiceName: "booksdb-test", SampleRate: rate}, sdktrace.WithSpanProcessor(rec))
	require.NoError(t, err)
	Install(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return rec
}

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartSpan_ParentChild(t *testing.T) {
	rec := recorder(t, 1)

	ctx, parent := StartSpan(context.Background(), "test", "library.Search")
	_, child := StartSpan(ctx, "test", "store.FindBooksByTitle")
	child.End()
	parent.End()

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "store.FindBooksByTitle", spans[0].Name())
	assert.Equal(t, spans[1].SpanContext().TraceID(), spans[0].SpanContext().TraceID())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestRecordError(t *testing.T) {
	rec := recorder(t, 1)

	t.Run("错误", func(t *testing.T) {
		_, span := StartSpan(context.Background(), "test", "fail")
		RecordError(span, errors.New("connection refused"))
		span.End()

		s := rec.Ended()[len(rec.Ended())-1]
		assert.Equal(t, codes.Error, s.Status().Code)
		assert.Equal(t, "connection refused", s.Status().Description)
		require.Len(t, s.Events(), 1)
		assert.Equal(t, "exception", s.Events()[0].Name)
	})

	t.Run("成功", func(t *testing.T) {
		_, span := StartSpan(context.Background(), "test", "ok")
		RecordError(span, nil)
		span.End()

		s := rec.Ended()[len(rec.Ended())-1]
		assert.Equal(t, codes.Ok, s.Status().Code)
	})
}

func TestExtractTraceID(t *testing.T) {
	assert.Empty(t, ExtractTraceID(context.Background()))

	recorder(t, 1)
	ctx, span := StartSpan(context.Background(), "test", "op")
	defer span.End()
	assert.Len(t, ExtractTraceID(ctx), 32)
}

func TestSampleRate_Zero(t *testing.T) {
	rec := recorder(t, 0)

	_, span := StartSpan(context.Background(), "test", "dropped")
	span.End()

	assert.False(t, span.SpanContext().IsSampled())
	assert.Empty(t, rec.Ended())
}
