package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useRecorder 安装内存TracerProvider，测试结束后恢复
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(Options{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartSpan(t *testing.T) {
	rec := useRecorder(t)

	ctx, parent := StartSpan(context.Background(), "inventory.sale", attribute.Int("book_id", 7))
	_, child := StartSpan(ctx, "ledger.append")
	End(child, nil)
	End(parent, errors.New("库存不足"))

	spans := rec.Ended()
	require.Len(t, spans, 2)

	t.Run("子Span挂在父Span下", func(t *testing.T) {
		assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
		assert.Equal(t, spans[1].SpanContext().TraceID(), spans[0].SpanContext().TraceID())
	})

	t.Run("错误记录到Span状态", func(t *testing.T) {
		assert.Equal(t, codes.Error, spans[1].Status().Code)
		assert.Equal(t, codes.Unset, spans[0].Status().Code)
		assert.Contains(t, spans[1].Attributes(), attribute.Int("book_id", 7))
	})
}

func TestExtractTraceID(t *testing.T) {
	t.Run("没有Span返回空串", func(t *testing.T) {
		assert.Empty(t, ExtractTraceID(context.Background()))
	})

	t.Run("有Span返回32位十六进制", func(t *testing.T) {
		useRecorder(t)
		ctx, span := StartSpan(context.Background(), "x")
		defer span.End()
		assert.Len(t, ExtractTraceID(ctx), 32)
	})
}

func TestGinMiddleware(t *testing.T) {
	rec := useRecorder(t)
	_, err := InitTracer(Options{})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())

	var traceID string
	r.GET("/books/:id", func(c *gin.Context) {
		traceID = ExtractTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/books/1", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", traceID)
	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /books/:id", spans[0].Name())
}
