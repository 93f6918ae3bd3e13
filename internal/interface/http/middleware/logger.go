package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-inventory/pkg/response"
	"github.com/xiebiao/bookstore-inventory/pkg/tracing"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	slowRequest     = 3 * time.Second
)

// Logger 请求日志中间件
// 每个请求生成（或沿用上游传入的）request_id，并把带request_id和trace_id的logger挂到Context上，
// 之后response.Error记录的内部错误日志都能按request_id串起来
// 须放在tracing中间件之后，才能取到trace_id
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		fields := []zap.Field{zap.String("request_id", requestID)}
		if traceID := tracing.ExtractTraceID(c.Request.Context()); traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}
		reqLog := log.With(fields...)
		response.SetLogger(c, reqLog)

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		logFields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if operatorID := GetOperatorID(c); operatorID != 0 {
			logFields = append(logFields, zap.Uint("operator_id", operatorID))
		}
		if len(c.Errors) > 0 {
			logFields = append(logFields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			reqLog.Error("request", logFields...)
		case latency > slowRequest:
			reqLog.Warn("slow request", logFields...)
		default:
			reqLog.Info("request", logFields...)
		}
	}
}

// GetRequestID 当前请求ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
