package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/quotevault/quotesync/internal/adapters/http/dto"
	"github.com/quotevault/quotesync/internal/platform/logging"
)

// Recovery returns middleware that turns a handler panic into a logged
// 500 with the standard error envelope. It must sit first in the chain
// so every later handler and middleware is covered.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			traceID := spanTraceID(c)

			logging.FromContext(c.Request.Context()).Error("panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("trace_id", traceID),
			)

			resp := dto.NewErrorResponse(dto.ErrorCodeInternal, "an internal error occurred")
			resp.TraceID = traceID

			// The response may already be partially written.
			if c.Writer.Written() {
				c.Abort()

				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
		}()

		c.Next()
	}
}

// spanTraceID returns the active trace id, or "" outside a sampled span.
func spanTraceID(c *gin.Context) string {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.SpanContext().HasTraceID() {
		return ""
	}

	return span.SpanContext().TraceID().String()
}
