// Package middleware provides the Gin middleware chain: panic recovery,
// request tracking ids, request logging, and per-request timeouts.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quotevault/quotesync/internal/platform/logging"
)

// Tracking headers. A request id identifies one HTTP request; a
// correlation id follows a whole transaction across services.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// Gin context keys for the tracking ids.
const (
	ContextKeyRequestID     = "request_id"
	ContextKeyCorrelationID = "correlation_id"
)

// ctxKey keeps the context.Context values private to this package.
type ctxKey string

const (
	ctxKeyRequestID     ctxKey = "request_id"
	ctxKeyCorrelationID ctxKey = "correlation_id"
)

// RequestID returns middleware that assigns every request an id. An
// inbound X-Request-ID is reused, otherwise a fresh UUID is generated.
// The id is echoed on the response, stored on both contexts, and added
// to the context logger.
func RequestID() gin.HandlerFunc {
	return tracking(HeaderRequestID, ContextKeyRequestID, func(ctx context.Context, id string) context.Context {
		return logging.WithRequestID(ContextWithRequestID(ctx, id), id)
	})
}

// CorrelationID returns middleware that propagates X-Correlation-ID.
// A missing header means this service is the transaction origin and a
// new id is generated.
func CorrelationID() gin.HandlerFunc {
	return tracking(HeaderCorrelationID, ContextKeyCorrelationID, func(ctx context.Context, id string) context.Context {
		return logging.WithCorrelationID(ContextWithCorrelationID(ctx, id), id)
	})
}

// tracking extracts or generates an id, exposes it on the response
// header and the Gin context, and enriches the request context. The
// HTTP client reads these ids back to tag outbound calls.
func tracking(header, ginKey string, enrich func(context.Context, string) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(ginKey, id)
		c.Header(header, id)
		c.Request = c.Request.WithContext(enrich(c.Request.Context(), id))

		c.Next()
	}
}

// GetRequestID returns the request id from the Gin context, or "".
func GetRequestID(c *gin.Context) string {
	return ginString(c, ContextKeyRequestID)
}

// GetCorrelationID returns the correlation id from the Gin context, or "".
func GetCorrelationID(c *gin.Context) string {
	return ginString(c, ContextKeyCorrelationID)
}

func ginString(c *gin.Context, key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}

	return ""
}

// ContextWithRequestID stores a request id on a plain context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// ContextWithCorrelationID stores a correlation id on a plain context.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}

// RequestIDFromContext reads the request id back out of a context.
// Used by the HTTP client to propagate the id downstream.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(ctxKeyRequestID).(string)

	return id
}

// CorrelationIDFromContext reads the correlation id back out of a context.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(ctxKeyCorrelationID).(string)

	return id
}
