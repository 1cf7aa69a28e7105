package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

var errPanic = errors.New("panic while handling request")

// AccessLog writes one line per request to logger and tags every request with an id.
func AccessLog(logger zerolog.Logger, checkAlivePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		if checkAlivePath != "" && c.Request.URL.Path == checkAlivePath {
			return
		}

		elapsed := time.Since(start)
		event := logger.Log().
			Str("request_id", requestID).
			Str("IP", c.ClientIP()).
			Int("status", c.Writer.Status()).
			Dur("latency", elapsed).
			Str("URI", c.Request.URL.RequestURI()).
			Str("method", c.Request.Method).
			Int("size", c.Writer.Size()).
			Str("User-Agent", c.Request.UserAgent())

		if caller, ok := CallerFrom(c); ok {
			event = event.Uint("user_id", caller.ID)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Send()
	}
}

// Recovery turns a panic into a 500 envelope and logs the stack.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Msg("recovered from panic")
		abort(c, errPanic)
	})
}
