package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Keys shared with the HTTP middleware through the gin context
const (
	GinRequestIDKey = "request_id"
	GinLoggerKey    = "logger"
	GinUserIDKey    = "user_id"
)

const accessLogMessage = "Request completed"

// AccessLog writes one entry per request once the handler chain returns.
// Before that it builds the request logger (request_id, method, path) and
// puts it on both contexts, so services log under the same request_id.
func AccessLog(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()
		req := c.Request

		ctx, log := WithRequestID(req.Context(), base, c.GetString(GinRequestIDKey))
		log = log.With(zap.String("method", req.Method), zap.String("path", req.URL.Path))
		c.Request = req.WithContext(WithContext(ctx, log))
		c.Set(GinLoggerKey, log)

		c.Next()

		status := c.Writer.Status()
		fields := append(make([]zap.Field, 0, 7),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(began)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		)
		if q := req.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if user := c.GetString(GinUserIDKey); user != "" {
			fields = append(fields, zap.String("user_id", user))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}
		log.Log(statusLevel(status), accessLogMessage, fields...)
	}
}

// statusLevel logs server faults as errors and client faults as warnings
func statusLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// Recovery answers a handler panic with a 500 envelope and logs the stack
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			base.Error("Panic recovered",
				zap.String("request_id", c.GetString(GinRequestIDKey)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", r),
				zap.Stack("stacktrace"),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   gin.H{"code": "INTERNAL_ERROR", "message": "Internal server error"},
			})
		}()
		c.Next()
	}
}

// FromGin returns the request logger set by AccessLog, or a no-op logger
func FromGin(c *gin.Context) *zap.Logger {
	if log, ok := c.Value(GinLoggerKey).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}
