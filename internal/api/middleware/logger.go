package middleware

import (
	"strconv"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/choirhub/choir-api/internal/metrics"
)

// Logger writes one access log line per request through zap.
func Logger(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		if skip[ctx.Request.URL.Path] {
			return
		}

		fields := []zap.Field{
			zap.String("request_id", requestid.Get(ctx)),
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", ctx.ClientIP()),
		}
		if userID := ctx.GetUint(CtxKeyUserID); userID != 0 {
			fields = append(fields, zap.Uint("user_id", userID))
		}

		switch status := ctx.Writer.Status(); {
		case status >= 500:
			zap.L().Error("request", fields...)
		case status >= 400:
			zap.L().Warn("request", fields...)
		default:
			zap.L().Info("request", fields...)
		}
	}
}

// Metrics records request counts and latency per route template.
func Metrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.HTTPRequests.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(ctx.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
