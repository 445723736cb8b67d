package web

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/ArkLabsHQ/sentinel/internal/interface/web/types"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// BearerAuth rejects requests whose bearer token does not match secret.
// Every request passes when secret is empty.
func BearerAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.Error{Error: "unauthorized"})
			return
		}
		c.Next()
	}
}

// RequestLogger logs every request at debug level, failures at warn.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.WithError(c.Errors.Last().Err).Warn("request failed")
			return
		}
		entry.Debug("request served")
	}
}

// SentryMiddleware reports server side errors that happened during request
// handling to Sentry.
func SentryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError {
			return
		}
		for _, err := range c.Errors {
			sentry.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("method", c.Request.Method)
				scope.SetTag("path", c.FullPath())
				scope.SetTag("status", http.StatusText(c.Writer.Status()))
				scope.SetTag("user-agent", c.Request.UserAgent())
				scope.SetExtra("latency", time.Since(start).String())
				scope.SetRequest(c.Request)

				sentry.CaptureException(err.Err)
			})
		}
	}
}
