package server

import (
	"net"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"quote-api/internal/common/logger"
)

// devOrigins are appended to the allow-list outside production so the local
// frontend can call the API.
var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// SecurityHeaders attaches the response headers every answer carries,
// whatever the outcome.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Next()
	}
}

// CORS reflects an allow-listed origin and answers preflight requests with
// 204. Unknown origins get no allow header.
func CORS(allowedOrigins []string, production bool) gin.HandlerFunc {
	allowed := make([]string, 0, len(allowedOrigins)+len(devOrigins))
	allowed = append(allowed, allowedOrigins...)
	if !production {
		allowed = append(allowed, devOrigins...)
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		for _, o := range allowed {
			if o == origin {
				c.Header("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Header("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Header("Access-Control-Max-Age", "86400")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Recovery catches panics at the top of the chain, logs the stack server-side
// and answers with the generic French 500. Nothing internal leaks to the body.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic while handling request", map[string]interface{}{
					"panic": r,
					"path":  c.Request.URL.Path,
					"stack": string(debug.Stack()),
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": msgServerError,
				})
			}
		}()
		c.Next()
	}
}

// ClientKey derives the rate-limit key for a request: first forwarded-for
// entry, then the real-IP header, then the socket address. Falls back to a
// sentinel so an unidentifiable client still shares one bucket.
func ClientKey(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP
	}

	if c.Request.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil && host != "" {
			return host
		}
		return c.Request.RemoteAddr
	}

	return "unknown"
}
