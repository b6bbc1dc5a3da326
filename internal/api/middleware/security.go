package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders adds security headers suited to a JSON API
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Powered-By", "")

		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		// Responses are data, never documents
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		// Chat history holds health data and must not be cached
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}
