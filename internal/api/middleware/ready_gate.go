package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/themobileprof/symptomchat-be/internal/chat"
	"github.com/themobileprof/symptomchat-be/internal/fallback"
)

type ReadinessChecker interface {
	Ready() bool
}

// RequireReady refuses requests with 503 while no trained model is loaded.
// The body tells the client to disable its input form.
func RequireReady(checker ReadinessChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker.Ready() {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":        fallback.GetNotReadyResponse(GetLanguage(c)).Content,
			"code":         chat.CodeNotReady,
			"disable_form": true,
			"history":      []interface{}{},
		})
	}
}
