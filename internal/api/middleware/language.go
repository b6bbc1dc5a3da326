package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/themobileprof/symptomchat-be/internal/language"
)

const languageKey = "lang"

// Language picks the reply language from the "lang" query parameter, then
// Accept-Language, then the default.
func Language(lm *language.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var result language.ValidationResult
		if q := c.Query("lang"); q != "" {
			result = lm.Validate(q)
		} else {
			result = lm.Negotiate(c.GetHeader("Accept-Language"))
		}
		c.Set(languageKey, result.Code)
		c.Header("Content-Language", result.Code)
		c.Next()
	}
}

// GetLanguage returns the language chosen by Language
func GetLanguage(c *gin.Context) string {
	if lang := c.GetString(languageKey); lang != "" {
		return lang
	}
	return language.DefaultLanguage
}
