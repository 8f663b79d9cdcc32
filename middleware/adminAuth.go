package middleware

import (
	"crypto/subtle"
	"net/http"

	"coverly/config"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware guards admin endpoints with the configured API key.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("x-admin-key")
		expected := config.AppConfig.AdminAPIKey
		if expected == "" || subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "forbidden",
				"message": "admin access required",
			})
			return
		}
		c.Next()
	}
}
