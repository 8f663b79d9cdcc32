package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key the identity middleware populates.
const UserIDKey = "userID"

// IdentityMiddleware trusts the x-auth-user-id header injected by the
// upstream gateway, which has already verified the bearer token. Requests
// without it are rejected before reaching any handler.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("x-auth-user-id")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "missing caller identity",
			})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// CallerID returns the authenticated user id set by IdentityMiddleware.
func CallerID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
