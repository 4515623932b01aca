package middleware

import (
	"net/http"
	"strings"

	"gutschein/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthAdminMiddleware guards the operator console routes. Tokens come
// from the admin login endpoint.
func JWTAuthAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		subject, err := utils.ExtractAdminSubject(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized admin access"})
			return
		}

		c.Set("adminEmail", subject)
		c.Set("isAdmin", true)
		c.Next()
	}
}
