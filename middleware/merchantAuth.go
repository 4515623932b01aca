package middleware

import (
	"net/http"
	"strings"

	"gutschein/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FirebaseAuthMiddleware verifies the merchant's Firebase ID token and puts
// firebaseUid and email on the context for the handlers behind it.
func FirebaseAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		idToken := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := utils.AuthClient.VerifyIDToken(c.Request.Context(), idToken)
		if err != nil {
			zap.L().Warn("firebase token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("firebaseUid", token.UID)
		if email, ok := token.Claims["email"].(string); ok {
			c.Set("email", email)
		}
		c.Next()
	}
}
