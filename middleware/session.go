package middleware

import (
	"net/http"
	"strings"

	"cakebox/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionAuthMiddleware validates the widget session token and stores the
// session ID on the request context for downstream handlers.
func SessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := utils.GetLogger()

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing session token"})
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		sessionID, err := utils.ExtractSessionIDFromToken(tokenString)
		if err != nil {
			logger.Warn("Rejected invalid session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session token"})
			return
		}

		c.Set("sessionID", sessionID)
		c.Next()
	}
}
