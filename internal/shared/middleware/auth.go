package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-backend/pkg/jwt"
)

// AuthMiddleware verifies the JWT bearer token and resolves the acting user
// into the request context. Handlers read it once and pass an explicit
// actor id down into the services.
func AuthMiddleware(manager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(401, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(401, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := manager.ValidateToken(parts[1])
		if err != nil || claims.Type != "access" {
			c.JSON(401, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(401, gin.H{"error": "malformed user ID in token"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		if claims.Role != "" {
			c.Set("role", claims.Role)
		}

		c.Next()
	}
}

// GetUserID reads the authenticated user id placed in context by AuthMiddleware.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
