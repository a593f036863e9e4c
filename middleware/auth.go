package middleware

import (
	"net/http"
	"strings"

	"github.com/Alidon256/Mindset-Pulse-sub000/helpers"

	"github.com/gin-gonic/gin"
)

// Authenticate verifies the bearer token and stores its claims under "claims".
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := helpers.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}

// Authorize allows only the listed roles.
func Authorize(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		val, ok := c.Get("claims")
		claims, isClaims := val.(*helpers.Claims)
		if !ok || !isClaims {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	}
}
