package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mbellot/parley/internal/auth"
)

// BearerMiddleware rejects requests without a valid bearer token and stashes
// the authenticated identity in the gin context.
func BearerMiddleware(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credential"})
			return
		}
		claims, err := issuer.Validate(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Next()
	}
}
