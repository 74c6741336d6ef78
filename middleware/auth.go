package middleware

import (
	"net/http"
	"strings"

	"godrive/identity"
	"godrive/utils"

	"github.com/gin-gonic/gin"
)

// Auth verifies the bearer token and stores the caller's identity on the
// request context.
func Auth(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(c, http.StatusUnauthorized, "missing auth token")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Error(c, http.StatusUnauthorized, "malformed auth header")
			c.Abort()
			return
		}

		ident, err := provider.Verify(c.Request.Context(), parts[1])
		if err != nil {
			utils.Error(c, http.StatusUnauthorized, "invalid or expired auth token")
			c.Abort()
			return
		}

		c.Set("user_id", ident.UserID)
		c.Set("email", ident.Email)
		c.Set("token", parts[1])
		c.Next()
	}
}
