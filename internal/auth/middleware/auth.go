package middleware

import (
	"net/http"
	"strings"

	"github.com/citizen-portaal/portaal-backend/internal/auth"
	"github.com/gin-gonic/gin"
)

// RequireUser validates the caller's bearer token and stores the identity on
// the context. Requests without a valid token are rejected with 401.
func RequireUser(verifier auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		auth.SetIdentity(c, id)
		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header.
// Browsers cannot set headers on EventSource, so event-stream requests may
// pass it as ?access_token= instead.
func extractToken(c *gin.Context) string {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return strings.TrimSpace(c.Query("access_token"))
	}
	return ""
}
