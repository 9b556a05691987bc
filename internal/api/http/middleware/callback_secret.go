package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/citizen-portaal/portaal-backend/internal/logging"
	"github.com/gin-gonic/gin"
)

// CallbackSecretHeader carries the shared secret on workflow engine callbacks.
const CallbackSecretHeader = "X-Analysis-Callback-Secret"

// SharedSecret rejects requests whose header does not match secret.
// An empty secret disables the check (local development).
func SharedSecret(header, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader(header)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			logging.NewLogger(c.Request.Context()).LogWarnf("callback.auth", "path=%s invalid callback secret", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: invalid callback secret"})
			return
		}
		c.Next()
	}
}
