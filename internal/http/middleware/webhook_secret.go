package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const WebhookSecretHeader = "X-Vapi-Secret"

// RequireWebhookSecret checks the shared secret Vapi sends with server
// messages. An empty secret disables the check.
func RequireWebhookSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		got := c.GetHeader(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			slog.WarnContext(c.Request.Context(), "rejected webhook with bad secret",
				"path", c.Request.URL.Path,
				"has_secret", got != "")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}

		c.Next()
	}
}
