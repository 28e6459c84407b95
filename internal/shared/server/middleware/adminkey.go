package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"partner-portal-backend/internal/shared/server/respond"
)

// AdminKey guards staff-only routes with a shared API key supplied in the
// X-Admin-Key header. An empty configured key disables the check, which is
// only acceptable in dev and local environments.
func AdminKey(key, env string) gin.HandlerFunc {
	required := strings.TrimSpace(key) != "" || env == "production" || env == "staging"

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if !required {
			c.Next()
			return
		}

		supplied := strings.TrimSpace(c.GetHeader("X-Admin-Key"))
		if supplied == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(key)) != 1 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid admin key", nil)
			return
		}
		c.Next()
	}
}
