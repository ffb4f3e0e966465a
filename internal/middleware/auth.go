package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"csinventory/internal/config"
)

// RequireBearer guards /api/, /swagger and /docs with a static token list.
// Health and metrics endpoints stay open. With auth disabled, or with no
// tokens configured, every request passes.
func RequireBearer(cfg config.AuthConfig) gin.HandlerFunc {
	tokens := make([][]byte, 0, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, []byte(t))
		}
	}
	disabled := cfg.Disabled || len(tokens) == 0

	return func(c *gin.Context) {
		if disabled {
			c.Next()
			return
		}
		p := c.Request.URL.Path
		if !protectedPath(p) {
			c.Next()
			return
		}
		auth := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(auth, "Bearer ") {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		presented := []byte(strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
		for _, t := range tokens {
			if subtle.ConstantTimeCompare(presented, t) == 1 {
				c.Next()
				return
			}
		}
		abortUnauthorized(c, "invalid bearer token")
	}
}

func protectedPath(p string) bool {
	return strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/swagger") || p == "/docs"
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": msg,
	})
}
