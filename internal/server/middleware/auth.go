package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smallflock/coopkeeper/internal/auth"
)

const identityKey = "coopkeeper.identity"

// RequireAuth resolves the caller's bearer token through the verifier and
// stores the identity on the request context. Every failure, including the
// auth service being unreachable, aborts with 401 so unauthenticated callers
// learn nothing about internal state.
func RequireAuth(verifier auth.Verifier, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		identity, err := verifier.GetUser(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			logger.Warn("token verification failed",
				zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(identityKey, *identity)
		c.Next()
	}
}

// Identity returns the authenticated caller stored by RequireAuth.
func Identity(c *gin.Context) (auth.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok
}
