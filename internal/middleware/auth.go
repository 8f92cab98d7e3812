package middleware

import (
	"context"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
)

// TokenVerifier resolves a bearer token to a user ID.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (uint64, error)
}

// RequireAuth accepts the session cookie or an Authorization: Bearer token
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, verifier, bearerToken(c))
	}
}

// RequireSocketAuth accepts the session cookie or a ?token= query parameter,
// since browsers cannot set headers on a websocket upgrade.
func RequireSocketAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, verifier, c.Query("token"))
	}
}

func authenticate(c *gin.Context, verifier TokenVerifier, token string) {
	session := sessions.Default(c)
	if userID := session.Get(constants.ContextKeyUserID); userID != nil {
		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
		return
	}

	if token == "" || verifier == nil {
		apierrors.Unauthorized(c, "")
		c.Abort()
		return
	}

	userID, err := verifier.VerifyToken(c.Request.Context(), token)
	if err != nil {
		apierrors.Unauthorized(c, "Invalid or expired token")
		c.Abort()
		return
	}

	c.Set(constants.ContextKeyUserID, userID)
	c.Next()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
