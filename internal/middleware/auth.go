package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/getdone/api/internal/auth"
	"github.com/getdone/api/internal/constants"
	apierrors "github.com/getdone/api/internal/errors"
)

// RequireAuth gates a route behind a bearer JWT. A missing token yields
// 401; a present but invalid or expired token yields 403.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apierrors.Unauthorized(c, "Token not provided")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			apierrors.Unauthorized(c, "Token not provided")
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			apierrors.Forbidden(c, "Invalid token")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, claims.UserID)
		c.Set(constants.ContextKeyUserEmail, claims.Email)
		c.Next()
	}
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
	default:
		return 0, false
	}
}
