package middleware

import (
	"strings"

	"ai-board-of-directors/backend/pkg/errors"
	"ai-board-of-directors/backend/pkg/jwt"
	"ai-board-of-directors/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuthMiddleware
const (
	ClaimsKey   = "claims"
	UserIDKey   = "userId"
	UserRoleKey = "userRole"
)

// TokenValidator is satisfied by *jwt.Service
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwt.JWTClaims, error)
}

// RequireRole returns a middleware that requires the user to have a specific role
func RequireRole(role jwt.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			_ = c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
			c.Abort()
			return
		}

		if !claims.HasRole(role) {
			_ = c.Error(errors.NewForbiddenError("INSUFFICIENT_ROLE", "Your role does not allow this operation"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// JWTAuthMiddleware checks that the request has a valid JWT and adds claims to the context.
// Browsers cannot set headers on a WebSocket handshake, so a "token" query parameter is accepted too.
func JWTAuthMiddleware(validator TokenValidator, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			_ = c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authorization header is required"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			log.Warn("Invalid JWT token", "error", err.Error(), "path", c.Request.URL.Path)
			_ = c.Error(errors.NewUnauthorizedError("INVALID_TOKEN", "Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, claims.UserID)
		c.Set(UserRoleKey, claims.Role)

		c.Next()
	}
}

// BearerToken extracts the raw token from the Authorization header or the token query parameter
func BearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}

// ClaimsFrom returns the claims stored by JWTAuthMiddleware
func ClaimsFrom(c *gin.Context) (*jwt.JWTClaims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*jwt.JWTClaims)
	return claims, ok
}
