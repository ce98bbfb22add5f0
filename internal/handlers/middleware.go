package handlers

import (
	"net/http"
	"strings"

	"github.com/SAP-F-2025/dump-practice-service/internal/auth"
	"github.com/SAP-F-2025/dump-practice-service/internal/services"
	"github.com/gin-gonic/gin"
)

// Gin context keys set by AuthMiddleware
const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

// AuthMiddleware resolves the bearer token into an auth.Identity and stores
// it on the request context.
func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing bearer token",
			})
			return
		}

		identity, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			status := http.StatusUnauthorized
			if !services.IsUnauthorized(err) {
				status = http.StatusInternalServerError
			}
			c.AbortWithStatusJSON(status, ErrorResponse{
				Message: "Authentication failed",
				Details: err.Error(),
			})
			return
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))
		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextUserRole, string(identity.Role))
		c.Next()
	}
}

// AdminMiddleware rejects callers without the admin role. It must run after
// AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.FromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			return
		}
		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Admin role required",
			})
			return
		}
		c.Next()
	}
}
