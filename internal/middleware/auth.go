package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/souqly/backend/internal/utils"
)

// Context keys set by the auth middleware
const (
	ContextUserID  = "user_id"
	ContextPhone   = "phone"
	ContextRole    = "role"
	ContextIsStaff = "is_staff"
)

// AuthMiddleware verifies JWT tokens and adds user info to context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware populates user info when a valid token is present
// but lets anonymous requests through. Listing reads use it: staff callers
// see unapproved listings, everyone else gets the public view.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString != "" {
			if claims, err := utils.ValidateToken(tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// StaffMiddleware ensures the user has staff privileges
func StaffMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		isStaff, exists := c.Get(ContextIsStaff)
		if !exists || !isStaff.(bool) {
			c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action."})
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserID returns the authenticated user's id, if any
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// IsStaff reports whether the request carries staff credentials
func IsStaff(c *gin.Context) bool {
	v, exists := c.Get(ContextIsStaff)
	if !exists {
		return false
	}
	staff, _ := v.(bool)
	return staff
}

func setClaims(c *gin.Context, claims *utils.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextPhone, claims.Phone)
	c.Set(ContextRole, claims.Role)
	c.Set(ContextIsStaff, claims.IsStaff)
}

// extractToken gets the token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	parts := strings.Split(bearerToken, " ")
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}
