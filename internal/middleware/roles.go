package middleware

import (
	"net/http"                    // HTTP status codes
	"myshoptools/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// RequireRoleMiddleware checks the user's role from the database on each
// request. The stored role wins over the token claim so a role change takes
// effect without waiting for token expiry.
func RequireRoleMiddleware(db *gorm.DB, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, userID).Error; err != nil {
			// If user not found or any error, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		// Check if user role is one of the allowed roles
		for _, role := range roles {
			if user.Role == role {
				c.Next() // Allowed, proceed to the next handler
				return
			}
		}
		// If role not allowed, abort with forbidden status
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	}
}

// AdminOnlyMiddleware restricts a route group to admin users
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return RequireRoleMiddleware(db, domain.RoleAdmin)
}
