package middleware

import (
	"campus_events/internal/domain" // Importing domain models
	"net/http"                      // HTTP status codes
	"slices"                        // Slice helpers
	"strings"                       // String joining

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// RequireRole checks the user's role from the database on each request,
// so a role change takes effect before the token expires.
func RequireRole(db *gorm.DB, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(ContextUserID) // Get userID from context
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User
		if err := db.First(&user, userID).Error; err != nil {
			// Deleted accounts keep valid tokens until expiry
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !slices.Contains(roles, user.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access restricted to " + roleList(roles)})
			return
		}
		c.Set(ContextRole, user.Role)
		c.Set(ContextUser, user)
		c.Next()
	}
}

func roleList(roles []string) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r + "s"
	}
	return strings.Join(names, ", ")
}
