package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/anganwadi-sewa/anganwadi-api/internal/models"
	appErrors "github.com/anganwadi-sewa/anganwadi-api/pkg/errors"
	"github.com/anganwadi-sewa/anganwadi-api/pkg/response"
)

// RequireRoles enforces that the authenticated account holds one of the
// allowed roles. Requests without claims are rejected as unauthorized,
// authenticated requests with the wrong role as forbidden.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireCapability enforces that the token carries the given access
// grant. SUPERADMIN bypasses the capability check.
func RequireCapability(cap models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if claims.Role == models.RoleSuperAdmin || claims.HasCapability(cap) {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
