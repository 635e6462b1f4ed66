package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/demand-desk-api/internal/models"
	appErrors "github.com/noah-isme/demand-desk-api/pkg/errors"
	"github.com/noah-isme/demand-desk-api/pkg/response"
)

// RequireRoles admits only callers whose token carries one of roles.
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
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireOperator restricts a route group to operator tokens.
func RequireOperator() gin.HandlerFunc {
	return RequireRoles(models.RoleOperator)
}

// RequireUser restricts a route group to submitter tokens.
func RequireUser() gin.HandlerFunc {
	return RequireRoles(models.RoleUser)
}
