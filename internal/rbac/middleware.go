package rbac

import (
	"coffee-shop/internal/auth"

	"github.com/gin-gonic/gin"
)

// Check returns nil when claims grant required. Matching is exact: there is
// no wildcard or hierarchy, and an empty grant list denies everything.
func Check(required string, claims auth.Claims) error {
	if !claims.Has(required) {
		return auth.InsufficientScope()
	}
	return nil
}

// RequirePermission allows the request only if the verified caller holds
// perm. It must run after auth.RequireAccessToken.
func RequirePermission(perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFrom(c.Request.Context())
		if !ok {
			auth.AbortWithError(c, auth.Unauthenticated())
			return
		}
		if err := Check(perm, claims); err != nil {
			auth.AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
