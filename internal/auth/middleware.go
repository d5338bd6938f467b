package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"

// TokenVerifier is the part of *Verifier the middleware needs.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (Claims, error)
}

// RequireAccessToken verifies the bearer token and injects the claims into
// the request context. It does not check permissions; that belongs to
// internal/rbac.
func RequireAccessToken(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := BearerToken(c.GetHeader(authorizationHeader))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		claims, err := v.Verify(c.Request.Context(), tok)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))

		// The request logger reads the subject from the gin context.
		c.Set("subject", claims.Subject)

		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errHeaderMissing()
	}
	parts := strings.Fields(header)
	switch {
	case !strings.EqualFold(parts[0], "bearer"):
		return "", errMalformed(`Authorization header must start with "Bearer".`)
	case len(parts) == 1:
		return "", errMalformed("Token not found.")
	case len(parts) > 2:
		return "", errMalformed("Authorization header must be bearer token.")
	}
	return parts[1], nil
}

// AbortWithError writes the structured auth failure body and stops the chain.
// Errors that are not *Error are reported as a generic 500.
func AbortWithError(c *gin.Context, err error) {
	var ae *Error
	if !errors.As(err, &ae) {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   http.StatusInternalServerError,
			"message": "internal server error",
		})
		return
	}
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(ae.Status, gin.H{
		"success":     false,
		"error":       ae.Status,
		"message":     statusMessage(ae.Status),
		"code":        ae.Code,
		"description": ae.Description,
	})
}

func statusMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	default:
		return "internal server error"
	}
}
