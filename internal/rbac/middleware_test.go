package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"coffee-shop/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withClaims(perms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.Claims{Permissions: perms}
		claims.Subject = "auth0|manager"
		c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

func serve(t *testing.T, chain ...gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	chain = append(chain, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/x", chain...)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	var body map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(PermPostDrinks, auth.Claims{Permissions: []string{PermPostDrinks}}))

	err := Check(PermPostDrinks, auth.Claims{Permissions: []string{PermGetDrinksDetail}})
	require.ErrorIs(t, err, auth.ErrInsufficientScope)

	// No prefix or wildcard matching.
	assert.Error(t, Check(PermPostDrinks, auth.Claims{Permissions: []string{"post:*", "post"}}))
	assert.Error(t, Check(PermPostDrinks, auth.Claims{}))
}

func TestRequirePermission_Allows(t *testing.T) {
	w, _ := serve(t, withClaims(PermGetDrinksDetail, PermPatchDrinks), RequirePermission(PermPatchDrinks))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermission_MissingPermissionIs403(t *testing.T) {
	w, body := serve(t, withClaims(PermGetDrinksDetail), RequirePermission(PermDeleteDrinks))
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "insufficient_scope", body["code"])
	assert.Equal(t, "forbidden", body["message"])
	assert.Equal(t, false, body["success"])
}

func TestRequirePermission_EmptyGrantIs403(t *testing.T) {
	w, body := serve(t, withClaims(), RequirePermission(PermGetDrinksDetail))
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "insufficient_scope", body["code"])
}

func TestRequirePermission_NoClaimsIs401(t *testing.T) {
	w, body := serve(t, RequirePermission(PermPostDrinks))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthenticated", body["code"])
}
