package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the verified claim set of an access token issued by the
// external authority. It lives for one request and is never cached.
type Claims struct {
	jwt.RegisteredClaims

	// Permissions is the issuer's RBAC grant list, e.g. "post:drinks".
	// A token without the claim carries an empty set.
	Permissions []string `json:"permissions,omitempty"`
}

// Has reports whether perm is granted. Exact match only.
func (c Claims) Has(perm string) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
