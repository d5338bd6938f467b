// Package authtest runs a throwaway token issuer for tests: an httptest
// server publishing a JWKS and helpers that mint RS256 access tokens.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Issuer struct {
	Server   *httptest.Server
	Issuer   string
	Audience string

	mu    sync.RWMutex
	kid   string
	key   *rsa.PrivateKey
	hits  atomic.Int32
	fails atomic.Bool
}

// NewIssuer starts an issuer whose JWKS lives at JWKSURL(). The server is
// closed when the test ends.
func NewIssuer(t testing.TB, audience string) *Issuer {
	t.Helper()
	i := &Issuer{Audience: audience}
	i.kid, i.key = newKey(t)
	i.Server = httptest.NewServer(http.HandlerFunc(i.serveJWKS))
	i.Issuer = i.Server.URL + "/"
	t.Cleanup(i.Server.Close)
	return i
}

func (i *Issuer) JWKSURL() string { return i.Server.URL + "/.well-known/jwks.json" }

// Hits is the number of JWKS requests served.
func (i *Issuer) Hits() int { return int(i.hits.Load()) }

// KeyID is the kid of the current signing key.
func (i *Issuer) KeyID() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.kid
}

// Fail makes the JWKS endpoint answer 503 until called with false.
func (i *Issuer) Fail(fail bool) { i.fails.Store(fail) }

// Rotate replaces the signing key; the old key is no longer published.
func (i *Issuer) Rotate(t testing.TB) {
	t.Helper()
	kid, key := newKey(t)
	i.mu.Lock()
	i.kid, i.key = kid, key
	i.mu.Unlock()
}

// Claims returns a valid claim set granting permissions.
func (i *Issuer) Claims(permissions ...string) jwt.MapClaims {
	now := time.Now()
	perms := make([]any, 0, len(permissions))
	for _, p := range permissions {
		perms = append(perms, p)
	}
	return jwt.MapClaims{
		"iss":         i.Issuer,
		"aud":         i.Audience,
		"sub":         "auth0|barista",
		"iat":         now.Unix(),
		"exp":         now.Add(time.Hour).Unix(),
		"permissions": perms,
	}
}

// Token mints a valid access token granting permissions.
func (i *Issuer) Token(t testing.TB, permissions ...string) string {
	t.Helper()
	return i.Sign(t, i.Claims(permissions...))
}

// Sign signs claims with the current key and kid.
func (i *Issuer) Sign(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	i.mu.RLock()
	kid, key := i.kid, i.key
	i.mu.RUnlock()
	return SignWith(t, key, kid, claims)
}

// SignWith signs claims with an arbitrary key; an empty kid omits the header.
func SignWith(t testing.TB, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	s, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// NewKey generates a throwaway RSA key.
func NewKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	_, key := newKey(t)
	return key
}

func newKey(t testing.TB) (string, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return uuid.NewString(), key
}

func (i *Issuer) serveJWKS(w http.ResponseWriter, r *http.Request) {
	i.hits.Add(1)
	if i.fails.Load() {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	if r.URL.Path != "/.well-known/jwks.json" {
		http.NotFound(w, r)
		return
	}

	i.mu.RLock()
	doc := JWKS(i.kid, &i.key.PublicKey)
	i.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

// JWKS renders a single-key JWKS document.
func JWKS(kid string, pub *rsa.PublicKey) []byte {
	doc, _ := json.Marshal(map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"use": "sig",
			"alg": "RS256",
			"kid": kid,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
	return doc
}
