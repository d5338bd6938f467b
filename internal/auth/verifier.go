package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"strings"
	"time"

	"coffee-shop/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// KeySource resolves a signing key by key id.
type KeySource interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// Verifier checks RS256 access tokens issued by a single trusted issuer.
type Verifier struct {
	keys     KeySource
	issuer   string
	audience string
	leeway   time.Duration
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewVerifier(cfg config.AuthConfig, keys KeySource) (*Verifier, error) {
	if keys == nil {
		return nil, errors.New("key source is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is required")
	}
	return &Verifier{
		keys:     keys,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   cfg.Leeway,
		clock:    time.Now,
	}, nil
}

/* ===================== VERIFY TOKEN ===================== */

// Verify validates a raw compact JWS and returns its claims.
// Every failure is an *Error.
func (v *Verifier) Verify(ctx context.Context, raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, errHeaderMissing()
	}
	if strings.Count(raw, ".") != 2 {
		return Claims{}, errMalformed("Authorization token is malformed.")
	}

	unverified, _, err := jwt.NewParser().ParseUnverified(raw, &Claims{})
	if err != nil {
		return Claims{}, NewError(ErrInvalidHeader, "invalid_header", "Unable to parse authentication token.")
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return Claims{}, NewError(ErrInvalidHeader, "invalid_header", "Authorization malformed.")
	}

	key, err := v.keys.Key(ctx, kid)
	if err != nil {
		if errors.Is(err, ErrKeySetUnavailable) {
			return Claims{}, NewError(ErrKeySetUnavailable, "jwks_unavailable", "Unable to load signing keys.")
		}
		return Claims{}, NewError(ErrKeyNotFound, "invalid_header", "Unable to find the appropriate key.")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.clock),
	)

	var claims Claims
	_, err = parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}

	if claims.Permissions == nil {
		claims.Permissions = []string{}
	}
	return claims, nil
}

func classify(err error) *Error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return NewError(ErrExpiredToken, "token_expired", "Token expired.")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return NewError(ErrInvalidSignature, "invalid_signature", "Token signature could not be verified.")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return NewError(ErrInvalidClaims, "invalid_claims", "Incorrect claims. Please, check the audience and issuer.")
	default:
		return NewError(ErrInvalidHeader, "invalid_header", "Unable to parse authentication token.")
	}
}
