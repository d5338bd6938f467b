package auth

import (
	"context"
	"errors"
)

type ctxKey int

const ctxClaims ctxKey = iota

// WithClaims attaches verified claims to the request context.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, c)
}

// ClaimsFrom returns the verified claims of the current request.
func ClaimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(ctxClaims).(Claims)
	return c, ok
}

func Subject(ctx context.Context) (string, error) {
	if c, ok := ClaimsFrom(ctx); ok && c.Subject != "" {
		return c.Subject, nil
	}
	return "", errors.New("subject not in context")
}
