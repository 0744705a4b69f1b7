// Package jwt provides the bearer-token guard used in front of the gateway's
// resource routes.
package jwt

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	infraerrors "github.com/jonesrussell/north-crm/infrastructure/errors"
)

const (
	principalKey = "principal"
	bearerPrefix = "Bearer "
)

type principalCtxKey struct{}

// Principal is the authenticated identity decoded from a bearer token.
type Principal struct {
	Subject string
}

// Middleware rejects requests without a valid bearer token signed with secret.
// On success the Principal is stored in both the gin context and the request
// context; on failure it writes a 401 envelope and aborts.
func Middleware(secret string) gin.HandlerFunc {
	return NewManager(secret, 0).Middleware()
}

// Middleware returns the guard bound to this manager's secret.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			infraerrors.Abort(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		if !strings.HasPrefix(authHeader, bearerPrefix) {
			infraerrors.Abort(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			infraerrors.Abort(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		principal, err := m.ValidateToken(tokenString)
		if err != nil {
			infraerrors.Abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Set(principalKey, principal)
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// GetPrincipal extracts the principal from the gin context
func GetPrincipal(c *gin.Context) (*Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}

	p, ok := v.(*Principal)
	return p, ok
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext returns the principal stored by the guard, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*Principal)
	return p, ok && p != nil
}
