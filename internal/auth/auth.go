// Package auth is the boundary to the external identity provider. The real
// provider stays outside this codebase; the service only depends on the
// narrow IdentityProvider interface.
package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"geoquiz/internal/errors"
)

const identityKey = "auth.identity"

type Identity struct {
	UserID    string
	Anonymous bool
}

// IdentityProvider validates a session token and resolves the identity
// behind it.
type IdentityProvider interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// StaticProvider maps bearer tokens to user IDs. Development and test use
// only.
type StaticProvider map[string]string

func (p StaticProvider) Verify(_ context.Context, token string) (Identity, error) {
	userID, ok := p[token]
	if !ok {
		return Identity{}, errors.New(errors.CodeUnauthenticated, errors.WithMessagef("unknown token"))
	}

	return Identity{UserID: userID}, nil
}

// Middleware resolves the request identity from the Authorization header.
// With a nil provider every request passes through as anonymous; with a
// provider set, a present-but-invalid token is rejected while a missing
// token stays anonymous (guest play is allowed).
func Middleware(p IdentityProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p == nil {
			c.Set(identityKey, Identity{Anonymous: true})
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Set(identityKey, Identity{Anonymous: true})
			c.Next()
			return
		}

		id, err := p.Verify(c.Request.Context(), token)
		if err != nil {
			e := errors.Convert(err)
			c.AbortWithStatusJSON(e.HTTPStatusCode(), gin.H{"error": e})
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// FromContext returns the identity the middleware resolved.
func FromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}

	id, ok := v.(Identity)
	return id, ok
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
