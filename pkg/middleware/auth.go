package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/profilehub/profilehub/internal/identity"
	"github.com/profilehub/profilehub/pkg/logger"
)

// ContextIdentityKey is where the resolved identity lives on the gin context.
const ContextIdentityKey = "identity"

// Token is the minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Auth returns a Gin middleware that turns a Bearer token into a resolved
// internal identity. A missing or invalid token yields an anonymous
// identity, not an error: public endpoints are legitimate and augmentation
// no-ops on unauthenticated identities. An augmentation failure is attached
// to the context and aborts, so the shielding middleware owns the response.
func Auth(ver Verifier, aug *identity.Augmentor) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identityFromRequest(c, ver)
		if aug != nil {
			if err := aug.Augment(c.Request.Context(), id); err != nil {
				_ = c.Error(err)
				c.Abort()
				return
			}
		}
		c.Set(ContextIdentityKey, id)
		c.Next()
	}
}

// IdentityFromContext returns the request identity, or an anonymous one when
// the auth middleware did not run.
func IdentityFromContext(c *gin.Context) *identity.Identity {
	if v, ok := c.Get(ContextIdentityKey); ok {
		if id, ok := v.(*identity.Identity); ok {
			return id
		}
	}
	return identity.Anonymous()
}

func identityFromRequest(c *gin.Context, ver Verifier) *identity.Identity {
	auth := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" || ver == nil {
		return identity.Anonymous()
	}
	token, err := ver.Verify(c.Request.Context(), strings.TrimSpace(raw))
	if err != nil {
		logger.Debugf("token verification failed: %v", err)
		return identity.Anonymous()
	}
	var claims map[string]interface{}
	if err := token.Claims(&claims); err != nil {
		logger.Debugf("failed to parse claims: %v", err)
		return identity.Anonymous()
	}
	return identityFromClaims(claims)
}

// identityFromClaims maps verified OIDC claims onto the internal claim bag.
// Provider role claims land under the external-roles type; augmentation
// converts them to internal role claims.
func identityFromClaims(claims map[string]interface{}) *identity.Identity {
	str := func(key string) string {
		v, _ := claims[key].(string)
		return v
	}
	name := str("preferred_username")
	if name == "" {
		name = str("name")
	}
	if name == "" {
		name = str("sub")
	}

	id := identity.New(name, true)
	pairs := []struct{ claimType, key string }{
		{identity.ClaimSubject, "sub"},
		{identity.ClaimEmail, "email"},
		{identity.ClaimGivenName, "given_name"},
		{identity.ClaimSurname, "family_name"},
		{identity.ClaimLocale, "locale"},
		{identity.ClaimIssuer, "iss"},
	}
	for _, p := range pairs {
		if v := str(p.key); v != "" {
			id.AddClaim(p.claimType, v)
		}
	}
	for _, role := range providerRoles(claims) {
		id.AddClaim(identity.ClaimExternalRoles, role)
	}
	return id
}

// providerRoles digs the provider-specific role list out of the claim set:
// either a top-level "roles" array or Keycloak's realm_access.roles.
func providerRoles(claims map[string]interface{}) []string {
	var out []string
	collect := func(v interface{}) {
		if arr, ok := v.([]interface{}); ok {
			for _, e := range arr {
				if s, ok := e.(string); ok && s != "" {
					out = append(out, s)
				}
			}
		}
	}
	collect(claims["roles"])
	if ra, ok := claims["realm_access"].(map[string]interface{}); ok {
		collect(ra["roles"])
	}
	return out
}
