package oidc

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MintDevToken signs an HS256 token carrying the given claims, for local
// development and integration tests against the InsecureVerifier.
func MintDevToken(secret string, claims map[string]any, ttl time.Duration) (string, error) {
	mc := jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	for k, v := range claims {
		mc[k] = v
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString([]byte(secret))
}
