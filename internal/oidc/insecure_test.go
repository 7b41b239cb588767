package oidc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInsecureVerifierRoundTrip(t *testing.T) {
	raw, err := MintDevToken("test-secret", map[string]any{
		"sub":                "user-1",
		"preferred_username": "alice",
		"email":              "alice@example.com",
	}, time.Minute)
	require.NoError(t, err)

	token, err := NewInsecureVerifier().Verify(context.Background(), raw)
	require.NoError(t, err)

	var claims map[string]interface{}
	require.NoError(t, token.Claims(&claims))
	require.Equal(t, "user-1", claims["sub"])
	require.Equal(t, "alice", claims["preferred_username"])
}

func TestInsecureVerifierRejectsGarbage(t *testing.T) {
	_, err := NewInsecureVerifier().Verify(context.Background(), "not-a-jwt")
	require.Error(t, err)
}
