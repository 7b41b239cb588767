package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/profilehub/profilehub/internal/directory"
	"github.com/profilehub/profilehub/internal/identity"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier implements Verifier
type fakeVerifier struct{}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	if raw == "goodtoken" {
		return &fakeToken{data: map[string]interface{}{
			"sub":                "user1",
			"preferred_username": "alice",
			"email":              "alice@example.com",
			"given_name":         "Alice",
			"family_name":        "Smith",
			"iss":                "https://issuer.example.com",
			"roles":              []interface{}{"admin"},
		}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

type stubDirectory struct {
	acc *directory.Account
}

func (d *stubDirectory) GetAccount(ctx context.Context, u *directory.User) (*directory.Account, error) {
	return d.acc, nil
}

func authRouter(dir directory.AccountDirectory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	g.GET("/", Auth(&fakeVerifier{}, identity.NewAugmentor(dir)), func(c *gin.Context) {
		id := IdentityFromContext(c)
		c.JSON(http.StatusOK, gin.H{
			"authenticated": id.Authenticated(),
			"profileId":     id.ClaimValue(identity.ClaimProfileID),
			"roles":         id.Claims(identity.ClaimRole),
		})
	})
	return g
}

func TestAuthNoHeaderYieldsAnonymous(t *testing.T) {
	g := authRouter(&stubDirectory{})
	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"authenticated":false`)
}

func TestAuthInvalidTokenYieldsAnonymous(t *testing.T) {
	g := authRouter(&stubDirectory{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer badtoken")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"authenticated":false`)
}

func TestAuthValidTokenResolvesIdentity(t *testing.T) {
	g := authRouter(&stubDirectory{acc: &directory.Account{ID: "acc-42"}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer goodtoken")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"authenticated":true`)
	require.Contains(t, w.Body.String(), `"profileId":"acc-42"`)
	require.Contains(t, w.Body.String(), `"roles":["admin"]`)
}

func TestAuthUnresolvedAccountStaysAuthenticated(t *testing.T) {
	g := authRouter(&stubDirectory{acc: nil})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer goodtoken")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"authenticated":true`)
	require.Contains(t, w.Body.String(), `"profileId":""`)
}

func TestIdentityFromClaimsKeycloakRealmRoles(t *testing.T) {
	id := identityFromClaims(map[string]interface{}{
		"sub": "u1",
		"realm_access": map[string]interface{}{
			"roles": []interface{}{"viewer", "editor"},
		},
	})
	require.Equal(t, []string{"viewer", "editor"}, id.Claims(identity.ClaimExternalRoles))
	require.Equal(t, "u1", id.Name())
}
