// Package identity carries the per-request security context: an ordered
// claim bag plus the augmentor that resolves external identities to internal
// accounts.
package identity

import "sync"

// Claim types used across the pipeline. ClaimProfileID is the internal
// resolved identifier; its presence is the documented signal that identity
// resolution succeeded. ClaimExternalRoles is the provider-specific role
// claim that augmentation normalizes into ClaimRole.
const (
	ClaimSubject       = "subject"
	ClaimEmail         = "email"
	ClaimGivenName     = "given-name"
	ClaimSurname       = "surname"
	ClaimLocale        = "locale"
	ClaimIssuer        = "issuer"
	ClaimRole          = "role"
	ClaimProfileID     = "profile-id"
	ClaimExternalRoles = "external-roles"
)

// Claim is one typed fact attached to a request identity.
type Claim struct {
	Type  string
	Value string
}

// Identity is an ordered, mutable claim collection for a single request.
// Mutation goes through the narrow API below; callers never touch the
// underlying slice. All methods are safe for concurrent use, and each
// mutation is atomic: a claim is either fully present or fully absent to
// concurrent readers.
type Identity struct {
	mu            sync.Mutex
	claims        []Claim
	authenticated bool
	name          string
}

// New builds an identity from externally verified claims. Name is the
// identity's display name (the provider's preferred_username or name claim).
func New(name string, authenticated bool, claims ...Claim) *Identity {
	id := &Identity{authenticated: authenticated, name: name}
	id.claims = append(id.claims, claims...)
	return id
}

// Anonymous returns an unauthenticated identity with no claims.
func Anonymous() *Identity { return &Identity{} }

// Authenticated reports whether the identity was established by the external
// authentication layer.
func (id *Identity) Authenticated() bool {
	if id == nil {
		return false
	}
	id.mu.Lock()
	defer id.mu.Unlock()
	return id.authenticated
}

// Name returns the identity's display name.
func (id *Identity) Name() string {
	if id == nil {
		return ""
	}
	id.mu.Lock()
	defer id.mu.Unlock()
	return id.name
}

// AddClaim appends a claim.
func (id *Identity) AddClaim(claimType, value string) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.claims = append(id.claims, Claim{Type: claimType, Value: value})
}

// RemoveClaims removes every claim of the given type, preserving the order
// of the remainder.
func (id *Identity) RemoveClaims(claimType string) {
	id.mu.Lock()
	defer id.mu.Unlock()
	kept := id.claims[:0]
	for _, c := range id.claims {
		if c.Type != claimType {
			kept = append(kept, c)
		}
	}
	id.claims = kept
}

// HasClaim reports whether at least one claim of the given type exists.
func (id *Identity) HasClaim(claimType string) bool {
	id.mu.Lock()
	defer id.mu.Unlock()
	return id.hasClaimLocked(claimType)
}

func (id *Identity) hasClaimLocked(claimType string) bool {
	for _, c := range id.claims {
		if c.Type == claimType {
			return true
		}
	}
	return false
}

// ClaimValue returns the value of the first claim of the given type.
func (id *Identity) ClaimValue(claimType string) string {
	if id == nil {
		return ""
	}
	id.mu.Lock()
	defer id.mu.Unlock()
	for _, c := range id.claims {
		if c.Type == claimType {
			return c.Value
		}
	}
	return ""
}

// Claims returns the values of every claim of the given type, in order.
func (id *Identity) Claims(claimType string) []string {
	id.mu.Lock()
	defer id.mu.Unlock()
	var out []string
	for _, c := range id.claims {
		if c.Type == claimType {
			out = append(out, c.Value)
		}
	}
	return out
}

// All returns a snapshot of every claim in order.
func (id *Identity) All() []Claim {
	id.mu.Lock()
	defer id.mu.Unlock()
	out := make([]Claim, len(id.claims))
	copy(out, id.claims)
	return out
}

// addClaimIfAbsent adds a claim only when no claim of that type exists yet.
// The check and the add happen under one lock so the at-most-one invariant
// holds under concurrent augmentation paths.
func (id *Identity) addClaimIfAbsent(claimType, value string) bool {
	id.mu.Lock()
	defer id.mu.Unlock()
	if id.hasClaimLocked(claimType) {
		return false
	}
	id.claims = append(id.claims, Claim{Type: claimType, Value: value})
	return true
}

// mapClaims rewrites every claim of fromType into toType, preserving values
// and order, and drops the originals. The whole rewrite is one atomic step.
func (id *Identity) mapClaims(fromType, toType string) {
	id.mu.Lock()
	defer id.mu.Unlock()
	for i, c := range id.claims {
		if c.Type == fromType {
			id.claims[i] = Claim{Type: toType, Value: c.Value}
		}
	}
}
