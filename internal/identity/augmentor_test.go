package identity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/profilehub/profilehub/internal/directory"
)

type fakeDirectory struct {
	mu    sync.Mutex
	calls int
	last  *directory.User
	acc   *directory.Account
	err   error
}

func (d *fakeDirectory) GetAccount(ctx context.Context, u *directory.User) (*directory.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.last = u
	return d.acc, d.err
}

func authedIdentity() *Identity {
	return New("alice", true,
		Claim{Type: ClaimSubject, Value: "sub-1"},
		Claim{Type: ClaimEmail, Value: "alice@example.com"},
		Claim{Type: ClaimGivenName, Value: "Alice"},
		Claim{Type: ClaimSurname, Value: "Smith"},
	)
}

func TestAugmentResolvesAccount(t *testing.T) {
	dir := &fakeDirectory{acc: &directory.Account{ID: "acc-1"}}
	aug := NewAugmentor(dir)
	id := authedIdentity()

	require.NoError(t, aug.Augment(context.Background(), id))
	require.Equal(t, "acc-1", id.ClaimValue(ClaimProfileID))
	require.Equal(t, "alice", dir.last.Username)
	require.Equal(t, "alice@example.com", dir.last.Email)
	require.Equal(t, "Alice", dir.last.FirstName)
	require.Equal(t, "Smith", dir.last.LastName)
}

func TestAugmentIsIdempotent(t *testing.T) {
	dir := &fakeDirectory{acc: &directory.Account{ID: "acc-1"}}
	aug := NewAugmentor(dir)
	id := authedIdentity()

	require.NoError(t, aug.Augment(context.Background(), id))
	once := id.All()

	require.NoError(t, aug.Augment(context.Background(), id))
	require.Equal(t, once, id.All(), "second augmentation must not change the claim set")
	require.Equal(t, 1, dir.calls, "resolved identity must not hit the directory again")
	require.Len(t, id.Claims(ClaimProfileID), 1)
}

func TestAugmentNoopOnAnonymous(t *testing.T) {
	dir := &fakeDirectory{acc: &directory.Account{ID: "acc-1"}}
	aug := NewAugmentor(dir)

	require.NoError(t, aug.Augment(context.Background(), nil))

	anon := Anonymous()
	require.NoError(t, aug.Augment(context.Background(), anon))
	require.Empty(t, anon.All())
	require.Equal(t, 0, dir.calls, "anonymous augmentation must not call the directory")
}

func TestAugmentMapsExternalRoles(t *testing.T) {
	dir := &fakeDirectory{acc: &directory.Account{ID: "acc-1"}}
	aug := NewAugmentor(dir)
	id := New("alice", true,
		Claim{Type: ClaimExternalRoles, Value: "admin"},
		Claim{Type: ClaimExternalRoles, Value: "moderator"},
	)

	require.NoError(t, aug.Augment(context.Background(), id))
	require.Equal(t, []string{"admin", "moderator"}, id.Claims(ClaimRole))
	require.Empty(t, id.Claims(ClaimExternalRoles), "mapping is a conversion, not additive")
}

func TestAugmentLeavesIdentityWhenUnresolved(t *testing.T) {
	dir := &fakeDirectory{acc: nil}
	aug := NewAugmentor(dir)
	id := authedIdentity()

	require.NoError(t, aug.Augment(context.Background(), id))
	require.False(t, id.HasClaim(ClaimProfileID))
}

func TestAugmentPropagatesDirectoryErrors(t *testing.T) {
	boom := errors.New("directory unreachable")
	dir := &fakeDirectory{err: boom}
	aug := NewAugmentor(dir)
	id := authedIdentity()

	err := aug.Augment(context.Background(), id)
	require.ErrorIs(t, err, boom)
	require.False(t, id.HasClaim(ClaimProfileID))
	require.Equal(t, 1, dir.calls, "no retries")
}

func TestAugmentConcurrentKeepsSingleProfileClaim(t *testing.T) {
	dir := &fakeDirectory{acc: &directory.Account{ID: "acc-1"}}
	aug := NewAugmentor(dir)
	id := authedIdentity()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = aug.Augment(context.Background(), id)
		}()
	}
	wg.Wait()
	require.Len(t, id.Claims(ClaimProfileID), 1, "at most one profile-id claim ever")
}
