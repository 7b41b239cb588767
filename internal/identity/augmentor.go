package identity

import (
	"context"
	"fmt"

	"github.com/profilehub/profilehub/internal/directory"
	"github.com/profilehub/profilehub/pkg/logger"
	"github.com/profilehub/profilehub/pkg/metrics"
)

// Augmentor resolves an externally authenticated identity to an internal
// account and injects the derived claims. Augmentation is idempotent and
// safe to invoke more than once per request.
type Augmentor struct {
	dir directory.AccountDirectory
}

func NewAugmentor(dir directory.AccountDirectory) *Augmentor {
	return &Augmentor{dir: dir}
}

// Augment mutates the identity in place:
//   - nil or unauthenticated identity: no-op (public endpoints are
//     legitimate); the directory is not called;
//   - profile-id claim already present: no-op;
//   - otherwise provider role claims are normalized into internal role
//     claims (the originals are removed, not kept), a transient user value
//     is built from the claim set, and the account directory is asked to
//     resolve it. A nil account leaves the identity untouched: downstream
//     code treats a missing profile-id claim as "no matching profile".
//
// Directory failures propagate unchanged; retry and caching policy belong
// to the directory, not here.
func (a *Augmentor) Augment(ctx context.Context, id *Identity) error {
	if id == nil || !id.Authenticated() {
		logger.Debugf("augment: skipping anonymous identity")
		return nil
	}
	if id.HasClaim(ClaimProfileID) {
		logger.Debugf("augment: identity already resolved")
		return nil
	}

	id.mapClaims(ClaimExternalRoles, ClaimRole)

	u := &directory.User{
		Username:  id.Name(),
		Email:     id.ClaimValue(ClaimEmail),
		FirstName: id.ClaimValue(ClaimGivenName),
		LastName:  id.ClaimValue(ClaimSurname),
	}
	acc, err := a.dir.GetAccount(ctx, u)
	if err != nil {
		return fmt.Errorf("resolve account for %q: %w", u.Username, err)
	}
	if acc == nil {
		logger.Debugf("augment: no account for %q", u.Username)
		return nil
	}
	// A concurrent augmentation may have resolved the identity while the
	// directory call was in flight; the add re-checks under the claim lock.
	if id.addClaimIfAbsent(ClaimProfileID, acc.ID) {
		metrics.AugmentationsResolved.Inc()
	}
	return nil
}
