package directory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/profilehub/profilehub/pkg/logger"
)

// DefaultCacheTTL is used when a configured expiration is zero or negative.
const DefaultCacheTTL = 5 * time.Minute

// CachedDirectory fronts an AccountDirectory with a Redis cache. Accounts
// are stored as JSON under "account:<provider-scoped username>"; profile
// projections use a separate prefix and TTL so the two expirations can be
// tuned independently. Cache failures degrade to the underlying directory.
type CachedDirectory struct {
	next       AccountDirectory
	client     *redis.Client
	accountTTL time.Duration
	profileTTL time.Duration
}

// NewCachedDirectory wraps next with a Redis cache. Zero TTLs fall back to
// the five-minute default.
func NewCachedDirectory(next AccountDirectory, client *redis.Client, accountTTL, profileTTL time.Duration) *CachedDirectory {
	if accountTTL <= 0 {
		accountTTL = DefaultCacheTTL
	}
	if profileTTL <= 0 {
		profileTTL = DefaultCacheTTL
	}
	return &CachedDirectory{next: next, client: client, accountTTL: accountTTL, profileTTL: profileTTL}
}

// AccountTTL returns the effective account cache expiration.
func (d *CachedDirectory) AccountTTL() time.Duration { return d.accountTTL }

// ProfileTTL returns the effective profile cache expiration.
func (d *CachedDirectory) ProfileTTL() time.Duration { return d.profileTTL }

func accountKey(username string) string { return "account:" + username }

func (d *CachedDirectory) GetAccount(ctx context.Context, u *User) (*Account, error) {
	if u == nil || u.Username == "" {
		return d.next.GetAccount(ctx, u)
	}
	key := accountKey(u.Username)
	if b, err := d.client.Get(ctx, key).Bytes(); err == nil {
		var acc Account
		if jerr := json.Unmarshal(b, &acc); jerr == nil {
			return &acc, nil
		}
		// corrupt entry: drop it and fall through to the directory
		_ = d.client.Del(ctx, key).Err()
	} else if err != redis.Nil {
		logger.Warnf("account cache read failed for %s: %v", key, err)
	}

	acc, err := d.next.GetAccount(ctx, u)
	if err != nil || acc == nil {
		// negative results are not cached; that policy belongs here, not in
		// the augmentor
		return acc, err
	}
	if b, jerr := json.Marshal(acc); jerr == nil {
		if serr := d.client.Set(ctx, key, b, d.accountTTL).Err(); serr != nil {
			logger.Warnf("account cache write failed for %s: %v", key, serr)
		}
	}
	return acc, nil
}

// CacheProfile stores a profile projection under the profile TTL.
func (d *CachedDirectory) CacheProfile(ctx context.Context, id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return d.client.Set(ctx, "profile:"+id, b, d.profileTTL).Err()
}

// CachedProfile loads a previously cached profile projection into v.
// Returns false when the entry is missing or expired.
func (d *CachedDirectory) CachedProfile(ctx context.Context, id string, v any) (bool, error) {
	b, err := d.client.Get(ctx, "profile:"+id).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, err
	}
	return true, nil
}
