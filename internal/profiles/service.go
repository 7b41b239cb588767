package profiles

import (
	"context"
	"errors"

	"github.com/profilehub/profilehub/internal/directory"
	"github.com/profilehub/profilehub/internal/filters"
	"github.com/profilehub/profilehub/pkg/logger"
)

// Service encapsulates profile business operations used by the handler layer.
type Service struct {
	repo  Repository
	cache *directory.CachedDirectory
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// WithProfileCache fronts Get with the directory's profile cache; lookups
// populate it on miss and SetAvatarKey refreshes the cached entry.
func (s *Service) WithProfileCache(c *directory.CachedDirectory) *Service {
	s.cache = c
	return s
}

// Search returns every profile carrying all the bound filters. An empty
// filter list matches everything.
func (s *Service) Search(ctx context.Context, fl []filters.ProfileFilter) ([]*Profile, error) {
	return s.repo.Search(ctx, fl)
}

// Get returns the profile or a domain not-found failure.
func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	if s.cache != nil {
		var p Profile
		if ok, err := s.cache.CachedProfile(ctx, id, &p); err == nil && ok {
			return &p, nil
		} else if err != nil {
			logger.Warnf("profile cache read failed for %s: %v", id, err)
		}
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if cerr := s.cache.CacheProfile(ctx, id, p); cerr != nil {
			logger.Warnf("profile cache write failed for %s: %v", id, cerr)
		}
	}
	return p, nil
}

// GetByOwner returns the profile owned by the given account.
func (s *Service) GetByOwner(ctx context.Context, ownerID string) (*Profile, error) {
	return s.repo.GetByOwner(ctx, ownerID)
}

// Create stores a new profile for the given owner.
func (s *Service) Create(ctx context.Context, p *Profile) (string, error) {
	if p == nil {
		return "", errors.New("profiles: nil profile")
	}
	return s.repo.Create(ctx, p)
}

// SetAvatarKey records the storage key of an uploaded avatar and refreshes
// the cached entry so readers never see the stale key for a full TTL.
func (s *Service) SetAvatarKey(ctx context.Context, id, key string) error {
	if err := s.repo.SetAvatarKey(ctx, id, key); err != nil {
		return err
	}
	if s.cache != nil {
		if p, err := s.repo.Get(ctx, id); err == nil {
			if cerr := s.cache.CacheProfile(ctx, id, p); cerr != nil {
				logger.Warnf("profile cache refresh failed for %s: %v", id, cerr)
			}
		}
	}
	return nil
}
