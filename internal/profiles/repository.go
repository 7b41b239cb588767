package profiles

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/profilehub/profilehub/internal/filters"
	"github.com/profilehub/profilehub/internal/httperr"
)

// Repository defines profile persistence operations.
type Repository interface {
	Create(ctx context.Context, p *Profile) (string, error)
	Get(ctx context.Context, id string) (*Profile, error)
	GetByOwner(ctx context.Context, ownerID string) (*Profile, error)
	Search(ctx context.Context, fl []filters.ProfileFilter) ([]*Profile, error)
	SetAvatarKey(ctx context.Context, id, key string) error
}

// matches reports whether the profile carries every requested filter:
// each (group, name) pair must appear in the profile's category set, with
// the name compared case-insensitively.
func matches(p *Profile, fl []filters.ProfileFilter) bool {
	for _, f := range fl {
		found := false
		for _, name := range p.Categories[f.Group.String()] {
			if strings.EqualFold(name, f.Name) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MemoryRepo is an in-memory repository used for development and unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*Profile
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*Profile)}
}

func (m *MemoryRepo) Create(ctx context.Context, p *Profile) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.store[p.ID] = &cp
	return p.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.store[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, httperr.NotFoundf("profile %s does not exist", id)
}

func (m *MemoryRepo) GetByOwner(ctx context.Context, ownerID string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.OwnerID == ownerID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, httperr.NotFound("no profile for this account")
}

func (m *MemoryRepo) Search(ctx context.Context, fl []filters.ProfileFilter) ([]*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Profile, 0)
	for _, p := range m.store {
		if matches(p, fl) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryRepo) SetAvatarKey(ctx context.Context, id, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return httperr.NotFoundf("profile %s does not exist", id)
	}
	p.AvatarKey = key
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// MongoRepo implements Repository on a MongoDB collection.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (r *MongoRepo) Create(ctx context.Context, p *Profile) (string, error) {
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return "", err
	}
	return p.ID, nil
}

func (r *MongoRepo) Get(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, httperr.NotFoundf("profile %s does not exist", id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *MongoRepo) GetByOwner(ctx context.Context, ownerID string) (*Profile, error) {
	var p Profile
	if err := r.col.FindOne(ctx, bson.M{"ownerId": ownerID}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, httperr.NotFound("no profile for this account")
		}
		return nil, err
	}
	return &p, nil
}

func (r *MongoRepo) Search(ctx context.Context, fl []filters.ProfileFilter) ([]*Profile, error) {
	// Each filter becomes a case-insensitive membership condition on its
	// group's category array; all conditions must hold.
	conds := bson.A{}
	for _, f := range fl {
		conds = append(conds, bson.M{
			"categories." + f.Group.String(): bson.M{
				"$elemMatch": bson.M{"$regex": "^" + regexEscape(f.Name) + "$", "$options": "i"},
			},
		})
	}
	filter := bson.M{}
	if len(conds) > 0 {
		filter["$and"] = conds
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make([]*Profile, 0)
	for cur.Next(ctx) {
		var p Profile
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}

func (r *MongoRepo) SetAvatarKey(ctx context.Context, id, key string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"avatarKey": key, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return httperr.NotFoundf("profile %s does not exist", id)
	}
	return nil
}

func regexEscape(s string) string {
	special := `\.+*?()|[]{}^$`
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
