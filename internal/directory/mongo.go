package directory

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDirectory implements AccountDirectory on a MongoDB collection.
// Accounts are keyed by (provider, username); resolution upserts so a new
// external identity gets its record on first sight.
type MongoDirectory struct {
	col      *mongo.Collection
	provider string
}

// NewMongoDirectory creates a directory over the given collection. Provider
// is the issuer name stamped onto created accounts.
func NewMongoDirectory(col *mongo.Collection, provider string) *MongoDirectory {
	return &MongoDirectory{col: col, provider: provider}
}

func (d *MongoDirectory) GetAccount(ctx context.Context, u *User) (*Account, error) {
	if u == nil || u.Username == "" {
		return nil, nil
	}
	now := time.Now().UTC()
	filter := bson.M{"provider": d.provider, "username": u.Username}
	update := bson.M{
		"$set": bson.M{
			"email":     u.Email,
			"firstName": u.FirstName,
			"lastName":  u.LastName,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"provider":  d.provider,
			"username":  u.Username,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var acc Account
	if err := d.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&acc); err != nil {
		if err == mongo.ErrNoDocuments {
			// Upsert should always return a document; treat as unresolved.
			return nil, nil
		}
		return nil, err
	}
	return &acc, nil
}
