// Package directory resolves external identities to internally owned account
// records. The directory owns the record lifecycle; the request pipeline only
// asks for resolution and reads the result.
package directory

import (
	"context"
	"time"
)

// Account is the internally owned record for one external identity.
type Account struct {
	ID        string     `bson:"_id,omitempty" json:"id"`
	Provider  string     `bson:"provider" json:"provider"`
	Username  string     `bson:"username" json:"username"`
	BannedAt  *time.Time `bson:"bannedAt,omitempty" json:"bannedAt,omitempty"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// User is the transient per-request value built from claims. It is passed
// into resolution and discarded; the directory may use it to create a record
// the first time an external identity is seen.
type User struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// AccountDirectory resolves (or creates) the account for an external user.
// A nil account with a nil error means "no matching account"; callers must
// not treat that as a failure.
type AccountDirectory interface {
	GetAccount(ctx context.Context, u *User) (*Account, error)
}
