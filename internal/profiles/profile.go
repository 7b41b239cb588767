// Package profiles is the business collaborator the pipeline hands off to
// once identity and filters are resolved. Matching rules here are
// deliberately thin; the pipeline is the interesting part.
package profiles

import "time"

// Profile is a member profile that can be matched on category filters.
// Categories maps a category-group name (e.g. "Skill") to the category
// names the profile carries in that group.
type Profile struct {
	ID          string              `json:"id" bson:"_id,omitempty"`
	OwnerID     string              `json:"ownerId" bson:"ownerId"`
	DisplayName string              `json:"displayName" bson:"displayName"`
	Bio         string              `json:"bio,omitempty" bson:"bio,omitempty"`
	AvatarKey   string              `json:"avatarKey,omitempty" bson:"avatarKey,omitempty"`
	Categories  map[string][]string `json:"categories" bson:"categories"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updatedAt"`
}
