package filters

import "strings"

// CategoryGroup is a closed classification axis used for filtering profiles.
type CategoryGroup int

const (
	Skill CategoryGroup = iota
	Language
	Gender
	Interest
	Location
	AgeRange
)

// String returns the stable textual name of the group.
func (g CategoryGroup) String() string {
	switch g {
	case Skill:
		return "Skill"
	case Language:
		return "Language"
	case Gender:
		return "Gender"
	case Interest:
		return "Interest"
	case Location:
		return "Location"
	case AgeRange:
		return "AgeRange"
	}
	return "Unknown"
}

// catalog maps lower-cased group names to their enum value. Lookup is
// case-insensitive; keys outside this set never match.
var catalog = map[string]CategoryGroup{
	"skill":    Skill,
	"language": Language,
	"gender":   Gender,
	"interest": Interest,
	"location": Location,
	"agerange": AgeRange,
}

// LookupGroup resolves a textual group name case-insensitively.
func LookupGroup(name string) (CategoryGroup, bool) {
	g, ok := catalog[strings.ToLower(name)]
	return g, ok
}

// GroupNames returns the canonical names of all category groups.
func GroupNames() []string {
	return []string{
		Skill.String(), Language.String(), Gender.String(),
		Interest.String(), Location.String(), AgeRange.String(),
	}
}
