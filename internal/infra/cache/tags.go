package cache

import "strings"

type Resource string

const (
	ResourceProducts         Resource = "products"
	ResourceProductViews     Resource = "productViews"
	ResourceUserSubscription Resource = "userSubscription"
	ResourceCountries        Resource = "countries"
	ResourceCountryGroups    Resource = "countryGroups"
)

// TagAll is attached to every cached entry so the whole cache can be dropped at once.
const TagAll = "*"

func GlobalTag(r Resource) string {
	return "global:" + string(r)
}

func UserTag(userID string, r Resource) string {
	return "user:" + userID + "-" + string(r)
}

func IDTag(id string, r Resource) string {
	return "id:" + id + "-" + string(r)
}

// Scope narrows an invalidation to a user and/or a single entity.
// The global tag of the resource is always invalidated.
type Scope struct {
	UserID string
	ID     string
}

// Tags returns every tag an invalidation of r within s must clear.
func (s Scope) Tags(r Resource) []string {
	tags := []string{GlobalTag(r)}
	if s.UserID != "" {
		tags = append(tags, UserTag(s.UserID, r))
	}
	if s.ID != "" {
		tags = append(tags, IDTag(s.ID, r))
	}
	return tags
}

// Key builds a cache key from an operation name and its arguments.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
