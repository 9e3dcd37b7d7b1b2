package validation

import (
	"errors"
	"regexp"
)

var groupSlugRegex = regexp.MustCompile(`^[a-z0-9_-]{1,50}$`)

// Slugs that would shadow a top-level route when used in links.
var reservedGroupSlugs = map[string]struct{}{
	"admin":   {},
	"auth":    {},
	"create":  {},
	"follow":  {},
	"group":   {},
	"health":  {},
	"media":   {},
	"metrics": {},
	"posts":   {},
	"profile": {},
	"swagger": {},
}

var (
	errSlugFormat   = errors.New("slug must be 1-50 characters of lowercase letters, numbers, underscores or hyphens")
	errSlugReserved = errors.New("slug is reserved")
)

// ValidateGroupSlug validates group slug format and reserved names.
func ValidateGroupSlug(slug string) error {
	if !groupSlugRegex.MatchString(slug) {
		return errSlugFormat
	}
	if _, exists := reservedGroupSlugs[slug]; exists {
		return errSlugReserved
	}
	return nil
}
