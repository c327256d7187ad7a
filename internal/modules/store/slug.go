package store

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	minSlugLength = 3
	maxSlugLength = 40
)

// Slugs that collide with platform hosts and routes.
var reservedSlugs = map[string]bool{
	"www": true, "api": true, "app": true, "admin": true, "dashboard": true,
	"store": true, "stores": true, "static": true, "assets": true, "mail": true,
	"billing": true, "help": true, "support": true, "status": true, "login": true,
	"signup": true, "onboarding": true,
}

// NormaliseSlug folds accents, lowercases and collapses every run of
// characters outside [a-z0-9] into a single hyphen.
func NormaliseSlug(raw string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		folded = strings.ToLower(raw)
	}

	var b strings.Builder
	hyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// ValidateSlug checks an already normalised slug.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug is required")
	}
	if len(slug) < minSlugLength || len(slug) > maxSlugLength {
		return fmt.Errorf("invalid slug: must be between %d and %d characters", minSlugLength, maxSlugLength)
	}
	if reservedSlugs[slug] {
		return fmt.Errorf("invalid slug: %q is reserved", slug)
	}
	return nil
}
