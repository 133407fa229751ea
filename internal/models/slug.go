package models

import (
	"regexp"
	"strings"
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9_\s-]`)
	slugSeparators = regexp.MustCompile(`[\s_-]+`)
)

// DeriveSlug turns a title into its base slug: lower-case, punctuation
// stripped, separator runs collapsed to one hyphen, no leading or trailing
// hyphens. Uniqueness is handled by the caller.
func DeriveSlug(title string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(title))
	if s == "" {
		return "", NewInvalidInputError("title", "Title is required")
	}
	s = slugDisallowed.ReplaceAllString(s, "")
	s = slugSeparators.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "", NewInvalidInputError("title", "Title must contain letters or digits")
	}
	return s, nil
}

// IsValidSlug reports whether s only holds lower-case alphanumerics joined by single hyphens.
func IsValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
