package models

import "strings"

// Category is a member of the fixed blog category vocabulary.
type Category string

const (
	CategoryNewsroom          Category = "newsroom"
	CategoryThoughtPieces     Category = "thought-pieces"
	CategoryAchievements      Category = "achievements"
	CategoryAwardsRecognition Category = "awards-recognition"
)

// DefaultCategory is assigned to posts whose category set normalizes to empty.
const DefaultCategory = CategoryNewsroom

// AllCategories lists the vocabulary in display order.
var AllCategories = []Category{
	CategoryNewsroom,
	CategoryThoughtPieces,
	CategoryAchievements,
	CategoryAwardsRecognition,
}

var categoryLabels = map[Category]string{
	CategoryNewsroom:          "Newsroom",
	CategoryThoughtPieces:     "Thought Pieces",
	CategoryAchievements:      "Achievements",
	CategoryAwardsRecognition: "Awards & Recognition",
}

// Valid reports whether c belongs to the vocabulary.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human readable name of the category.
func (c Category) Label() string {
	return categoryLabels[c]
}

// ParseCategory trims and lower-cases raw and checks it against the vocabulary.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", NewInvalidInputError("category", "Unknown category: "+raw)
	}
	return c, nil
}

// NormalizeCategories dedupes the input, drops members outside the vocabulary
// and falls back to {newsroom} when nothing valid remains. Input order is kept.
func NormalizeCategories(in []Category) []Category {
	out := make([]Category, 0, len(in))
	seen := make(map[Category]struct{}, len(in))
	for _, c := range in {
		if !c.Valid() {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	if len(out) == 0 {
		return []Category{DefaultCategory}
	}
	return out
}

// NormalizeCategoryStrings is NormalizeCategories for raw request values.
// Matching is exact; "NEWSROOM" is not a member.
func NormalizeCategoryStrings(in []string) []Category {
	cats := make([]Category, 0, len(in))
	for _, s := range in {
		cats = append(cats, Category(s))
	}
	return NormalizeCategories(cats)
}

// SameCategories reports whether a and b hold the same members, ignoring order.
func SameCategories(a, b []Category) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[Category]struct{}, len(a))
	for _, c := range a {
		set[c] = struct{}{}
	}
	for _, c := range b {
		if _, ok := set[c]; !ok {
			return false
		}
	}
	return true
}
