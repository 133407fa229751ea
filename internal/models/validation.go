package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MinTitleLength   = 3
	MaxTitleLength   = 200
	MinContentLength = 10
)

// ValidateTitle checks the trimmed title length.
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < MinTitleLength || n > MaxTitleLength {
		return NewInvalidInputError("title",
			fmt.Sprintf("Title must be between %d and %d characters", MinTitleLength, MaxTitleLength))
	}
	return nil
}

// ValidateContent checks the trimmed content length.
func ValidateContent(content string) error {
	if utf8.RuneCountInString(strings.TrimSpace(content)) < MinContentLength {
		return NewInvalidInputError("content",
			fmt.Sprintf("Content must be at least %d characters", MinContentLength))
	}
	return nil
}

// ValidateAuthorID rejects the nil uuid.
func ValidateAuthorID(id uuid.UUID) error {
	if id == uuid.Nil {
		return NewInvalidInputError("authorId", "Author ID is required")
	}
	return nil
}

// ParseAuthorID parses a raw author identifier.
func ParseAuthorID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, NewInvalidInputError("authorId", "Invalid author ID")
	}
	return id, nil
}

// NormalizeOptional trims s and maps empty to nil.
func NormalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
