package service

import (
	"context"
	"fmt"
	"strconv"

	"chronicle/internal/models"

	"github.com/google/uuid"
)

// maxSlugAttempts bounds the suffix search; the unique index remains the real guard.
const maxSlugAttempts = 1000

// makeUnique returns base, or base-N for the smallest N >= 1 not held by
// another post. excludeID lets a post keep its own slug on update.
func (s *BlogPostService) makeUnique(ctx context.Context, base string, excludeID *uuid.UUID) (string, error) {
	candidate := base
	for n := 1; n <= maxSlugAttempts; n++ {
		taken, err := s.repo.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", models.NewStorageError(err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = suffixedSlug(base, n)
	}
	return "", models.NewConflictError(fmt.Sprintf("no free slug for %q", base), nil)
}

func suffixedSlug(base string, n int) string {
	return base + "-" + strconv.Itoa(n)
}
