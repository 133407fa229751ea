package repository

import (
	"strings"
	"time"

	"chronicle/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SortOrder selects the ordering applied by FindMany.
type SortOrder int

const (
	// SortCreatedDesc orders newest-created first.
	SortCreatedDesc SortOrder = iota
	// SortPublishedDesc orders newest-published first; unpublished rows sink to the end.
	SortPublishedDesc
)

// PostFilter is the predicate shared by FindMany, Count and SumViews.
// Zero-valued fields do not constrain the result.
type PostFilter struct {
	// Search matches case-insensitively against title, content and excerpt.
	Search      string
	IsPublished *bool
	IsFeatured  *bool
	AuthorID    *uuid.UUID
	// Categories matches posts holding at least one of the members.
	Categories     []models.Category
	PublishedSince *time.Time
}

// PostQuery is a filtered, ordered page request.
type PostQuery struct {
	PostFilter
	Sort   SortOrder
	Offset int
	// Limit of 0 returns every match.
	Limit int
	// SkipCount avoids the COUNT(*) round trip when the caller does not need a total.
	SkipCount bool
}

const categoryExists = "EXISTS (SELECT 1 FROM blog_post_categories bpc " +
	"WHERE bpc.blog_post_id = blog_posts.id AND bpc.category IN ?)"

func applyFilter(db *gorm.DB, f PostFilter) *gorm.DB {
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + escapeLike(models.FoldSearch(term)) + "%"
		db = db.Where("blog_posts.search_text LIKE ? ESCAPE '\\'", like)
	}
	if f.IsPublished != nil {
		db = db.Where("blog_posts.is_published = ?", *f.IsPublished)
	}
	if f.IsFeatured != nil {
		db = db.Where("blog_posts.is_featured = ?", *f.IsFeatured)
	}
	if f.AuthorID != nil {
		db = db.Where("blog_posts.author_id = ?", *f.AuthorID)
	}
	if len(f.Categories) > 0 {
		cats := make([]string, 0, len(f.Categories))
		for _, c := range f.Categories {
			cats = append(cats, string(c))
		}
		db = db.Where(categoryExists, cats)
	}
	if f.PublishedSince != nil {
		db = db.Where("blog_posts.published_at >= ?", *f.PublishedSince)
	}
	return db
}

func applySort(db *gorm.DB, order SortOrder) *gorm.DB {
	switch order {
	case SortPublishedDesc:
		return db.Order("CASE WHEN blog_posts.published_at IS NULL THEN 1 ELSE 0 END").
			Order("blog_posts.published_at DESC").
			Order("blog_posts.created_at DESC")
	default:
		return db.Order("blog_posts.created_at DESC")
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
