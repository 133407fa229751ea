// Package models contains data models used by the application.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlogPost represents a blog article
type BlogPost struct {
	ID                       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title                    string     `gorm:"size:200;not null" json:"title"`
	Slug                     string     `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Content                  string     `gorm:"type:text;not null" json:"content"`
	Excerpt                  *string    `gorm:"type:text" json:"excerpt"`
	FeaturedImageURL         *string    `gorm:"type:text" json:"featuredImageUrl"`
	UploadedImage            []byte     `json:"-"`
	UploadedImageFilename    *string    `gorm:"size:255" json:"uploadedImageFilename"`
	UploadedImageContentType *string    `gorm:"size:100" json:"uploadedImageContentType"`
	IsPublished              bool       `gorm:"not null;default:false;index" json:"isPublished"`
	IsFeatured               bool       `gorm:"not null;default:false" json:"isFeatured"`
	ViewCount                int64      `gorm:"not null;default:0" json:"viewCount"`
	AuthorID                 uuid.UUID  `gorm:"type:uuid;not null;index" json:"authorId"`
	PublishedAt              *time.Time `gorm:"index" json:"publishedAt"`
	CreatedAt                time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt                time.Time  `json:"updatedAt"`
	// SearchText holds title, content and excerpt folded by FoldSearch.
	SearchText string `gorm:"type:text;not null;default:''" json:"-"`

	CategoryLinks []BlogPostCategory `gorm:"foreignKey:BlogPostID;constraint:OnDelete:CASCADE" json:"-"`

	Categories       []Category `gorm:"-" json:"categories"`
	HasUploadedImage bool       `gorm:"-" json:"hasUploadedImage"`
}

// BlogPostCategory is one row of the post to category join table.
type BlogPostCategory struct {
	BlogPostID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Category   Category  `gorm:"size:32;primaryKey;index"`
}

// TableName pins the join table name.
func (BlogPostCategory) TableName() string {
	return "blog_post_categories"
}

// Flags returns the publish-governed fields of the post.
func (p *BlogPost) Flags() PublishFlags {
	return PublishFlags{
		IsPublished: p.IsPublished,
		IsFeatured:  p.IsFeatured,
		PublishedAt: p.PublishedAt,
	}
}

// SetFlags copies f onto the post.
func (p *BlogPost) SetFlags(f PublishFlags) {
	p.IsPublished = f.IsPublished
	p.IsFeatured = f.IsFeatured
	p.PublishedAt = f.PublishedAt
}

// Hydrate fills the derived fields from the stored columns and join rows.
// Categories always pass through normalization so malformed storage reads
// back as a valid set.
func (p *BlogPost) Hydrate() {
	cats := make([]Category, 0, len(p.CategoryLinks))
	for _, l := range p.CategoryLinks {
		cats = append(cats, l.Category)
	}
	p.Categories = NormalizeCategories(cats)
	p.HasUploadedImage = p.UploadedImageContentType != nil || len(p.UploadedImage) > 0
}

// FoldSearch case-folds text for substring search. Folding happens in Go
// because SQLite's LOWER only handles ASCII.
func FoldSearch(s string) string {
	return strings.ToLower(s)
}

// SearchDocument returns the folded text the search filter matches against.
func (p *BlogPost) SearchDocument() string {
	parts := []string{p.Title, p.Content}
	if p.Excerpt != nil {
		parts = append(parts, *p.Excerpt)
	}
	return FoldSearch(strings.Join(parts, "\n"))
}

// BeforeSave keeps SearchText in step with the searchable columns.
func (p *BlogPost) BeforeSave(_ *gorm.DB) error {
	p.SearchText = p.SearchDocument()
	return nil
}

// Links builds the join rows for the post's current category set.
func (p *BlogPost) Links() []BlogPostCategory {
	links := make([]BlogPostCategory, 0, len(p.Categories))
	for _, c := range p.Categories {
		links = append(links, BlogPostCategory{BlogPostID: p.ID, Category: c})
	}
	return links
}

// PaginatedPosts is the envelope returned by the listing endpoints.
type PaginatedPosts struct {
	Data       []*BlogPost `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"totalPages"`
}

// BlogStatistics summarizes the post collection for the admin dashboard.
type BlogStatistics struct {
	TotalPosts       int64              `json:"totalPosts"`
	PublishedPosts   int64              `json:"publishedPosts"`
	DraftPosts       int64              `json:"draftPosts"`
	FeaturedPosts    int64              `json:"featuredPosts"`
	RecentPosts      int64              `json:"recentPosts"`
	TotalViews       int64              `json:"totalViews"`
	PostsByCategory  map[Category]int64 `json:"postsByCategory"`
	RecentWindowDays int                `json:"recentWindowDays"`
}
