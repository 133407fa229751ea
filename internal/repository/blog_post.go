// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"chronicle/internal/models"
	"chronicle/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const blogPostsTable = "blog_posts"

var (
	// ErrNotFound is returned when no post matches the lookup.
	ErrNotFound = errors.New("blog post not found")
	// ErrDuplicateSlug is returned when a write collides with the unique slug index.
	ErrDuplicateSlug = errors.New("duplicate blog post slug")
)

// BlogPostRepository defines the interface for blog post data operations
type BlogPostRepository interface {
	Create(ctx context.Context, post *models.BlogPost) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error)
	FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.BlogPost, error)
	FindMany(ctx context.Context, q PostQuery) ([]*models.BlogPost, int64, error)
	// Update writes every mutable column except view_count. Join rows are
	// rewritten only when replaceCategories is set.
	Update(ctx context.Context, post *models.BlogPost, replaceCategories bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	// IncrementViews atomically bumps the view count of a published post and
	// returns the post-increment value.
	IncrementViews(ctx context.Context, slug string) (int64, error)
	Count(ctx context.Context, f PostFilter) (int64, error)
	SumViews(ctx context.Context, f PostFilter) (int64, error)
	SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	Ping(ctx context.Context) error
}

// blogPostRepository implements BlogPostRepository
type blogPostRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewBlogPostRepository creates a new blog post repository
func NewBlogPostRepository(db *gorm.DB) BlogPostRepository {
	return &blogPostRepository{
		db:  db,
		log: observability.NewRepoLogger(blogPostsTable),
	}
}

// observe opens a span and latency timer; the returned func closes both.
func (r *blogPostRepository) observe(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := observability.StartRepositorySpan(ctx, r.db.Dialector.Name(), op, blogPostsTable)
	done := observability.TrackQuery(op, blogPostsTable)
	return ctx, func(err error) {
		done()
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrDuplicateSlug) {
			r.log.LogError(ctx, err, op)
		}
		observability.EndSpan(span, err)
	}
}

func (r *blogPostRepository) Create(ctx context.Context, post *models.BlogPost) (err error) {
	ctx, finish := r.observe(ctx, "Create")
	defer func() { finish(err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return translateWriteError(err)
		}
		links := post.Links()
		if len(links) == 0 {
			return nil
		}
		return tx.Create(&links).Error
	})
	if err == nil {
		post.CategoryLinks = post.Links()
		post.Hydrate()
	}
	return err
}

func (r *blogPostRepository) FindByID(ctx context.Context, id uuid.UUID) (post *models.BlogPost, err error) {
	ctx, finish := r.observe(ctx, "FindByID")
	defer func() { finish(err) }()

	var p models.BlogPost
	if err = r.db.WithContext(ctx).Preload("CategoryLinks").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translateReadError(err)
	}
	p.Hydrate()
	return &p, nil
}

func (r *blogPostRepository) FindBySlug(ctx context.Context, slug string, publishedOnly bool) (post *models.BlogPost, err error) {
	ctx, finish := r.observe(ctx, "FindBySlug")
	defer func() { finish(err) }()

	q := r.db.WithContext(ctx).Preload("CategoryLinks").Where("slug = ?", slug)
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	var p models.BlogPost
	if err = q.First(&p).Error; err != nil {
		return nil, translateReadError(err)
	}
	p.Hydrate()
	return &p, nil
}

func (r *blogPostRepository) FindMany(ctx context.Context, q PostQuery) (posts []*models.BlogPost, total int64, err error) {
	ctx, finish := r.observe(ctx, "FindMany")
	defer func() { finish(err) }()

	if !q.SkipCount {
		if err = applyFilter(r.db.WithContext(ctx).Model(&models.BlogPost{}), q.PostFilter).Count(&total).Error; err != nil {
			return nil, 0, err
		}
		if total == 0 {
			return []*models.BlogPost{}, 0, nil
		}
	}

	find := applySort(applyFilter(r.db.WithContext(ctx).Model(&models.BlogPost{}), q.PostFilter), q.Sort).
		Omit("uploaded_image", "search_text").
		Preload("CategoryLinks")
	if q.Offset > 0 {
		find = find.Offset(q.Offset)
	}
	if q.Limit > 0 {
		find = find.Limit(q.Limit)
	}

	posts = []*models.BlogPost{}
	if err = find.Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	for _, p := range posts {
		p.Hydrate()
	}
	if q.SkipCount {
		total = int64(len(posts))
	}
	return posts, total, nil
}

func (r *blogPostRepository) Update(ctx context.Context, post *models.BlogPost, replaceCategories bool) (err error) {
	ctx, finish := r.observe(ctx, "Update")
	defer func() { finish(err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post.UpdatedAt = tx.NowFunc()
		res := tx.Model(&models.BlogPost{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
			"title":                       post.Title,
			"slug":                        post.Slug,
			"content":                     post.Content,
			"excerpt":                     post.Excerpt,
			"featured_image_url":          post.FeaturedImageURL,
			"uploaded_image":              post.UploadedImage,
			"uploaded_image_filename":     post.UploadedImageFilename,
			"uploaded_image_content_type": post.UploadedImageContentType,
			"is_published":                post.IsPublished,
			"is_featured":                 post.IsFeatured,
			"published_at":                post.PublishedAt,
			"updated_at":                  post.UpdatedAt,
			"search_text":                 post.SearchDocument(),
		})
		if res.Error != nil {
			return translateWriteError(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if !replaceCategories {
			return nil
		}
		if err := tx.Where("blog_post_id = ?", post.ID).Delete(&models.BlogPostCategory{}).Error; err != nil {
			return err
		}
		links := post.Links()
		if len(links) == 0 {
			return nil
		}
		return tx.Create(&links).Error
	})
	return err
}

func (r *blogPostRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, finish := r.observe(ctx, "Delete")
	defer func() { finish(err) }()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("blog_post_id = ?", id).Delete(&models.BlogPostCategory{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.BlogPost{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *blogPostRepository) IncrementViews(ctx context.Context, slug string) (count int64, err error) {
	ctx, finish := r.observe(ctx, "IncrementViews")
	defer func() { finish(err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.BlogPost{}).
			Where("slug = ? AND is_published = ?", slug, true).
			UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		// The row stays locked until commit, so this reads our own increment.
		return tx.Model(&models.BlogPost{}).
			Select("view_count").
			Where("slug = ?", slug).
			Row().
			Scan(&count)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *blogPostRepository) Count(ctx context.Context, f PostFilter) (total int64, err error) {
	ctx, finish := r.observe(ctx, "Count")
	defer func() { finish(err) }()

	err = applyFilter(r.db.WithContext(ctx).Model(&models.BlogPost{}), f).Count(&total).Error
	return total, err
}

func (r *blogPostRepository) SumViews(ctx context.Context, f PostFilter) (sum int64, err error) {
	ctx, finish := r.observe(ctx, "SumViews")
	defer func() { finish(err) }()

	err = applyFilter(r.db.WithContext(ctx).Model(&models.BlogPost{}), f).
		Select("CAST(COALESCE(SUM(blog_posts.view_count), 0) AS BIGINT)").
		Row().
		Scan(&sum)
	return sum, err
}

func (r *blogPostRepository) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (exists bool, err error) {
	ctx, finish := r.observe(ctx, "SlugExists")
	defer func() { finish(err) }()

	q := r.db.WithContext(ctx).Model(&models.BlogPost{}).Where("slug = ?", slug)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var n int64
	if err = q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *blogPostRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translateReadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// translateWriteError maps unique-index violations to ErrDuplicateSlug. Slug is
// the only unique column besides the primary key, which the core generates.
func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSlug
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key") {
		return ErrDuplicateSlug
	}
	return err
}
