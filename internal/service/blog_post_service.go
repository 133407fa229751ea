// Package service holds the blog post lifecycle: validation, slugs, publishing,
// view counting, queries and statistics.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"chronicle/internal/cache"
	"chronicle/internal/models"
	"chronicle/internal/repository"

	"github.com/google/uuid"
)

type BlogPostService struct {
	repo           repository.BlogPostRepository
	sink           EventSink
	now            func() time.Time
	maxUploadBytes int64
	statsTTL       time.Duration
	listTTL        time.Duration
}

// Options configures a BlogPostService. Zero values select defaults.
type Options struct {
	Sink            EventSink
	Now             func() time.Time
	MaxUploadSizeMB int
	// StatsTTL and ListTTL set the Redis cache lifetimes; negative disables caching.
	StatsTTL time.Duration
	ListTTL  time.Duration
}

type CreateBlogPostInput struct {
	AuthorID         uuid.UUID           `json:"-"`
	Title            string              `json:"title"`
	Content          string              `json:"content"`
	Excerpt          *string             `json:"excerpt"`
	FeaturedImageURL *string             `json:"featuredImageUrl"`
	UploadedImage    *UploadedImageInput `json:"uploadedImage"`
	Categories       []string            `json:"categories"`
	IsPublished      *bool               `json:"isPublished"`
	IsFeatured       *bool               `json:"isFeatured"`
}

// UpdateBlogPostInput is a partial update; nil fields are left unchanged.
// An empty Excerpt or FeaturedImageURL clears the field.
type UpdateBlogPostInput struct {
	ID                  uuid.UUID           `json:"-"`
	Title               *string             `json:"title"`
	Content             *string             `json:"content"`
	Excerpt             *string             `json:"excerpt"`
	FeaturedImageURL    *string             `json:"featuredImageUrl"`
	UploadedImage       *UploadedImageInput `json:"uploadedImage"`
	RemoveUploadedImage bool                `json:"removeUploadedImage"`
	Categories          *[]string           `json:"categories"`
	IsPublished         *bool               `json:"isPublished"`
	IsFeatured          *bool               `json:"isFeatured"`
}

// UpdateResult reports what an update changed.
type UpdateResult struct {
	Post       *models.BlogPost  `json:"post"`
	Changes    []string          `json:"changes"`
	Transition models.Transition `json:"transition"`
	// State is the visibility state the post ended in.
	State models.PublishState `json:"state"`
}

func NewBlogPostService(repo repository.BlogPostRepository, opts Options) *BlogPostService {
	s := &BlogPostService{
		repo:           repo,
		sink:           opts.Sink,
		now:            opts.Now,
		maxUploadBytes: int64(DefaultMaxUploadSizeMB) * 1024 * 1024,
		statsTTL:       opts.StatsTTL,
		listTTL:        opts.ListTTL,
	}
	if s.sink == nil {
		s.sink = NopSink{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if opts.MaxUploadSizeMB > 0 {
		s.maxUploadBytes = int64(opts.MaxUploadSizeMB) * 1024 * 1024
	}
	if s.statsTTL == 0 {
		s.statsTTL = cache.DefaultStatsTTL
	}
	if s.listTTL == 0 {
		s.listTTL = cache.DefaultListTTL
	}
	return s
}

func (s *BlogPostService) Create(ctx context.Context, in CreateBlogPostInput) (*models.BlogPost, error) {
	post, err := s.buildCreateCandidate(in)
	if err != nil {
		return nil, err
	}

	base := post.Slug
	if post.Slug, err = s.makeUnique(ctx, base, nil); err != nil {
		return nil, err
	}

	err = s.repo.Create(ctx, post)
	if errors.Is(err, repository.ErrDuplicateSlug) {
		// Lost a race for the slug; look up a free one and retry once.
		if post.Slug, err = s.makeUnique(ctx, base, nil); err != nil {
			return nil, err
		}
		err = s.repo.Create(ctx, post)
	}
	if err != nil {
		err = writeError(err)
		s.sink.PostWritten(ctx, PostEvent{Operation: OpCreate, Slug: post.Slug, Err: err})
		return nil, err
	}

	cache.InvalidateBlog(ctx)
	transition := models.TransitionNone
	if post.IsPublished {
		transition = models.TransitionPublished
	}
	s.sink.PostWritten(ctx, PostEvent{
		Operation:  OpCreate,
		PostID:     post.ID,
		Slug:       post.Slug,
		Transition: transition,
		State:      post.Flags().State(),
	})
	return post, nil
}

// buildCreateCandidate validates and normalizes a create request into a new
// record. The returned slug is the derived base, not yet checked for uniqueness.
func (s *BlogPostService) buildCreateCandidate(in CreateBlogPostInput) (*models.BlogPost, error) {
	if err := models.ValidateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := models.ValidateContent(in.Content); err != nil {
		return nil, err
	}
	if err := models.ValidateAuthorID(in.AuthorID); err != nil {
		return nil, err
	}
	slug, err := models.DeriveSlug(in.Title)
	if err != nil {
		return nil, err
	}

	flags, _, err := models.ApplyPublishTransition(models.PublishFlags{}, models.PublishRequest{
		IsPublished: in.IsPublished,
		IsFeatured:  in.IsFeatured,
	}, s.now())
	if err != nil {
		return nil, err
	}

	post := &models.BlogPost{
		ID:               uuid.New(),
		Title:            strings.TrimSpace(in.Title),
		Slug:             slug,
		Content:          strings.TrimSpace(in.Content),
		Excerpt:          models.NormalizeOptional(in.Excerpt),
		FeaturedImageURL: models.NormalizeOptional(in.FeaturedImageURL),
		AuthorID:         in.AuthorID,
		Categories:       models.NormalizeCategoryStrings(in.Categories),
	}
	post.SetFlags(flags)

	if in.UploadedImage != nil {
		img, err := decodeUploadedImage(in.UploadedImage, s.maxUploadBytes)
		if err != nil {
			return nil, err
		}
		post.UploadedImage = img.data
		post.UploadedImageFilename = img.filename
		post.UploadedImageContentType = &img.contentType
	}
	post.HasUploadedImage = len(post.UploadedImage) > 0
	return post, nil
}

func (s *BlogPostService) Update(ctx context.Context, in UpdateBlogPostInput) (*UpdateResult, error) {
	cur, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, lookupError(err, in.ID)
	}

	next, changes, transition, err := s.applyUpdate(cur, in)
	if err != nil {
		return nil, err
	}

	titleChanged := next.Title != cur.Title
	categoriesChanged := !models.SameCategories(next.Categories, cur.Categories)

	var base string
	if titleChanged {
		if base, err = models.DeriveSlug(next.Title); err != nil {
			return nil, err
		}
		if next.Slug, err = s.makeUnique(ctx, base, &next.ID); err != nil {
			return nil, err
		}
		if next.Slug != cur.Slug {
			changes = append(changes, "slug")
		}
	}

	err = s.repo.Update(ctx, next, categoriesChanged)
	if errors.Is(err, repository.ErrDuplicateSlug) && titleChanged {
		if next.Slug, err = s.makeUnique(ctx, base, &next.ID); err != nil {
			return nil, err
		}
		err = s.repo.Update(ctx, next, categoriesChanged)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = models.NewNotFoundError("Blog post", in.ID)
		} else {
			err = writeError(err)
		}
		s.sink.PostWritten(ctx, PostEvent{Operation: OpUpdate, PostID: in.ID, Err: err})
		return nil, err
	}

	next.CategoryLinks = next.Links()
	next.Hydrate()
	cache.InvalidateBlog(ctx)
	state := next.Flags().State()
	s.sink.PostWritten(ctx, PostEvent{
		Operation:  OpUpdate,
		PostID:     next.ID,
		Slug:       next.Slug,
		Changes:    changes,
		Transition: transition,
		State:      state,
	})
	return &UpdateResult{Post: next, Changes: changes, Transition: transition, State: state}, nil
}

// applyUpdate runs the update pipeline against cur and returns the record to
// write. cur is never modified.
func (s *BlogPostService) applyUpdate(cur *models.BlogPost, in UpdateBlogPostInput) (*models.BlogPost, []string, models.Transition, error) {
	next := *cur
	next.Categories = append([]models.Category(nil), cur.Categories...)
	changes := []string{}

	if in.Title != nil {
		if err := models.ValidateTitle(*in.Title); err != nil {
			return nil, nil, models.TransitionNone, err
		}
		if t := strings.TrimSpace(*in.Title); t != cur.Title {
			next.Title = t
			changes = append(changes, "title")
		}
	}
	if in.Content != nil {
		if err := models.ValidateContent(*in.Content); err != nil {
			return nil, nil, models.TransitionNone, err
		}
		if c := strings.TrimSpace(*in.Content); c != cur.Content {
			next.Content = c
			changes = append(changes, "content")
		}
	}
	if in.Excerpt != nil {
		next.Excerpt = models.NormalizeOptional(in.Excerpt)
		if !sameOptional(next.Excerpt, cur.Excerpt) {
			changes = append(changes, "excerpt")
		}
	}
	if in.FeaturedImageURL != nil {
		next.FeaturedImageURL = models.NormalizeOptional(in.FeaturedImageURL)
		if !sameOptional(next.FeaturedImageURL, cur.FeaturedImageURL) {
			changes = append(changes, "featuredImageUrl")
		}
	}
	if in.Categories != nil {
		next.Categories = models.NormalizeCategoryStrings(*in.Categories)
		if !models.SameCategories(next.Categories, cur.Categories) {
			changes = append(changes, "categories")
		}
	}

	switch {
	case in.UploadedImage != nil:
		img, err := decodeUploadedImage(in.UploadedImage, s.maxUploadBytes)
		if err != nil {
			return nil, nil, models.TransitionNone, err
		}
		next.UploadedImage = img.data
		next.UploadedImageFilename = img.filename
		next.UploadedImageContentType = &img.contentType
		changes = append(changes, "uploadedImage")
	case in.RemoveUploadedImage && cur.HasUploadedImage:
		next.UploadedImage = nil
		next.UploadedImageFilename = nil
		next.UploadedImageContentType = nil
		changes = append(changes, "uploadedImage")
	}

	flags, transition, err := models.ApplyPublishTransition(cur.Flags(), models.PublishRequest{
		IsPublished: in.IsPublished,
		IsFeatured:  in.IsFeatured,
	}, s.now())
	if err != nil {
		return nil, nil, models.TransitionNone, err
	}
	next.SetFlags(flags)
	if transition != models.TransitionNone {
		changes = append(changes, string(transition))
	}

	return &next, changes, transition, nil
}

func (s *BlogPostService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		err = lookupError(err, id)
		s.sink.PostWritten(ctx, PostEvent{Operation: OpDelete, PostID: id, Err: err})
		return err
	}
	cache.InvalidateBlog(ctx)
	s.sink.PostWritten(ctx, PostEvent{Operation: OpDelete, PostID: id})
	return nil
}

// GetByID returns any post, published or not.
func (s *BlogPostService) GetByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, id)
	}
	return post, nil
}

// GetPublishedBySlug returns a published post; drafts read as not found.
func (s *BlogPostService) GetPublishedBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	post, err := s.repo.FindBySlug(ctx, slug, true)
	if err != nil {
		return nil, lookupError(err, slug)
	}
	return post, nil
}

// UploadedImage is the stored image of a published post.
type UploadedImage struct {
	Data        []byte
	ContentType string
	Filename    string
}

func (s *BlogPostService) GetUploadedImage(ctx context.Context, slug string) (*UploadedImage, error) {
	post, err := s.GetPublishedBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if len(post.UploadedImage) == 0 {
		return nil, models.NewNotFoundError("Uploaded image for post", slug)
	}
	img := &UploadedImage{Data: post.UploadedImage, ContentType: "application/octet-stream"}
	if post.UploadedImageContentType != nil {
		img.ContentType = *post.UploadedImageContentType
	}
	if post.UploadedImageFilename != nil {
		img.Filename = *post.UploadedImageFilename
	}
	return img, nil
}

// IncrementViews atomically records one view of a published post and returns
// the new count.
func (s *BlogPostService) IncrementViews(ctx context.Context, slug string) (int64, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return 0, models.NewInvalidInputError("slug", "Slug is required")
	}
	count, err := s.repo.IncrementViews(ctx, slug)
	if err != nil {
		return 0, lookupError(err, slug)
	}
	s.sink.PostWritten(ctx, PostEvent{Operation: OpView, Slug: slug, ViewCount: count})
	return count, nil
}

// Ping checks the backing store.
func (s *BlogPostService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func lookupError(err error, id interface{}) error {
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewNotFoundError("Blog post", id)
	}
	return writeError(err)
}

// writeError passes AppErrors through and wraps everything else as a storage failure.
func writeError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, repository.ErrDuplicateSlug) {
		return models.NewConflictError("A post with this slug already exists", err)
	}
	return models.NewStorageError(err)
}

func sameOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
