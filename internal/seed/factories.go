// Package seed provides helpers to create demo data for the blog database.
// These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"

	"chronicle/internal/models"
	"chronicle/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// Options tunes generated content.
type Options struct {
	// Seed makes generation reproducible; 0 picks a random seed.
	Seed int64
	// PublishRatio and FeatureRatio are the probabilities, in [0,1], that a
	// generated post is published and that a published one is featured.
	PublishRatio float64
	FeatureRatio float64
	// MaxViews caps the views recorded against each published post.
	MaxViews int
}

// DefaultOptions returns the options used by cmd/seed.
func DefaultOptions() Options {
	return Options{
		PublishRatio: 0.7,
		FeatureRatio: 0.2,
		MaxViews:     25,
	}
}

// Factory builds posts with fake content and persists them through the
// service so that slugs, categories and publish rules match real writes.
type Factory struct {
	svc   *service.BlogPostService
	faker *gofakeit.Faker
	opts  Options
}

// NewFactory creates a Factory writing through svc.
func NewFactory(svc *service.BlogPostService, opts Options) *Factory {
	return &Factory{
		svc:   svc,
		faker: gofakeit.New(opts.Seed),
		opts:  opts,
	}
}

// BuildPost returns a create request with fake content. Nothing is persisted.
func (f *Factory) BuildPost(authorID uuid.UUID) service.CreateBlogPostInput {
	title := f.faker.Sentence(f.faker.Number(3, 8))
	if len(title) > models.MaxTitleLength {
		title = title[:models.MaxTitleLength]
	}
	excerpt := f.faker.Sentence(15)

	in := service.CreateBlogPostInput{
		AuthorID:   authorID,
		Title:      title,
		Content:    f.faker.Paragraph(f.faker.Number(2, 5), 4, 12, "\n\n"),
		Excerpt:    &excerpt,
		Categories: f.pickCategories(),
	}
	if f.faker.Number(0, 2) == 0 {
		url := fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", f.faker.UUID())
		in.FeaturedImageURL = &url
	}

	published := f.faker.Float64Range(0, 1) < f.opts.PublishRatio
	in.IsPublished = &published
	if published {
		featured := f.faker.Float64Range(0, 1) < f.opts.FeatureRatio
		in.IsFeatured = &featured
	}
	return in
}

func (f *Factory) pickCategories() []string {
	n := f.faker.Number(1, 2)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		c := models.AllCategories[f.faker.Number(0, len(models.AllCategories)-1)]
		out = append(out, string(c))
	}
	return out
}

// CreatePost persists one generated post and records a random number of views
// if it was published.
func (f *Factory) CreatePost(ctx context.Context, authorID uuid.UUID) (*models.BlogPost, error) {
	post, err := f.svc.Create(ctx, f.BuildPost(authorID))
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	if !post.IsPublished || f.opts.MaxViews <= 0 {
		return post, nil
	}

	views := f.faker.Number(0, f.opts.MaxViews)
	for i := 0; i < views; i++ {
		count, err := f.svc.IncrementViews(ctx, post.Slug)
		if err != nil {
			return nil, fmt.Errorf("record view for %s: %w", post.Slug, err)
		}
		post.ViewCount = count
	}
	return post, nil
}

// CreatePosts persists count generated posts spread across the given authors.
// With no authors a single random author is used.
func (f *Factory) CreatePosts(ctx context.Context, count int, authors []uuid.UUID) ([]*models.BlogPost, error) {
	if len(authors) == 0 {
		authors = []uuid.UUID{uuid.New()}
	}
	posts := make([]*models.BlogPost, 0, count)
	for i := 0; i < count; i++ {
		post, err := f.CreatePost(ctx, authors[i%len(authors)])
		if err != nil {
			return posts, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}
