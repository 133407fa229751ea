package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"chronicle/internal/models"
	"chronicle/internal/service"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// FixtureFile is the YAML document accepted by cmd/seed -fixtures.
//
//	posts:
//	  - title: Launch day
//	    content: We shipped.
//	    categories: [newsroom]
//	    published: true
//	    views: 12
type FixtureFile struct {
	// DefaultAuthor is used for posts without an author.
	DefaultAuthor string        `yaml:"default_author"`
	Posts         []FixturePost `yaml:"posts"`
}

// FixturePost describes one post to create.
type FixturePost struct {
	Title            string   `yaml:"title"`
	Content          string   `yaml:"content"`
	Excerpt          string   `yaml:"excerpt"`
	FeaturedImageURL string   `yaml:"featured_image_url"`
	Categories       []string `yaml:"categories"`
	Author           string   `yaml:"author"`
	Published        bool     `yaml:"published"`
	Featured         bool     `yaml:"featured"`
	Views            int      `yaml:"views"`
}

// LoadFixtures decodes a fixture document.
func LoadFixtures(r io.Reader) (*FixtureFile, error) {
	var f FixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &f, nil
}

// LoadFixturesFile reads fixtures from path.
func LoadFixturesFile(path string) (*FixtureFile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()
	return LoadFixtures(fh)
}

// ApplyFixtures creates every fixture post through svc in document order.
// The first failure stops the run; posts created before it are kept.
func ApplyFixtures(ctx context.Context, svc *service.BlogPostService, f *FixtureFile) ([]*models.BlogPost, error) {
	defaultAuthor := uuid.New()
	if f.DefaultAuthor != "" {
		id, err := models.ParseAuthorID(f.DefaultAuthor)
		if err != nil {
			return nil, fmt.Errorf("default_author: %w", err)
		}
		defaultAuthor = id
	}

	posts := make([]*models.BlogPost, 0, len(f.Posts))
	for i, fp := range f.Posts {
		author := defaultAuthor
		if fp.Author != "" {
			id, err := models.ParseAuthorID(fp.Author)
			if err != nil {
				return posts, fmt.Errorf("post %d: %w", i, err)
			}
			author = id
		}

		in := service.CreateBlogPostInput{
			AuthorID:   author,
			Title:      fp.Title,
			Content:    fp.Content,
			Categories: fp.Categories,
		}
		if fp.Excerpt != "" {
			in.Excerpt = &fp.Excerpt
		}
		if fp.FeaturedImageURL != "" {
			in.FeaturedImageURL = &fp.FeaturedImageURL
		}
		published, featured := fp.Published, fp.Featured
		in.IsPublished = &published
		in.IsFeatured = &featured

		post, err := svc.Create(ctx, in)
		if err != nil {
			return posts, fmt.Errorf("post %d (%q): %w", i, fp.Title, err)
		}
		for v := 0; v < fp.Views && post.IsPublished; v++ {
			if post.ViewCount, err = svc.IncrementViews(ctx, post.Slug); err != nil {
				return posts, fmt.Errorf("post %d views: %w", i, err)
			}
		}
		posts = append(posts, post)
	}
	return posts, nil
}
