package server

import (
	"fmt"

	"chronicle/internal/models"
	"chronicle/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPublishedPosts handles GET /api/blog
func (s *Server) ListPublishedPosts(c *fiber.Ctx) error {
	featured, err := parseOptionalBool(c, "featured")
	if err != nil {
		return nil
	}
	p := parsePagination(c)

	page, err := s.blogService.List(c.UserContext(), service.ListBlogPostsInput{
		Search:      c.Query("search"),
		IsPublished: boolPtr(true),
		IsFeatured:  featured,
		Categories:  parseCategories(c),
		Page:        p.Page,
		Limit:       p.Limit,
	})
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(page)
}

// GetFeaturedPosts handles GET /api/blog/featured
func (s *Server) GetFeaturedPosts(c *fiber.Ctx) error {
	return c.JSON(s.blogService.FindFeatured(c.UserContext(), c.QueryInt("limit", 0)))
}

// GetRecentPosts handles GET /api/blog/recent
func (s *Server) GetRecentPosts(c *fiber.Ctx) error {
	return c.JSON(s.blogService.FindRecent(c.UserContext(), c.QueryInt("limit", 0)))
}

// SearchPosts handles GET /api/blog/search?q=
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	return c.JSON(s.blogService.Search(c.UserContext(), c.Query("q"), true))
}

type categoryInfo struct {
	Value models.Category `json:"value"`
	Label string          `json:"label"`
}

// GetCategories handles GET /api/blog/categories
func (s *Server) GetCategories(c *fiber.Ctx) error {
	out := make([]categoryInfo, 0, len(models.AllCategories))
	for _, cat := range models.AllCategories {
		out = append(out, categoryInfo{Value: cat, Label: cat.Label()})
	}
	return c.JSON(out)
}

// GetPostsByCategory handles GET /api/blog/category/:category
func (s *Server) GetPostsByCategory(c *fiber.Ctx) error {
	posts, err := s.blogService.FindByCategory(c.UserContext(), c.Params("category"), true)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(posts)
}

// GetPostBySlug handles GET /api/blog/:slug
func (s *Server) GetPostBySlug(c *fiber.Ctx) error {
	post, err := s.blogService.GetPublishedBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(post)
}

// GetPostImage handles GET /api/blog/:slug/image
func (s *Server) GetPostImage(c *fiber.Ctx) error {
	img, err := s.blogService.GetUploadedImage(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondWithError(c, err)
	}
	c.Set(fiber.HeaderContentType, img.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=300")
	if img.Filename != "" {
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", img.Filename))
	}
	return c.Send(img.Data)
}

// RecordView handles POST /api/blog/:slug/view
func (s *Server) RecordView(c *fiber.Ctx) error {
	count, err := s.blogService.IncrementViews(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(fiber.Map{"viewCount": count})
}

func boolPtr(b bool) *bool { return &b }
