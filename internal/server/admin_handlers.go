package server

import (
	"chronicle/internal/middleware"
	"chronicle/internal/models"
	"chronicle/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AdminListPosts handles GET /api/admin/blog
// Unlike the public listing, drafts are included unless ?isPublished= narrows it.
func (s *Server) AdminListPosts(c *fiber.Ctx) error {
	published, err := parseOptionalBool(c, "isPublished")
	if err != nil {
		return nil
	}
	featured, err := parseOptionalBool(c, "isFeatured")
	if err != nil {
		return nil
	}
	p := parsePagination(c)

	page, err := s.blogService.List(c.UserContext(), service.ListBlogPostsInput{
		Search:      c.Query("search"),
		IsPublished: published,
		IsFeatured:  featured,
		AuthorID:    c.Query("authorId"),
		Categories:  parseCategories(c),
		Page:        p.Page,
		Limit:       p.Limit,
	})
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(page)
}

// AdminGetPublishedPosts handles GET /api/admin/blog/published
func (s *Server) AdminGetPublishedPosts(c *fiber.Ctx) error {
	return c.JSON(s.blogService.FindPublished(c.UserContext()))
}

// AdminGetPostsByAuthor handles GET /api/admin/blog/author/:authorId
func (s *Server) AdminGetPostsByAuthor(c *fiber.Ctx) error {
	includeUnpublished, err := parseOptionalBool(c, "includeUnpublished")
	if err != nil {
		return nil
	}
	include := includeUnpublished == nil || *includeUnpublished

	posts, err := s.blogService.FindByAuthor(c.UserContext(), c.Params("authorId"), include)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(posts)
}

// GetStatistics handles GET /api/admin/blog/stats
func (s *Server) GetStatistics(c *fiber.Ctx) error {
	return c.JSON(s.blogService.ComputeStatistics(c.UserContext()))
}

// AdminGetPost handles GET /api/admin/blog/:id
func (s *Server) AdminGetPost(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.blogService.GetByID(c.UserContext(), id)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/admin/blog
func (s *Server) CreatePost(c *fiber.Ctx) error {
	authorID, ok := middleware.AuthorID(c)
	if !ok {
		return respondWithError(c, models.NewUnauthorizedError("Authentication required"))
	}

	var in service.CreateBlogPostInput
	if err := c.BodyParser(&in); err != nil {
		return respondWithError(c, models.NewInvalidInputError("body", "Invalid request body"))
	}
	in.AuthorID = authorID

	post, err := s.blogService.Create(c.UserContext(), in)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PATCH /api/admin/blog/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	var in service.UpdateBlogPostInput
	if err := c.BodyParser(&in); err != nil {
		return respondWithError(c, models.NewInvalidInputError("body", "Invalid request body"))
	}
	in.ID = id

	result, err := s.blogService.Update(c.UserContext(), in)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(result)
}

// DeletePost handles DELETE /api/admin/blog/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}
	if err := s.blogService.Delete(c.UserContext(), id); err != nil {
		return respondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
