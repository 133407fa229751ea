package service

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"chronicle/internal/cache"
	"chronicle/internal/models"
	"chronicle/internal/repository"
)

const (
	DefaultPage      = 1
	DefaultPageLimit = 10
	MaxPageLimit     = 100

	DefaultShortListLimit = 5
	MaxShortListLimit     = 50

	MinSearchTermLength = 2
	MaxSearchResults    = 50
)

// ListBlogPostsInput filters the paginated listing. Raw author and category
// values are validated here so that malformed input surfaces as INVALID_INPUT.
type ListBlogPostsInput struct {
	Search      string
	IsPublished *bool
	IsFeatured  *bool
	AuthorID    string
	Categories  []string
	Page        int
	Limit       int
}

// List returns one page of posts, newest-created first.
func (s *BlogPostService) List(ctx context.Context, in ListBlogPostsInput) (*models.PaginatedPosts, error) {
	page, limit := in.Page, in.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	filter := repository.PostFilter{
		Search:      in.Search,
		IsPublished: in.IsPublished,
		IsFeatured:  in.IsFeatured,
	}
	if strings.TrimSpace(in.AuthorID) != "" {
		id, err := models.ParseAuthorID(in.AuthorID)
		if err != nil {
			return nil, err
		}
		filter.AuthorID = &id
	}
	for _, raw := range in.Categories {
		c, err := models.ParseCategory(raw)
		if err != nil {
			return nil, err
		}
		filter.Categories = append(filter.Categories, c)
	}

	result := &models.PaginatedPosts{
		Data:  []*models.BlogPost{},
		Page:  page,
		Limit: limit,
	}
	posts, total, err := s.repo.FindMany(ctx, repository.PostQuery{
		PostFilter: filter,
		Sort:       repository.SortCreatedDesc,
		Offset:     pageOffset(page, limit),
		Limit:      limit,
	})
	if err != nil {
		s.sink.ReadDegraded(ctx, "list", err)
		return result, nil
	}

	result.Data = posts
	result.Total = total
	result.TotalPages = totalPages(total, limit)
	return result, nil
}

// maxOffset caps the row offset well inside every driver's integer range.
const maxOffset = math.MaxInt32

// pageOffset saturates at maxOffset so an absurd page reads past the end
// instead of wrapping to a negative offset.
func pageOffset(page, limit int) int {
	if page-1 > maxOffset/limit {
		return maxOffset
	}
	return (page - 1) * limit
}

// FindPublished returns every published post, newest-published first.
func (s *BlogPostService) FindPublished(ctx context.Context) []*models.BlogPost {
	return s.findMany(ctx, "find_published", repository.PostQuery{
		PostFilter: repository.PostFilter{IsPublished: boolPtr(true)},
		Sort:       repository.SortPublishedDesc,
		SkipCount:  true,
	})
}

// FindFeatured returns up to limit featured posts. limit is clamped to [1,50].
func (s *BlogPostService) FindFeatured(ctx context.Context, limit int) []*models.BlogPost {
	limit = clampShortList(limit)
	return s.cachedList(ctx, "featured", limit, repository.PostQuery{
		PostFilter: repository.PostFilter{IsPublished: boolPtr(true), IsFeatured: boolPtr(true)},
		Sort:       repository.SortPublishedDesc,
		Limit:      limit,
		SkipCount:  true,
	})
}

// FindRecent returns up to limit of the latest published posts.
func (s *BlogPostService) FindRecent(ctx context.Context, limit int) []*models.BlogPost {
	limit = clampShortList(limit)
	return s.cachedList(ctx, "recent", limit, repository.PostQuery{
		PostFilter: repository.PostFilter{IsPublished: boolPtr(true)},
		Sort:       repository.SortPublishedDesc,
		Limit:      limit,
		SkipCount:  true,
	})
}

// FindByCategory returns the posts carrying category. Posts without a stored
// category row never match.
func (s *BlogPostService) FindByCategory(ctx context.Context, category string, publishedOnly bool) ([]*models.BlogPost, error) {
	c, err := models.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	filter := repository.PostFilter{Categories: []models.Category{c}}
	if publishedOnly {
		filter.IsPublished = boolPtr(true)
	}
	return s.findMany(ctx, "find_by_category", repository.PostQuery{
		PostFilter: filter,
		Sort:       repository.SortPublishedDesc,
		SkipCount:  true,
	}), nil
}

// FindByAuthor returns an author's posts, newest-created first.
func (s *BlogPostService) FindByAuthor(ctx context.Context, authorID string, includeUnpublished bool) ([]*models.BlogPost, error) {
	id, err := models.ParseAuthorID(authorID)
	if err != nil {
		return nil, err
	}
	filter := repository.PostFilter{AuthorID: &id}
	if !includeUnpublished {
		filter.IsPublished = boolPtr(true)
	}
	return s.findMany(ctx, "find_by_author", repository.PostQuery{
		PostFilter: filter,
		Sort:       repository.SortCreatedDesc,
		SkipCount:  true,
	}), nil
}

// Search matches term against title, content and excerpt. Terms shorter than
// two characters yield no results.
func (s *BlogPostService) Search(ctx context.Context, term string, onlyPublished bool) []*models.BlogPost {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < MinSearchTermLength {
		return []*models.BlogPost{}
	}
	filter := repository.PostFilter{Search: term}
	if onlyPublished {
		filter.IsPublished = boolPtr(true)
	}
	return s.findMany(ctx, "search", repository.PostQuery{
		PostFilter: filter,
		Sort:       repository.SortPublishedDesc,
		Limit:      MaxSearchResults,
		SkipCount:  true,
	})
}

func (s *BlogPostService) findMany(ctx context.Context, op string, q repository.PostQuery) []*models.BlogPost {
	posts, _, err := s.repo.FindMany(ctx, q)
	if err != nil {
		s.sink.ReadDegraded(ctx, op, err)
		return []*models.BlogPost{}
	}
	return posts
}

func (s *BlogPostService) cachedList(ctx context.Context, name string, limit int, q repository.PostQuery) []*models.BlogPost {
	key := cache.BlogListKey(cache.ListVersion(ctx), name, limit)

	var posts []*models.BlogPost
	err := cache.Aside(ctx, "blog_"+name, key, &posts, s.listTTL, func() error {
		found, _, err := s.repo.FindMany(ctx, q)
		if err != nil {
			return err
		}
		posts = found
		return nil
	})
	if err != nil {
		s.sink.ReadDegraded(ctx, "find_"+name, err)
		return []*models.BlogPost{}
	}
	if posts == nil {
		posts = []*models.BlogPost{}
	}
	return posts
}

func clampShortList(limit int) int {
	if limit == 0 {
		return DefaultShortListLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > MaxShortListLimit {
		return MaxShortListLimit
	}
	return limit
}

func totalPages(total int64, limit int) int {
	if total == 0 || limit < 1 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

func boolPtr(b bool) *bool { return &b }
