package service

import (
	"context"
	"time"

	"chronicle/internal/cache"
	"chronicle/internal/models"
	"chronicle/internal/repository"
)

// RecentWindowDays is the trailing window counted as recently published.
const RecentWindowDays = 7

// ComputeStatistics counts the collection. Each figure is an independent
// query, so concurrent writes may skew them slightly. Any failure yields an
// all-zero result.
func (s *BlogPostService) ComputeStatistics(ctx context.Context) *models.BlogStatistics {
	var stats models.BlogStatistics
	err := cache.Aside(ctx, "blog_stats", cache.BlogStatsKey, &stats, s.statsTTL, func() error {
		computed, err := s.computeStatistics(ctx)
		if err != nil {
			return err
		}
		stats = *computed
		return nil
	})
	if err != nil {
		s.sink.ReadDegraded(ctx, "statistics", err)
		return emptyStatistics()
	}
	return &stats
}

func (s *BlogPostService) computeStatistics(ctx context.Context) (*models.BlogStatistics, error) {
	published, draft := boolPtr(true), boolPtr(false)
	since := s.now().Add(-RecentWindowDays * 24 * time.Hour)

	stats := emptyStatistics()
	counts := []struct {
		dst    *int64
		filter repository.PostFilter
	}{
		{&stats.TotalPosts, repository.PostFilter{}},
		{&stats.PublishedPosts, repository.PostFilter{IsPublished: published}},
		{&stats.DraftPosts, repository.PostFilter{IsPublished: draft}},
		{&stats.FeaturedPosts, repository.PostFilter{IsPublished: published, IsFeatured: published}},
		{&stats.RecentPosts, repository.PostFilter{IsPublished: published, PublishedSince: &since}},
	}
	for _, c := range counts {
		n, err := s.repo.Count(ctx, c.filter)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	views, err := s.repo.SumViews(ctx, repository.PostFilter{IsPublished: published})
	if err != nil {
		return nil, err
	}
	stats.TotalViews = views

	for _, c := range models.AllCategories {
		n, err := s.repo.Count(ctx, repository.PostFilter{
			IsPublished: published,
			Categories:  []models.Category{c},
		})
		if err != nil {
			return nil, err
		}
		stats.PostsByCategory[c] = n
	}
	return stats, nil
}

func emptyStatistics() *models.BlogStatistics {
	stats := &models.BlogStatistics{
		PostsByCategory:  make(map[models.Category]int64, len(models.AllCategories)),
		RecentWindowDays: RecentWindowDays,
	}
	for _, c := range models.AllCategories {
		stats.PostsByCategory[c] = 0
	}
	return stats
}
