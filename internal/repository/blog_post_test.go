package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chronicle/internal/models"
	"chronicle/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuthor = uuid.MustParse("6f1c1c5e-9a8e-4d4e-9c55-3f7b0c1d2e3f")

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func newPost(title, slug string, published bool, cats ...models.Category) *models.BlogPost {
	p := &models.BlogPost{
		ID:         uuid.New(),
		Title:      title,
		Slug:       slug,
		Content:    "Body text for " + title,
		AuthorID:   testAuthor,
		Categories: models.NormalizeCategories(cats),
	}
	if published {
		at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		p.IsPublished = true
		p.PublishedAt = &at
	}
	return p
}

func createPosts(t *testing.T, repo BlogPostRepository, posts ...*models.BlogPost) {
	t.Helper()
	for _, p := range posts {
		require.NoError(t, repo.Create(context.Background(), p))
	}
}

func TestBlogPostRepository_CreateAndFind(t *testing.T) {
	repo := NewBlogPostRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	p := newPost("Launch Day", "launch-day", true, models.CategoryAchievements, models.CategoryNewsroom)
	p.Excerpt = strPtr("short")
	require.NoError(t, repo.Create(ctx, p))
	assert.False(t, p.CreatedAt.IsZero())

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch Day", got.Title)
	assert.Equal(t, "launch-day", got.Slug)
	assert.Equal(t, "short", *got.Excerpt)
	assert.ElementsMatch(t, []models.Category{models.CategoryAchievements, models.CategoryNewsroom}, got.Categories)
	assert.Equal(t, int64(0), got.ViewCount)

	bySlug, err := repo.FindBySlug(ctx, "launch-day", true)
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySlug.ID)
}

func TestBlogPostRepository_FindMissing(t *testing.T) {
	repo := NewBlogPostRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	_, err := repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	draft := newPost("Draft Post", "draft-post", false)
	createPosts(t, repo, draft)

	_, err = repo.FindBySlug(ctx, "draft-post", true)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := repo.FindBySlug(ctx, "draft-post", false)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
}

func TestBlogPostRepository_DuplicateSlug(t *testing.T) {
	repo := NewBlogPostRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	createPosts(t, repo, newPost("First", "same-slug", false))

	err := repo.Create(ctx, newPost("Second", "same-slug", false))
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	other := newPost("Third", "other-slug", false)
	createPosts(t, repo, other)
	other.Slug = "same-slug"
	assert.ErrorIs(t, repo.Update(ctx, other, false), ErrDuplicateSlug)
}

func TestBlogPostRepository_SlugExists(t *testing.T) {
	repo := NewBlogPostRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	p := newPost("Hello", "hello", false)
	createPosts(t, repo, p)

	exists, err := repo.SlugExists(ctx, "hello", nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SlugExists(ctx, "hello", &p.ID)
	require.NoError(t, err)
	assert.False(t, exists, "a post does not collide with itself")

	exists, err = repo.SlugExists(ctx, "hello-1", nil)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBlogPostRepository_FindMany_Filters(t *testing.T) {
	repo := NewBlogPostRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	a := newPost("Quarterly Results", "quarterly-results", true, models.CategoryNewsroom)
	b := newPost("Award Season", "award-season", true, models.CategoryAwardsRecognition, models.CategoryAchievements)
	b.IsFeatured = true
	c := newPost("Thinking Aloud", "thinking-aloud", false, models.CategoryThoughtPieces)
	c.Excerpt = strPtr("Notes on 100% uptime")
	createPosts(t, repo, a, b, c)

	tests := []struct {
		name  string
		query PostQuery
		want  []uuid.UUID
	}{
		{"all", PostQuery{}, []uuid.UUID{a.ID, b.ID, c.ID}},
		{"published", PostQuery{PostFilter: PostFilter{IsPublished: boolPtr(true)}}, []uuid.UUID{a.ID, b.ID}},
		{"drafts", PostQuery{PostFilter: PostFilter{IsPublished: boolPtr(false)}}, []uuid.UUID{c.ID}},
		{"featured", PostQuery{PostFilter: PostFilter{IsFeatured: boolPtr(true)}}, []uuid.UUID{b.ID}},
		{"search title case-insensitive", PostQuery{PostFilter: PostFilter{Search: "QUARTERLY"}}, []uuid.UUID{a.ID}},
		{"search excerpt", PostQuery{PostFilter: PostFilter{Search: "uptime"}}, []uuid.UUID{c.ID}},
		{"search percent is literal", PostQuery{PostFilter: PostFilter{Search: "100%"}}, []uuid.UUID{c.ID}},
		{"search underscore is literal", PostQuery{PostFilter: PostFilter{Search: "_"}}, nil},
		{"category containment", PostQuery{PostFilter: PostFilter{Categories: []models.Category{models.CategoryAchievements}}}, []uuid.UUID{b.ID}},
		{"category intersection", PostQuery{PostFilter: PostFilter{Categories: []models.Category{models.CategoryNewsroom, models.CategoryThoughtPieces}}}, []uuid.UUID{a.ID, c.ID}},
		{"author", PostQuery{PostFilter: PostFilter{AuthorID: &testAuthor}}, []uuid.UUID{a.ID, b.ID, c.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, total, err := repo.FindMany(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			ids := make([]uuid.UUID, 0, len(posts))
			for _, p := range posts {
				ids = append(ids, p.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestBlogPostRepository_FindMany_SearchFoldsNonASCII(t *testing.T) {
	repo := NewBlogPostRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	upper := newPost("ÉTÉ Festival recap", "ete-festival-recap", true)
	mixed := newPost("Café notes", "cafe-notes", true)
	mixed.Excerpt = strPtr("Straße ÖFFNUNG")
	createPosts(t, repo, upper, mixed)

	tests := []struct {
		term string
		want []uuid.UUID
	}{
		{"ÉTÉ", []uuid.UUID{upper.ID}},
		{"été", []uuid.UUID{upper.ID}},
		{"Été festival", []uuid.UUID{upper.ID}},
		{"CAFÉ", []uuid.UUID{mixed.ID}},
		{"öffnung", []uuid.UUID{mixed.ID}},
		{"ete", nil},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			posts, total, err := repo.FindMany(ctx, PostQuery{PostFilter: PostFilter{Search: tt.term}})
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			ids := make([]uuid.UUID, 0, len(posts))
			for _, p := range posts {
				ids = append(ids, p.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestBlogPostRepository_UpdateRefreshesSearchText(t *testing.T) {
	repo := NewBlogPostRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	p := newPost("Original headline", "original-headline", true)
	createPosts(t, repo, p)

	p.Title = "NOUVEAUTÉ headline"
	require.NoError(t, repo.Update(ctx, p, false))

	n, err := repo.Count(ctx, PostFilter{Search: "nouveauté"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.Count(ctx, PostFilter{Search: "original"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBlogPostRepository_FindMany_PaginationAndOrder(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewBlogPostRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 23; i++ {
		p := newPost("Post", "post-"+uuid.NewString()[:8], true)
		at := base.Add(time.Duration(i) * time.Minute)
		p.PublishedAt = &at
		createPosts(t, repo, p)
		ids = append(ids, p.ID)
	}

	page3, total, err := repo.FindMany(ctx, PostQuery{Sort: SortPublishedDesc, Offset: 20, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(23), total)
	require.Len(t, page3, 3)
	// Oldest three, newest first.
	assert.Equal(t, ids[2], page3[0].ID)
	assert.Equal(t, ids[0], page3[2].ID)

	first, _, err := repo.FindMany(ctx, PostQuery{Sort: SortPublishedDesc, Limit: 1, SkipCount: true})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, ids[22], first[0].ID)
}

func TestBlogPostRepository_UpdateReplacesCategoriesAndKeepsViews(t *testing.T) {
	repo := NewBlogPostRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	p := newPost("Original", "original", true, models.CategoryNewsroom)
	createPosts(t, repo, p)

	stale, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	_, err = repo.IncrementViews(ctx, "original")
	require.NoError(t, err)

	stale.Title = "Renamed"
	stale.Categories = []models.Category{models.CategoryThoughtPieces}
	require.NoError(t, repo.Update(ctx, stale, true))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, []models.Category{models.CategoryThoughtPieces}, got.Categories)
	assert.Equal(t, int64(1), got.ViewCount, "update must not clobber concurrent view increments")

	missing := newPost("Ghost", "ghost", false)
	assert.ErrorIs(t, repo.Update(ctx, missing, false), ErrNotFound)
}

func TestBlogPostRepository_IncrementViews_Concurrent(t *testing.T) {
	repo := NewBlogPostRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	p := newPost("Popular", "popular", true)
	p.ViewCount = 5
	createPosts(t, repo, p)

	var wg sync.WaitGroup
	results := make([]int64, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.IncrementViews(ctx, "popular")
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.ElementsMatch(t, []int64{6, 7}, results)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ViewCount)
}

func TestBlogPostRepository_IncrementViews_DraftNotFound(t *testing.T) {
	repo := NewBlogPostRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	createPosts(t, repo, newPost("Hidden", "hidden", false))

	_, err := repo.IncrementViews(ctx, "hidden")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.IncrementViews(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlogPostRepository_Delete(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewBlogPostRepository(db)
	ctx := context.Background()

	p := newPost("Doomed", "doomed", false, models.CategoryNewsroom, models.CategoryAchievements)
	createPosts(t, repo, p)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err := repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var links int64
	require.NoError(t, db.Model(&models.BlogPostCategory{}).Where("blog_post_id = ?", p.ID).Count(&links).Error)
	assert.Zero(t, links)

	assert.ErrorIs(t, repo.Delete(ctx, p.ID), ErrNotFound)
}

func TestBlogPostRepository_CountAndSum(t *testing.T) {
	repo := NewBlogPostRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	a := newPost("One", "one", true, models.CategoryNewsroom)
	a.ViewCount = 10
	b := newPost("Two", "two", true, models.CategoryAchievements)
	b.ViewCount = 4
	c := newPost("Three", "three", false)
	c.ViewCount = 100
	createPosts(t, repo, a, b, c)

	published := PostFilter{IsPublished: boolPtr(true)}
	n, err := repo.Count(ctx, published)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	sum, err := repo.SumViews(ctx, published)
	require.NoError(t, err)
	assert.Equal(t, int64(14), sum)

	n, err = repo.Count(ctx, PostFilter{IsPublished: boolPtr(true), Categories: []models.Category{models.CategoryNewsroom}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	empty, err := repo.SumViews(ctx, PostFilter{IsFeatured: boolPtr(true)})
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestBlogPostRepository_StorageFailure(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewBlogPostRepository(db)

	mock.ExpectQuery(testutil.QuoteSQL(`SELECT count(*) FROM "blog_posts"`)).
		WillReturnError(errors.New("connection refused"))

	posts, total, err := repo.FindMany(context.Background(), PostQuery{})
	require.Error(t, err)
	assert.Nil(t, posts)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\dir`, escapeLike(`c:\dir`))
}

func TestTranslateWriteError(t *testing.T) {
	assert.ErrorIs(t, translateWriteError(errors.New("UNIQUE constraint failed: blog_posts.slug")), ErrDuplicateSlug)
	assert.ErrorIs(t, translateWriteError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_blog_posts_slug"`)), ErrDuplicateSlug)
	other := errors.New("disk full")
	assert.Equal(t, other, translateWriteError(other))
}
