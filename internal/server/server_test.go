package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chronicle/internal/config"
	"chronicle/internal/models"
	"chronicle/internal/service"
	"chronicle/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "server-test-secret"

// These tests share the package-level cache client through NewServerWithDeps,
// so they do not run in parallel.

func newTestApp(t *testing.T) (*fiber.App, *Server) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	cfg := &config.Config{
		JWTSecret:       testJWTSecret,
		Port:            "0",
		Env:             "test",
		MaxUploadSizeMB: 1,
	}
	s, err := NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), nil)
	require.NoError(t, err)
	return s.NewApp(), s
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: subject})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createPost(t *testing.T, app *fiber.App, token string, body map[string]any) *models.BlogPost {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/admin/blog", token, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[*models.BlogPost](t, resp)
}

func TestHealthChecks(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "disabled", checks["redis"])
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/admin/blog", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/admin/blog", "garbage", map[string]any{"title": "Nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[models.ErrorResponse](t, resp)
	assert.Equal(t, models.CodeUnauthorized, body.Code)
}

func TestPostLifecycleOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)
	authorID := uuid.New()
	token := signToken(t, authorID.String())

	post := createPost(t, app, token, map[string]any{
		"title":      "Hello Chronicle",
		"content":    "The first post on the new platform.",
		"categories": []string{"achievements", "thought-pieces"},
	})
	assert.Equal(t, "hello-chronicle", post.Slug)
	assert.Equal(t, authorID, post.AuthorID)
	assert.False(t, post.IsPublished)
	assert.ElementsMatch(t, []models.Category{models.CategoryAchievements, models.CategoryThoughtPieces}, post.Categories)

	// Drafts are hidden from the public slug lookup.
	resp := doJSON(t, app, http.MethodGet, "/api/blog/hello-chronicle", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPatch, "/api/admin/blog/"+post.ID.String(), token, map[string]any{
		"isPublished": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[service.UpdateResult](t, resp)
	assert.Equal(t, models.TransitionPublished, result.Transition)
	assert.Equal(t, models.StatePublished, result.State)
	assert.NotNil(t, result.Post.PublishedAt)

	resp = doJSON(t, app, http.MethodGet, "/api/blog/hello-chronicle", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/blog/hello-chronicle/view", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode[map[string]any](t, resp)["viewCount"])

	resp = doJSON(t, app, http.MethodGet, "/api/blog?category=achievements", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[models.PaginatedPosts](t, resp)
	assert.EqualValues(t, 1, page.Total)

	resp = doJSON(t, app, http.MethodGet, "/api/blog/category/thought-pieces", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]*models.BlogPost](t, resp), 1)

	resp = doJSON(t, app, http.MethodGet, "/api/blog/search?q=platform", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]*models.BlogPost](t, resp), 1)

	resp = doJSON(t, app, http.MethodGet, "/api/admin/blog/stats", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[models.BlogStatistics](t, resp)
	assert.EqualValues(t, 1, stats.TotalPosts)
	assert.EqualValues(t, 1, stats.PublishedPosts)
	assert.EqualValues(t, 1, stats.TotalViews)
	assert.EqualValues(t, 1, stats.PostsByCategory[models.CategoryAchievements])

	resp = doJSON(t, app, http.MethodDelete, "/api/admin/blog/"+post.ID.String(), token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/admin/blog/"+post.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestErrorStatusMapping(t *testing.T) {
	app, _ := newTestApp(t)
	token := signToken(t, uuid.NewString())

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"short title", http.MethodPost, "/api/admin/blog", map[string]any{"title": "ab", "content": "long enough content"}, http.StatusBadRequest, models.CodeInvalidInput},
		{"featuring a draft", http.MethodPost, "/api/admin/blog", map[string]any{"title": "Draft Feature", "content": "long enough content", "isFeatured": true}, http.StatusUnprocessableEntity, models.CodeInvalidTransition},
		{"unknown category filter", http.MethodGet, "/api/blog?category=sports", nil, http.StatusBadRequest, models.CodeInvalidInput},
		{"unknown category path", http.MethodGet, "/api/blog/category/sports", nil, http.StatusBadRequest, models.CodeInvalidInput},
		{"bad author filter", http.MethodGet, "/api/admin/blog/author/not-a-uuid", nil, http.StatusBadRequest, models.CodeInvalidInput},
		{"bad id", http.MethodGet, "/api/admin/blog/not-a-uuid", nil, http.StatusBadRequest, models.CodeInvalidInput},
		{"bad boolean", http.MethodGet, "/api/admin/blog?isPublished=maybe", nil, http.StatusBadRequest, models.CodeInvalidInput},
		{"missing post", http.MethodPatch, "/api/admin/blog/" + uuid.NewString(), map[string]any{"title": "Whatever"}, http.StatusNotFound, models.CodeNotFound},
		{"view of missing post", http.MethodPost, "/api/blog/missing/view", nil, http.StatusNotFound, models.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode[models.ErrorResponse](t, resp)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestDuplicateTitlesGetSuffixedSlugs(t *testing.T) {
	app, _ := newTestApp(t)
	token := signToken(t, uuid.NewString())

	body := map[string]any{"title": "Same Title", "content": "long enough content"}
	first := createPost(t, app, token, body)
	second := createPost(t, app, token, body)

	assert.Equal(t, "same-title", first.Slug)
	assert.Equal(t, "same-title-1", second.Slug)
}

func TestUploadedImageServedPublicly(t *testing.T) {
	app, _ := newTestApp(t)
	token := signToken(t, uuid.NewString())

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	createPost(t, app, token, map[string]any{
		"title":       "Picture Post",
		"content":     "A post with a picture.",
		"isPublished": true,
		"uploadedImage": map[string]any{
			"data":     base64.StdEncoding.EncodeToString(buf.Bytes()),
			"filename": "dot.png",
		},
	})

	resp := doJSON(t, app, http.MethodGet, "/api/blog/picture-post/image", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), data)
}

func TestCategoriesEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/blog/categories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cats := decode[[]categoryInfo](t, resp)
	require.Len(t, cats, len(models.AllCategories))
	assert.Equal(t, models.AllCategories[0], cats[0].Value)
	assert.NotEmpty(t, cats[0].Label)
}

func TestRespondWithError_ForeignErrorIsInternal(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondWithError(c, errors.New("boom"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decode[models.ErrorResponse](t, resp)
	assert.Equal(t, "Internal server error", body.Error)
	assert.Empty(t, body.Code)
}

func TestParseCategories(t *testing.T) {
	app := fiber.New()
	var got []string
	app.Get("/", func(c *fiber.Ctx) error {
		got = parseCategories(c)
		return nil
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?category=achievements,%20newsroom&category=awards-recognition", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, []string{"achievements", "newsroom", "awards-recognition"}, got)
}
