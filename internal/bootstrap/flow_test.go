package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"penloft/internal/config"
	"penloft/internal/models"
	"penloft/internal/profile"
	"penloft/internal/server"
	"penloft/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlowApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{
		Env:           "test",
		StorageDriver: config.StorageSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "flow.db"),
		RedisURL:      "redis://" + mr.Addr(),
		JWTSecret:     "flow-test-secret-that-is-long-enough-32",
		JWTTTLHours:   1,
		FeatureFlags:  "live_feed=on",
	}

	rt, err := InitRuntime(ctx, cfg, Options{SeedBuiltins: true, SkipGenerator: true})
	require.NoError(t, err)

	srv, err := server.NewServer(cfg, rt.Deps())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = srv.Shutdown(ctx)
		_ = rt.Close(ctx)
	})
	return srv.App()
}

func flowReq(t *testing.T, app *fiber.App, method, path, token string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestSignupPublishAndBrowseFlow(t *testing.T) {
	app := newFlowApp(t)

	// 1. Sign up
	resp, raw := flowReq(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "gopher_gail",
		"email":    "gail@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var signup struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(raw, &signup))
	require.NotEmpty(t, signup.Token)

	// 2. Publish
	resp, raw = flowReq(t, app, http.MethodPost, "/api/posts", signup.Token, map[string]any{
		"title":    "Notes on writing Go services",
		"content":  "Small packages, explicit errors and boring concurrency make Go services pleasant to run.",
		"category": "Code",
		"tag_list": "Go, services, go",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var created models.Post
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, []string{"Go", "services"}, created.Tags)

	// 3. Newest first in the feed, after the built-ins
	resp, raw = flowReq(t, app, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var posts []models.Post
	require.NoError(t, json.Unmarshal(raw, &posts))
	require.Len(t, posts, 7)
	assert.Equal(t, created.Slug, posts[0].Slug)

	// 4. Post page carries the author and related posts
	resp, raw = flowReq(t, app, http.MethodGet, "/api/posts/"+created.Slug, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page service.PostPage
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Equal(t, "gopher_gail", page.Author.Username)
	for _, r := range page.Related {
		assert.NotEqual(t, created.Slug, r.Slug)
	}

	// 5. Profile aggregates the new post
	resp, raw = flowReq(t, app, http.MethodGet, "/api/users/gopher_gail", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prof profile.Profile
	require.NoError(t, json.Unmarshal(raw, &prof))
	assert.Equal(t, 1, prof.Stats.PostCount)

	// 6. Search still finds seeded content
	resp, raw = flowReq(t, app, http.MethodGet, "/api/posts/search?q=ty", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var search struct {
		Posts []models.Post `json:"posts"`
		Open  bool          `json:"open"`
	}
	require.NoError(t, json.Unmarshal(raw, &search))
	assert.True(t, search.Open)
	titles := make([]string, 0, len(search.Posts))
	for _, p := range search.Posts {
		titles = append(titles, p.Title)
	}
	assert.Contains(t, titles, "Mastering TypeScript for Modern Web Development")

	// 7. Logout revokes the token
	resp, _ = flowReq(t, app, http.MethodPost, "/api/auth/logout", signup.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = flowReq(t, app, http.MethodGet, "/api/users/me", signup.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
