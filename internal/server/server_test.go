package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"penloft/internal/config"
	"penloft/internal/models"
	"penloft/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

const longContent = "This post explores practical techniques for writing maintainable services in a typed language."

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	args := m.Called(ctx, prompt, schema)
	return args.String(0), args.Error(1)
}

type testEnv struct {
	srv   *Server
	app   *fiber.App
	store *repository.MemoryStore
	mr    *miniredis.Miniredis
	rdb   *redis.Client
	gen   *mockGenerator
}

func newTestEnv(t *testing.T, flags string) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := repository.NewMemoryStore()
	gen := new(mockGenerator)

	cfg := &config.Config{
		JWTSecret:           testSecret,
		JWTTTLHours:         1,
		Env:                 "test",
		StorageDriver:       config.StorageMemory,
		FeatureFlags:        flags,
		GenAITimeoutSeconds: 5,
	}
	srv, err := NewServer(cfg, Deps{
		Redis:     rdb,
		Users:     store,
		Posts:     store,
		Generator: gen,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.hub.Shutdown(context.Background()) })

	return &testEnv{srv: srv, app: srv.App(), store: store, mr: mr, rdb: rdb, gen: gen}
}

// do sends a request and returns the status and raw body. body may be nil,
// a string, or any JSON-encodable value.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
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

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (e *testEnv) token(t *testing.T, fuid, email string) string {
	t.Helper()
	tok, err := e.srv.generateToken(fuid, email)
	require.NoError(t, err)
	return tok
}

// seedUser creates a user and returns it with a token for its fuid.
func (e *testEnv) seedUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	u, err := e.store.CreateNewUser(context.Background(), repository.NewUser{
		Fuid:     "fuid-" + username,
		Username: username,
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
	return u, e.token(t, u.Fuid, u.Email)
}

func (e *testEnv) seedPost(t *testing.T, author *models.User, slug, title string, category models.Category, likes int, at time.Time) *models.Post {
	t.Helper()
	p, err := e.store.CreatePost(context.Background(), repository.NewPost{
		Slug:      slug,
		Title:     title,
		Content:   longContent,
		AuthorID:  author.ID,
		Category:  category,
		Tags:      []string{"go"},
		Likes:     likes,
		CreatedAt: at,
	})
	require.NoError(t, err)
	return p
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestNewServer_RequiresRepositories(t *testing.T) {
	_, err := NewServer(&config.Config{}, Deps{})
	assert.Error(t, err)

	_, err = NewServer(nil, Deps{Users: repository.NewMemoryStore(), Posts: repository.NewMemoryStore()})
	assert.Error(t, err)
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t, "")

	status, _ := env.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, body := env.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, status)
	ready := decode[map[string]any](t, body)
	assert.Equal(t, "healthy", ready["status"])
	checks := ready["checks"].(map[string]any)
	assert.Equal(t, "disabled", checks["database"])
	assert.Equal(t, "healthy", checks["redis"])

	env.mr.Close()
	status, body = env.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", decode[map[string]any](t, body)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	status, body := env.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "# HELP")
}

func TestSwaggerDoc(t *testing.T) {
	env := newTestEnv(t, "")

	status, body := env.do(t, http.MethodGet, "/api/swagger/doc.json", nil, "")
	require.Equal(t, http.StatusOK, status)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "PenLoft API", doc.Info.Title)
	assert.Equal(t, "/api", doc.BasePath)
	assert.Contains(t, doc.Paths, "/posts/{slug}")
	assert.Contains(t, doc.Paths["/posts"], "post")
}

func TestUnknownRouteIs404(t *testing.T) {
	env := newTestEnv(t, "")

	status, _ := env.do(t, http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFeedWebsocket(t *testing.T) {
	t.Run("plain GET needs upgrade", func(t *testing.T) {
		env := newTestEnv(t, "live_feed=on")
		status, _ := env.do(t, http.MethodGet, "/api/ws/feed", nil, "")
		assert.Equal(t, http.StatusUpgradeRequired, status)
	})

	t.Run("disabled flag hides the socket", func(t *testing.T) {
		env := newTestEnv(t, "live_feed=off")
		status, body := env.do(t, http.MethodGet, "/api/ws/feed", nil, "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Contains(t, string(body), "FEATURE_DISABLED")
	})
}
