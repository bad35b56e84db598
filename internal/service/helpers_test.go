package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"penloft/internal/models"
	"penloft/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func assertValidationError(t *testing.T, err error, field string) {
	t.Helper()
	appErr := assertAppError(t, err, "VALIDATION_ERROR")
	assert.Equal(t, field, appErr.Field)
}

// postRepoStub overrides individual PostRepository methods on top of a
// MemoryStore.
type postRepoStub struct {
	*repository.MemoryStore
	getPostsFn   func(context.Context) ([]models.Post, error)
	getBySlugFn  func(context.Context, string) (*models.Post, error)
	createPostFn func(context.Context, repository.NewPost) (*models.Post, error)
}

func (s *postRepoStub) GetPosts(ctx context.Context) ([]models.Post, error) {
	if s.getPostsFn != nil {
		return s.getPostsFn(ctx)
	}
	return s.MemoryStore.GetPosts(ctx)
}

func (s *postRepoStub) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	if s.getBySlugFn != nil {
		return s.getBySlugFn(ctx, slug)
	}
	return s.MemoryStore.GetPostBySlug(ctx, slug)
}

func (s *postRepoStub) CreatePost(ctx context.Context, in repository.NewPost) (*models.Post, error) {
	if s.createPostFn != nil {
		return s.createPostFn(ctx, in)
	}
	return s.MemoryStore.CreatePost(ctx, in)
}

type recordingEvents struct {
	mu    sync.Mutex
	posts []models.Post
}

func (r *recordingEvents) PostCreated(_ context.Context, post models.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, post)
}

func seedAuthor(t *testing.T, store *repository.MemoryStore, username string) *models.User {
	t.Helper()
	u, err := store.CreateNewUser(context.Background(), repository.NewUser{
		Fuid:     "fuid-" + username,
		Username: username,
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
	return u
}
