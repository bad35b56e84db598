package service

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"penloft/internal/models"
	"penloft/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_SignUp(t *testing.T) {
	t.Parallel()
	store := repository.NewMemoryStore()
	svc := NewUserService(store, store)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, SignUpInput{Username: "AliciaKeys", Email: "Alicia@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "AliciaKeys", user.Name)
	assert.Equal(t, models.DefaultBio, user.Bio)
	assert.NotEmpty(t, user.Fuid)
	assert.NotEqual(t, "secret1", user.Password)

	authed, err := svc.Authenticate(ctx, "alicia@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = svc.Authenticate(ctx, "alicia@example.com", "wrong")
	assertAppError(t, err, "UNAUTHORIZED")
	_, err = svc.Authenticate(ctx, "nobody@example.com", "secret1")
	assertAppError(t, err, "UNAUTHORIZED")
}

func TestUserService_SignUpRejectsTakenUsername(t *testing.T) {
	t.Parallel()
	store := repository.NewMemoryStore()
	svc := NewUserService(store, store)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpInput{Username: "AliciaKeys", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.SignUp(ctx, SignUpInput{Username: "aliciakeys", Email: "b@example.com", Password: "secret1"})
	appErr := assertAppError(t, err, "CONFLICT")
	assert.Equal(t, "username", appErr.Field)
	assert.Nil(t, user)

	_, err = svc.SignUp(ctx, SignUpInput{Username: "someoneelse", Email: "A@example.com", Password: "secret1"})
	appErr = assertAppError(t, err, "CONFLICT")
	assert.Equal(t, "email", appErr.Field)
}

func TestUserService_SignUpValidation(t *testing.T) {
	t.Parallel()
	svc := NewUserService(repository.NewMemoryStore(), repository.NewMemoryStore())

	tests := []struct {
		name  string
		in    SignUpInput
		field string
	}{
		{"short username", SignUpInput{Username: "ab", Email: "a@example.com", Password: "secret1"}, "username"},
		{"bad email", SignUpInput{Username: "abc", Email: "nope", Password: "secret1"}, "email"},
		{"short password", SignUpInput{Username: "abc", Email: "a@example.com", Password: "12345"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(context.Background(), tt.in)
			assertValidationError(t, err, tt.field)
		})
	}
}

func TestUserService_ResolveByFuid(t *testing.T) {
	t.Parallel()
	store := repository.NewMemoryStore()
	svc := NewUserService(store, store)
	ctx := context.Background()

	first, err := svc.ResolveByFuid(ctx, Identity{Fuid: "ext-1", Email: "dana.lee@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "danalee", first.Username)
	assert.Equal(t, "danalee", first.Name)

	again, err := svc.ResolveByFuid(ctx, Identity{Fuid: "ext-1", Email: "dana.lee@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	second, err := svc.ResolveByFuid(ctx, Identity{Fuid: "ext-2", Email: "DanaLee@other.org"})
	require.NoError(t, err)
	assert.Equal(t, "danalee2", second.Username)

	anon, err := svc.ResolveByFuid(ctx, Identity{Fuid: "ext-3"})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^user\d{4}$`), anon.Username)

	_, err = svc.ResolveByFuid(ctx, Identity{})
	assertAppError(t, err, "UNAUTHORIZED")

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestDeriveUsername(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ben_carter", DeriveUsername("Ben_Carter@example.com"))
	assert.Equal(t, "chloe-d", DeriveUsername("-chloe-d-@example.com"))
	assert.Regexp(t, `^user\d{4}$`, DeriveUsername("x@example.com"))
	assert.Regexp(t, `^user\d{4}$`, DeriveUsername(""))
	assert.LessOrEqual(t, len(DeriveUsername(fmt.Sprintf("%040d@example.com", 1))), 27)
}

func TestUserService_Profile(t *testing.T) {
	t.Parallel()
	store := repository.NewMemoryStore()
	author := seedAuthor(t, store, "aliciakeys")
	ctx := context.Background()
	for i, likes := range []int{128, 150} {
		_, err := store.CreatePost(ctx, repository.NewPost{
			Slug: fmt.Sprintf("p-%d", i), Title: "Post", Content: validContent,
			AuthorID: author.ID, Category: models.CategoryLifestyle, Likes: likes,
		})
		require.NoError(t, err)
	}
	svc := NewUserService(store, store)

	p, err := svc.Profile(ctx, "AliciaKeys")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stats.PostCount)
	assert.Equal(t, 278, p.Stats.TotalLikes)
	assert.Len(t, p.Posts, 2)

	_, err = svc.Profile(ctx, "ghost")
	assertAppError(t, err, "NOT_FOUND")

	ok, err := svc.UsernameAvailable(ctx, "ALICIAKEYS")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = svc.UsernameAvailable(ctx, "newname")
	require.NoError(t, err)
	assert.True(t, ok)
}
