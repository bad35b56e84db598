package seed

import (
	"context"
	"testing"

	"penloft/internal/database"
	"penloft/internal/feed"
	"penloft/internal/models"
	"penloft/internal/repository"
	"penloft/internal/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

type repos struct {
	users repository.UserRepository
	posts repository.PostRepository
}

func backends(t *testing.T) map[string]repos {
	t.Helper()
	mem := repository.NewMemoryStore()

	db, err := database.Open(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return map[string]repos{
		"memory": {users: mem, posts: mem},
		"gorm": {
			users: repository.NewUserRepository(db, nil),
			posts: repository.NewPostRepository(db, nil),
		},
	}
}

func TestLoadFixture(t *testing.T) {
	f, err := LoadFixture()
	require.NoError(t, err)
	require.Len(t, f.Users, 3)
	require.Len(t, f.Posts, 6)

	slugs := map[string]struct{}{}
	for _, p := range f.Posts {
		assert.NoError(t, validation.ValidatePost(p.Title, p.Content, models.Category(p.Category), p.Tags), p.Title)
		assert.False(t, p.CreatedAt.IsZero(), p.Title)
		slugs[p.Slug()] = struct{}{}
	}
	assert.Len(t, slugs, 6, "fixture slugs are unique")
	assert.Equal(t, "mastering-typescript-for-modern-web-development-00000001", f.Posts[0].Slug())
}

func TestParseFixture_Rejects(t *testing.T) {
	tests := map[string]string{
		"bad yaml":         "users: [",
		"user without id":  "users:\n  - username: x\n",
		"unknown author":   "users:\n  - {fuid: a, username: amy}\nposts:\n  - {author: bob, category: Code, title: t}\n",
		"unknown category": "users:\n  - {fuid: a, username: amy}\nposts:\n  - {author: amy, category: Gardening, title: t}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFixture([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestBuiltins_IsIdempotent(t *testing.T) {
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			res, err := Builtins(ctx, r.users, r.posts)
			require.NoError(t, err)
			assert.Equal(t, Result{UsersCreated: 3, PostsCreated: 6}, res)

			res, err = Builtins(ctx, r.users, r.posts)
			require.NoError(t, err)
			assert.Equal(t, Result{}, res)

			users, err := r.users.GetUsers(ctx)
			require.NoError(t, err)
			assert.Len(t, users, 3)

			posts, err := r.posts.GetPosts(ctx)
			require.NoError(t, err)
			require.Len(t, posts, 6)
			assert.Equal(t, "Mastering TypeScript for Modern Web Development", posts[0].Title)
			assert.Equal(t, "How to Build a Powerful Personal Brand", posts[5].Title)
		})
	}
}

func TestBuiltins_SeedDataBehaviour(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	_, err := Builtins(ctx, store, store)
	require.NoError(t, err)

	alicia, err := store.GetUserByUsername(ctx, "aliciakeys")
	require.NoError(t, err)
	require.NotNil(t, alicia)
	assert.Equal(t, "Alicia Keys", alicia.Name)
	assert.Equal(t, models.DefaultAvatarURL, alicia.AvatarURL)

	posts, err := store.GetPosts(ctx)
	require.NoError(t, err)

	hits := feed.FilterBySubstring(posts, "ty")
	require.Len(t, hits, 1)
	assert.Equal(t, "Mastering TypeScript for Modern Web Development", hits[0].Title)

	mine, err := store.GetPostsByUser(ctx, alicia.ID)
	require.NoError(t, err)
	total := 0
	for _, p := range mine {
		total += p.Likes
	}
	assert.Len(t, mine, 2)
	assert.Equal(t, 278, total)
}

func TestBuiltins_KeepsExistingUserWithSameFuid(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	f, err := LoadFixture()
	require.NoError(t, err)
	_, err = store.CreateNewUser(ctx, repository.NewUser{
		Fuid:     f.Users[0].Fuid,
		Username: "renamed",
	})
	require.NoError(t, err)

	res, err := Builtins(ctx, store, store)
	require.NoError(t, err)
	assert.Equal(t, 2, res.UsersCreated)
	assert.Equal(t, 6, res.PostsCreated)

	renamed, err := store.GetUserByUsername(ctx, "renamed")
	require.NoError(t, err)
	posts, err := store.GetPostsByUser(ctx, renamed.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestBuiltins_SkipsUsernameHeldByAnotherAccount(t *testing.T) {
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			other, err := r.users.CreateNewUser(ctx, repository.NewUser{
				Fuid:     "someone-else",
				Username: "AliciaKeys",
			})
			require.NoError(t, err)

			res, err := Builtins(ctx, r.users, r.posts)
			require.NoError(t, err)
			assert.Equal(t, Result{UsersCreated: 2, PostsCreated: 4, UsersSkipped: 1, PostsSkipped: 2}, res)

			mine, err := r.posts.GetPostsByUser(ctx, other.ID)
			require.NoError(t, err)
			assert.Empty(t, mine)

			res, err = Builtins(ctx, r.users, r.posts)
			require.NoError(t, err)
			assert.Equal(t, Result{UsersSkipped: 1, PostsSkipped: 2}, res)
		})
	}
}
