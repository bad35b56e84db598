package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"penloft/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRuntime_MemorySeeded(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{StorageDriver: config.StorageMemory, Env: "test"}

	rt, err := InitRuntime(ctx, cfg, Options{SeedBuiltins: true})
	require.NoError(t, err)
	defer func() { assert.NoError(t, rt.Close(ctx)) }()

	assert.Nil(t, rt.DB)
	assert.Nil(t, rt.Redis)
	assert.Nil(t, rt.Generator)

	posts, err := rt.Posts.GetPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 6)

	deps := rt.Deps()
	assert.Same(t, rt.Users, deps.Users)
}

func TestInitRuntime_SQLiteWithRedis(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := &config.Config{
		StorageDriver: config.StorageSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "penloft.db"),
		RedisURL:      "redis://" + mr.Addr(),
		Env:           "test",
	}

	rt, err := InitRuntime(ctx, cfg, Options{SeedBuiltins: true, SkipGenerator: true})
	require.NoError(t, err)
	defer func() { assert.NoError(t, rt.Close(ctx)) }()

	require.NotNil(t, rt.DB)
	require.NotNil(t, rt.Redis)

	users, err := rt.Users.GetUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	post, err := rt.Posts.GetPostBySlug(ctx, "the-art-of-minimalist-design-00000002")
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.True(t, mr.Exists("post:slug:the-art-of-minimalist-design-00000002"))
}

func TestInitRuntime_UnknownDriver(t *testing.T) {
	cfg := &config.Config{StorageDriver: "mongodb"}
	_, err := InitRuntime(context.Background(), cfg, Options{})
	assert.Error(t, err)
}

func TestInitRuntime_UnreachableRedisIsOptional(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{StorageDriver: config.StorageMemory, RedisURL: "redis://127.0.0.1:1"}

	rt, err := InitRuntime(ctx, cfg, Options{})
	require.NoError(t, err)
	defer func() { _ = rt.Close(ctx) }()
	assert.Nil(t, rt.Redis)
}
