package repository

import (
	"context"
	"errors"
	"time"

	"penloft/internal/cache"
	"penloft/internal/models"
	"penloft/internal/observability"

	"gorm.io/gorm"
)

const recencyOrder = "created_at DESC, id ASC"

type postRepository struct {
	db    *gorm.DB
	cache *cache.Cache
	now   func() time.Time
}

// NewPostRepository returns a GORM-backed PostRepository. c may be nil.
func NewPostRepository(db *gorm.DB, c *cache.Cache) PostRepository {
	return &postRepository{db: db, cache: c, now: time.Now}
}

func (r *postRepository) GetPosts(ctx context.Context) ([]models.Post, error) {
	posts := make([]models.Post, 0)
	_, err := r.cache.Aside(ctx, "posts", cache.PostListKey, &posts, cache.PostListTTL, func() (bool, error) {
		defer observability.TrackQuery("list", "posts")()
		if err := r.db.WithContext(ctx).Preload("Author").Order(recencyOrder).Find(&posts).Error; err != nil {
			return false, models.NewInternalError(err)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return r.lookup(ctx, "id = ?", id)
}

func (r *postRepository) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	found, err := r.cache.Aside(ctx, "post", cache.PostSlugKey(slug), &post, cache.PostTTL, func() (bool, error) {
		return r.first(ctx, &post, "slug = ?", slug)
	})
	if err != nil || !found {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetPostsByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	posts := make([]models.Post, 0)
	_, err := r.cache.Aside(ctx, "user_posts", cache.UserPostsKey(userID), &posts, cache.PostListTTL, func() (bool, error) {
		defer observability.TrackQuery("list_by_user", "posts")()
		if err := r.db.WithContext(ctx).Preload("Author").
			Where("author_id = ?", userID).
			Order(recencyOrder).
			Find(&posts).Error; err != nil {
			return false, models.NewInternalError(err)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) CreatePost(ctx context.Context, in NewPost) (*models.Post, error) {
	var author models.User
	if err := r.db.WithContext(ctx).First(&author, in.AuthorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrAuthorNotFound
		}
		return nil, models.NewInternalError(err)
	}

	post := in.toModel(r.now())
	defer observability.TrackQuery("create", "posts")()
	if err := r.db.WithContext(ctx).Omit("Author").Create(&post).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, models.ErrSlugTaken
		}
		return nil, models.NewInternalError(err)
	}
	post.Author = &author

	r.cache.Invalidate(ctx, cache.PostListKey, cache.UserPostsKey(in.AuthorID))
	return &post, nil
}

func (r *postRepository) lookup(ctx context.Context, query string, arg any) (*models.Post, error) {
	var post models.Post
	found, err := r.first(ctx, &post, query, arg)
	if err != nil || !found {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) first(ctx context.Context, dest *models.Post, query string, arg any) (bool, error) {
	defer observability.TrackQuery("get", "posts")()
	if err := r.db.WithContext(ctx).Preload("Author").Where(query, arg).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, models.NewInternalError(err)
	}
	return true, nil
}
