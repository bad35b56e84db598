package repository

import (
	"context"
	"errors"
	"strings"

	"penloft/internal/cache"
	"penloft/internal/models"
	"penloft/internal/observability"

	"gorm.io/gorm"
)

type userRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewUserRepository returns a GORM-backed UserRepository. c may be nil.
func NewUserRepository(db *gorm.DB, c *cache.Cache) UserRepository {
	return &userRepository{db: db, cache: c}
}

func (r *userRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	_, err := r.cache.Aside(ctx, "users", cache.UserListKey, &users, cache.UserTTL, func() (bool, error) {
		defer observability.TrackQuery("list", "users")()
		if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
			return false, models.NewInternalError(err)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	found, err := r.cache.Aside(ctx, "user", cache.UserKey(id), &user, cache.UserTTL, func() (bool, error) {
		return r.first(ctx, &user, "id = ?", id)
	})
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.lookup(ctx, "username_key = ?", models.UsernameKey(username))
}

func (r *userRepository) GetUserByFuid(ctx context.Context, fuid string) (*models.User, error) {
	if fuid == "" {
		return nil, nil
	}
	return r.lookup(ctx, "fuid = ?", fuid)
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	return r.lookup(ctx, "email = ?", email)
}

func (r *userRepository) DoesUsernameExist(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username_key = ?", models.UsernameKey(username)).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) CreateNewUser(ctx context.Context, in NewUser) (*models.User, error) {
	taken, err := r.DoesUsernameExist(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.ErrUsernameTaken
	}

	user := in.toModel()
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, models.ErrUsernameTaken
		}
		return nil, models.NewInternalError(err)
	}
	r.cache.Invalidate(ctx, cache.UserListKey)
	return &user, nil
}

func (r *userRepository) lookup(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	found, err := r.first(ctx, &user, query, arg)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) first(ctx context.Context, dest *models.User, query string, arg any) (bool, error) {
	defer observability.TrackQuery("get", "users")()
	if err := r.db.WithContext(ctx).Where(query, arg).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, models.NewInternalError(err)
	}
	return true, nil
}
