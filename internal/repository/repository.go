// Package repository implements the data access layer for the application.
//
// Lookups return (nil, nil) when the key does not exist; errors are reserved
// for infrastructure faults. Creation reports rule violations through the
// sentinel errors in package models.
package repository

import (
	"context"
	"strings"
	"time"

	"penloft/internal/models"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByFuid(ctx context.Context, fuid string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	DoesUsernameExist(ctx context.Context, username string) (bool, error)
	CreateNewUser(ctx context.Context, in NewUser) (*models.User, error)
}

// PostRepository defines persistence operations for posts. Listing methods
// return posts newest first with Author populated.
type PostRepository interface {
	GetPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.Post, error)
	GetPostsByUser(ctx context.Context, userID uint) ([]models.Post, error)
	CreatePost(ctx context.Context, in NewPost) (*models.Post, error)
}

// NewUser is the input to CreateNewUser. Empty Name, AvatarURL and Bio get
// the defaults.
type NewUser struct {
	Fuid         string
	Username     string
	Name         string
	Email        string
	PasswordHash string
	AvatarURL    string
	Bio          string
}

func (in NewUser) toModel() models.User {
	u := models.User{
		Fuid:      in.Fuid,
		Username:  strings.TrimSpace(in.Username),
		Name:      in.Name,
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Password:  in.PasswordHash,
		AvatarURL: in.AvatarURL,
		Bio:       in.Bio,
	}
	if u.Name == "" {
		u.Name = u.Username
	}
	if u.AvatarURL == "" {
		u.AvatarURL = models.DefaultAvatarURL
	}
	if u.Bio == "" {
		u.Bio = models.DefaultBio
	}
	u.UsernameKey = models.UsernameKey(u.Username)
	return u
}

// NewPost is the input to CreatePost. A zero CreatedAt means now.
type NewPost struct {
	Slug         string
	Title        string
	Content      string
	AuthorID     uint
	Category     models.Category
	Tags         []string
	ImageURL     string
	Likes        int
	IsBookmarked bool
	CreatedAt    time.Time
}

func (in NewPost) toModel(now time.Time) models.Post {
	p := models.Post{
		Slug:         in.Slug,
		Title:        in.Title,
		Content:      in.Content,
		AuthorID:     in.AuthorID,
		Category:     in.Category,
		Tags:         append([]string{}, in.Tags...),
		ImageURL:     in.ImageURL,
		Likes:        in.Likes,
		IsBookmarked: in.IsBookmarked,
		CreatedAt:    in.CreatedAt,
	}
	if p.ImageURL == "" {
		p.ImageURL = models.DefaultPostImageURL
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505; SQLite reports "UNIQUE constraint failed".
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
