package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"penloft/internal/feed"
	"penloft/internal/models"
)

// MemoryStore is an in-process UserRepository and PostRepository used for
// tests and STORAGE_DRIVER=memory. It honours the same contract as the GORM
// repositories.
type MemoryStore struct {
	mu     sync.RWMutex
	users  []models.User
	posts  []models.Post
	nextID struct{ user, post uint }
	now    func() time.Time
}

var (
	_ UserRepository = (*MemoryStore)(nil)
	_ PostRepository = (*MemoryStore)(nil)
)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) GetUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id uint) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.ID == id }), nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	key := models.UsernameKey(username)
	return s.findUser(func(u models.User) bool { return u.UsernameKey == key }), nil
}

func (s *MemoryStore) GetUserByFuid(_ context.Context, fuid string) (*models.User, error) {
	if fuid == "" {
		return nil, nil
	}
	return s.findUser(func(u models.User) bool { return u.Fuid == fuid }), nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	return s.findUser(func(u models.User) bool { return u.Email == email }), nil
}

func (s *MemoryStore) DoesUsernameExist(ctx context.Context, username string) (bool, error) {
	u, _ := s.GetUserByUsername(ctx, username)
	return u != nil, nil
}

func (s *MemoryStore) CreateNewUser(_ context.Context, in NewUser) (*models.User, error) {
	user := in.toModel()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.UsernameKey == user.UsernameKey || u.Fuid == user.Fuid {
			return nil, models.ErrUsernameTaken
		}
	}
	s.nextID.user++
	user.ID = s.nextID.user
	user.CreatedAt = s.now()
	user.UpdatedAt = user.CreatedAt
	s.users = append(s.users, user)
	return &user, nil
}

func (s *MemoryStore) GetPosts(_ context.Context) ([]models.Post, error) {
	return s.filterPosts(func(models.Post) bool { return true }), nil
}

func (s *MemoryStore) GetPost(_ context.Context, id uint) (*models.Post, error) {
	return s.findPost(func(p models.Post) bool { return p.ID == id }), nil
}

func (s *MemoryStore) GetPostBySlug(_ context.Context, slug string) (*models.Post, error) {
	return s.findPost(func(p models.Post) bool { return p.Slug == slug }), nil
}

func (s *MemoryStore) GetPostsByUser(_ context.Context, userID uint) ([]models.Post, error) {
	return s.filterPosts(func(p models.Post) bool { return p.AuthorID == userID }), nil
}

func (s *MemoryStore) CreatePost(_ context.Context, in NewPost) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userByIDLocked(in.AuthorID) == nil {
		return nil, models.ErrAuthorNotFound
	}
	for _, p := range s.posts {
		if p.Slug == in.Slug {
			return nil, models.ErrSlugTaken
		}
	}

	post := in.toModel(s.now())
	s.nextID.post++
	post.ID = s.nextID.post
	s.posts = append(s.posts, post)

	out := s.withAuthorLocked(post)
	return &out, nil
}

func (s *MemoryStore) findUser(match func(models.User) bool) *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			found := u
			return &found
		}
	}
	return nil
}

func (s *MemoryStore) userByIDLocked(id uint) *models.User {
	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u
		}
	}
	return nil
}

func (s *MemoryStore) findPost(match func(models.Post) bool) *models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if match(p) {
			found := s.withAuthorLocked(p)
			return &found
		}
	}
	return nil
}

func (s *MemoryStore) filterPosts(match func(models.Post) bool) []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if match(p) {
			out = append(out, s.withAuthorLocked(p))
		}
	}
	return feed.SortByRecency(out)
}

// withAuthorLocked returns a copy of p with its own tag slice and author.
func (s *MemoryStore) withAuthorLocked(p models.Post) models.Post {
	p.Tags = append([]string{}, p.Tags...)
	p.Author = s.userByIDLocked(p.AuthorID)
	return p
}
