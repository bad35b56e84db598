package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"penloft/internal/models"
	"penloft/internal/profile"
	"penloft/internal/repository"
	"penloft/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// usernameAttempts bounds suffix probing when deriving a username.
const usernameAttempts = 10

var usernameUnsafe = regexp.MustCompile(`[^a-z0-9_-]+`)

type UserService struct {
	users repository.UserRepository
	posts repository.PostRepository
}

// SignUpInput is the sign-up form.
type SignUpInput struct {
	Username string
	Email    string
	Password string
}

// Identity is what the authentication collaborator knows about a caller.
type Identity struct {
	Fuid  string
	Email string
}

func NewUserService(users repository.UserRepository, posts repository.PostRepository) *UserService {
	return &UserService{users: users, posts: posts}
}

// SignUp validates the form, hashes the password and creates the user with
// a fresh fuid.
func (s *UserService) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	taken, err := s.users.DoesUsernameExist(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, usernameTakenError()
	}
	existing, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		e := models.NewConflictError("An account with this email already exists.", nil)
		e.Field = "email"
		return nil, e
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user, err := s.users.CreateNewUser(ctx, repository.NewUser{
		Fuid:         uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
	})
	if errors.Is(err, models.ErrUsernameTaken) {
		return nil, usernameTakenError()
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks an email/password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Password == "" {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	return user, nil
}

// ResolveByFuid returns the user mapped to id.Fuid, creating one on first
// access. The username comes from the email local part, or user<NNNN>, with
// a numeric suffix appended while it collides.
func (s *UserService) ResolveByFuid(ctx context.Context, id Identity) (*models.User, error) {
	if id.Fuid == "" {
		return nil, models.NewUnauthorizedError("Missing identity")
	}
	user, err := s.users.GetUserByFuid(ctx, id.Fuid)
	if err != nil || user != nil {
		return user, err
	}

	base := DeriveUsername(id.Email)
	for attempt := 0; attempt < usernameAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s%d", base, attempt+1)
		}
		user, err = s.users.CreateNewUser(ctx, repository.NewUser{
			Fuid:     id.Fuid,
			Username: candidate,
			Email:    id.Email,
		})
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, models.ErrUsernameTaken) {
			return nil, err
		}
		// A concurrent request may have created this fuid already.
		if existing, lookupErr := s.users.GetUserByFuid(ctx, id.Fuid); lookupErr == nil && existing != nil {
			return existing, nil
		}
	}
	return nil, models.NewConflictError("Could not allocate a username", models.ErrUsernameTaken)
}

// DeriveUsername turns an email local part into a valid username.
func DeriveUsername(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(email)), "@")
	name := strings.Trim(usernameUnsafe.ReplaceAllString(local, ""), "-_")
	if len(name) > validation.MaxUsernameLength-3 {
		name = name[:validation.MaxUsernameLength-3]
	}
	if len(name) < validation.MinUsernameLength {
		return fmt.Sprintf("user%04d", rand.IntN(10000))
	}
	return name
}

// Profile returns a user's profile with post statistics.
func (s *UserService) Profile(ctx context.Context, username string) (*profile.Profile, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	posts, err := s.posts.GetPostsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	p := profile.Build(*user, posts)
	return &p, nil
}

// UsernameAvailable reports whether username can be registered.
func (s *UserService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	if err := validation.ValidateUsername(strings.TrimSpace(username)); err != nil {
		return false, err
	}
	taken, err := s.users.DoesUsernameExist(ctx, username)
	return !taken, err
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.GetUsers(ctx)
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, nil
}

func usernameTakenError() *models.AppError {
	e := models.NewConflictError("Username is already taken.", models.ErrUsernameTaken)
	e.Field = "username"
	return e
}
