// Package seed creates demo data. Builtins loads the fixed demo authors and
// posts; Factory generates random extras for local development.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"penloft/internal/middleware"
	"penloft/internal/models"
	"penloft/internal/repository"
	"penloft/internal/slug"

	"gopkg.in/yaml.v3"
)

//go:embed builtins.yaml
var builtinsYAML []byte

// Fixture is the shape of builtins.yaml.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
	Posts []FixturePost `yaml:"posts"`
}

type FixtureUser struct {
	Fuid      string `yaml:"fuid"`
	Name      string `yaml:"name"`
	Username  string `yaml:"username"`
	Email     string `yaml:"email"`
	AvatarURL string `yaml:"avatar_url"`
	Bio       string `yaml:"bio"`
}

type FixturePost struct {
	// Ref is the fixed slug disambiguator, so the slug is stable across runs.
	Ref        string    `yaml:"ref"`
	Author     string    `yaml:"author"`
	Title      string    `yaml:"title"`
	Content    string    `yaml:"content"`
	Category   string    `yaml:"category"`
	Tags       []string  `yaml:"tags"`
	ImageURL   string    `yaml:"image_url"`
	CreatedAt  time.Time `yaml:"created_at"`
	Likes      int       `yaml:"likes"`
	Bookmarked bool      `yaml:"bookmarked"`
}

// Slug is the stable slug of a fixture post.
func (p FixturePost) Slug() string {
	return slug.Make(p.Title, p.Ref)
}

// Result counts what a seeding run inserted.
type Result struct {
	UsersCreated int
	PostsCreated int
	// Skipped users have a username already held by a different fuid.
	// Their posts are skipped with them.
	UsersSkipped int
	PostsSkipped int
}

// LoadFixture parses the embedded builtins.yaml.
func LoadFixture() (*Fixture, error) {
	return ParseFixture(builtinsYAML)
}

// ParseFixture parses and checks a fixture document.
func ParseFixture(raw []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed fixture: %w", err)
	}

	authors := make(map[string]struct{}, len(f.Users))
	for _, u := range f.Users {
		if u.Fuid == "" || u.Username == "" {
			return nil, fmt.Errorf("seed fixture: user %q needs fuid and username", u.Username)
		}
		authors[models.UsernameKey(u.Username)] = struct{}{}
	}
	for i, p := range f.Posts {
		if _, ok := authors[models.UsernameKey(p.Author)]; !ok {
			return nil, fmt.Errorf("seed fixture: post %d references unknown author %q", i, p.Author)
		}
		if !models.Category(p.Category).Valid() {
			return nil, fmt.Errorf("seed fixture: post %d has unknown category %q", i, p.Category)
		}
		f.Posts[i].Content = strings.TrimSpace(p.Content)
	}
	return &f, nil
}

// Builtins inserts the demo authors and posts that are not present yet.
// Users are keyed by fuid and posts by slug, so a second run is a no-op.
func Builtins(ctx context.Context, users repository.UserRepository, posts repository.PostRepository) (Result, error) {
	f, err := LoadFixture()
	if err != nil {
		return Result{}, err
	}
	return Apply(ctx, f, users, posts)
}

// Apply inserts the missing records of f. A fixture user whose username is
// taken by another account is skipped with a warning, never an error.
func Apply(ctx context.Context, f *Fixture, users repository.UserRepository, posts repository.PostRepository) (Result, error) {
	var res Result
	ids := make(map[string]uint, len(f.Users))

	for _, fu := range f.Users {
		u, err := users.GetUserByFuid(ctx, fu.Fuid)
		if err != nil {
			return res, fmt.Errorf("look up seed user %s: %w", fu.Username, err)
		}
		if u == nil {
			u, err = users.CreateNewUser(ctx, repository.NewUser{
				Fuid:      fu.Fuid,
				Username:  fu.Username,
				Name:      fu.Name,
				Email:     fu.Email,
				AvatarURL: fu.AvatarURL,
				Bio:       fu.Bio,
			})
			if errors.Is(err, models.ErrUsernameTaken) {
				middleware.Logger.WarnContext(ctx, "seed user skipped, username belongs to another account",
					"username", fu.Username,
				)
				res.UsersSkipped++
				continue
			}
			if err != nil {
				return res, fmt.Errorf("create seed user %s: %w", fu.Username, err)
			}
			res.UsersCreated++
		}
		ids[models.UsernameKey(fu.Username)] = u.ID
	}

	for _, fp := range f.Posts {
		postSlug := fp.Slug()
		existing, err := posts.GetPostBySlug(ctx, postSlug)
		if err != nil {
			return res, fmt.Errorf("look up seed post %s: %w", postSlug, err)
		}
		if existing != nil {
			continue
		}
		authorID, ok := ids[models.UsernameKey(fp.Author)]
		if !ok {
			res.PostsSkipped++
			continue
		}
		_, err = posts.CreatePost(ctx, repository.NewPost{
			Slug:         postSlug,
			Title:        fp.Title,
			Content:      fp.Content,
			AuthorID:     authorID,
			Category:     models.Category(fp.Category),
			Tags:         fp.Tags,
			ImageURL:     fp.ImageURL,
			Likes:        fp.Likes,
			IsBookmarked: fp.Bookmarked,
			CreatedAt:    fp.CreatedAt,
		})
		if err != nil {
			return res, fmt.Errorf("create seed post %s: %w", postSlug, err)
		}
		res.PostsCreated++
	}

	if res.UsersCreated > 0 || res.PostsCreated > 0 {
		middleware.Logger.InfoContext(ctx, "seeded builtin data",
			"users", res.UsersCreated,
			"posts", res.PostsCreated,
		)
	}
	return res, nil
}
