package seed

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"penloft/internal/models"
	"penloft/internal/repository"
	"penloft/internal/slug"
	"penloft/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
)

var usernameStrip = regexp.MustCompile(`[^a-z0-9_]+`)

// Factory generates random demo users and posts through the repositories.
type Factory struct {
	users repository.UserRepository
	posts repository.PostRepository
	faker *gofakeit.Faker
	// MaxDays bounds how far back generated posts are dated.
	MaxDays int
	now     func() time.Time
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(users repository.UserRepository, posts repository.PostRepository, seed int64) *Factory {
	return &Factory{
		users:   users,
		posts:   posts,
		faker:   gofakeit.New(seed),
		MaxDays: 90,
		now:     time.Now,
	}
}

// Users creates n users with unique usernames.
func (f *Factory) Users(ctx context.Context, n int) ([]models.User, error) {
	out := make([]models.User, 0, n)
	for len(out) < n {
		u, err := f.user(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, *u)
	}
	return out, nil
}

func (f *Factory) user(ctx context.Context) (*models.User, error) {
	name := f.faker.Name()
	base := usernameStrip.ReplaceAllString(strings.ToLower(f.faker.Username()), "")
	if len(base) < validation.MinUsernameLength {
		base = "author" + base
	}
	if len(base) > validation.MaxUsernameLength-4 {
		base = base[:validation.MaxUsernameLength-4]
	}

	for attempt := 0; attempt < 5; attempt++ {
		username := base
		if attempt > 0 {
			username = fmt.Sprintf("%s%d", base, f.faker.Number(10, 9999))
		}
		u, err := f.users.CreateNewUser(ctx, repository.NewUser{
			Fuid:     f.faker.UUID(),
			Username: username,
			Name:     name,
			Email:    f.faker.Email(),
			Bio:      f.faker.HipsterSentence(12),
		})
		if errors.Is(err, models.ErrUsernameTaken) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create user %s: %w", username, err)
		}
		return u, nil
	}
	return nil, fmt.Errorf("create user: no free username for %q", base)
}

// Posts creates n posts spread over authors and the last MaxDays days.
func (f *Factory) Posts(ctx context.Context, authors []models.User, n int) ([]models.Post, error) {
	if len(authors) == 0 {
		return nil, errors.New("seed: posts need at least one author")
	}

	now := f.now()
	from := now.Add(-time.Duration(f.MaxDays) * 24 * time.Hour)
	out := make([]models.Post, 0, n)

	for i := 0; i < n; i++ {
		author := authors[f.faker.Number(0, len(authors)-1)]
		title := strings.TrimSuffix(f.faker.Sentence(f.faker.Number(4, 8)), ".")

		n := f.faker.Number(2, 4)
		tags := make([]string, 0, n)
		for j := 0; j < n; j++ {
			tags = append(tags, f.faker.BuzzWord())
		}

		p, err := f.posts.CreatePost(ctx, repository.NewPost{
			Slug:      slug.New(title),
			Title:     title,
			Content:   f.faker.Paragraph(3, 4, 12, "\n"),
			AuthorID:  author.ID,
			Category:  models.Categories[f.faker.Number(0, len(models.Categories)-1)],
			Tags:      validation.NormalizeTags(tags),
			ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s/600/400", f.faker.UUID()),
			Likes:     f.faker.Number(0, 400),
			CreatedAt: f.faker.DateRange(from, now),
		})
		if err != nil {
			return out, fmt.Errorf("create post %q: %w", title, err)
		}
		out = append(out, *p)
	}
	return out, nil
}
