package service

import (
	"context"
	"errors"
	"strings"

	"penloft/internal/feed"
	"penloft/internal/models"
	"penloft/internal/observability"
	"penloft/internal/repository"
	"penloft/internal/slug"
	"penloft/internal/validation"

	"golang.org/x/sync/errgroup"
)

// slugAttempts bounds retries when a generated slug collides.
const slugAttempts = 3

// PostEvents receives notifications about newly published posts.
type PostEvents interface {
	PostCreated(ctx context.Context, post models.Post)
}

type PostService struct {
	posts   repository.PostRepository
	users   repository.UserRepository
	events  PostEvents
	newSlug func(title string) string
}

// PublishInput is the publish form.
type PublishInput struct {
	AuthorID uint
	Title    string
	Content  string
	Category models.Category
	Tags     []string
	ImageURL string
}

// PostPage is everything the single post view renders.
type PostPage struct {
	Post    models.Post   `json:"post"`
	Author  models.User   `json:"author"`
	Related []models.Post `json:"related"`
}

// NewPostService builds a PostService. events may be nil.
func NewPostService(posts repository.PostRepository, users repository.UserRepository, events PostEvents) *PostService {
	return &PostService{
		posts:   posts,
		users:   users,
		events:  events,
		newSlug: slug.New,
	}
}

// Publish validates in, stores the post under a fresh slug and announces it.
func (s *PostService) Publish(ctx context.Context, in PublishInput) (*models.Post, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("You must be signed in to publish")
	}

	tags := validation.NormalizeTags(in.Tags)
	if err := validation.ValidatePost(in.Title, in.Content, in.Category, tags); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	var (
		post *models.Post
		err  error
	)
	for attempt := 0; attempt < slugAttempts; attempt++ {
		post, err = s.posts.CreatePost(ctx, repository.NewPost{
			Slug:     s.newSlug(title),
			Title:    title,
			Content:  in.Content,
			AuthorID: in.AuthorID,
			Category: in.Category,
			Tags:     tags,
			ImageURL: strings.TrimSpace(in.ImageURL),
		})
		if !errors.Is(err, models.ErrSlugTaken) {
			break
		}
	}
	switch {
	case errors.Is(err, models.ErrAuthorNotFound):
		return nil, models.NewNotFoundError("Author", in.AuthorID)
	case errors.Is(err, models.ErrSlugTaken):
		return nil, models.NewConflictError("Could not allocate a unique slug", err)
	case err != nil:
		return nil, err
	case post == nil:
		return nil, models.NewInternalError(errors.New("post store returned no record"))
	}

	observability.PostsPublished.WithLabelValues(string(post.Category)).Inc()
	if s.events != nil {
		s.events.PostCreated(ctx, *post)
	}
	return post, nil
}

// List returns the feed newest first, optionally narrowed to one category.
func (s *PostService) List(ctx context.Context, category string) ([]models.Post, error) {
	if category != "" && !strings.EqualFold(category, "all") && !categoryKnown(category) {
		return nil, models.NewFieldError("category", "Unknown category")
	}
	posts, err := s.posts.GetPosts(ctx)
	if err != nil {
		return nil, err
	}
	return feed.FilterByCategory(feed.SortByRecency(posts), category), nil
}

// Search runs the live title search. Short queries never touch the store.
func (s *PostService) Search(ctx context.Context, query string) (feed.SearchResult, error) {
	if len([]rune(strings.TrimSpace(query))) < 2 {
		observability.SearchQueries.WithLabelValues("short").Inc()
		return feed.Search(nil, query), nil
	}
	posts, err := s.posts.GetPosts(ctx)
	if err != nil {
		return feed.SearchResult{}, err
	}
	res := feed.Search(feed.SortByRecency(posts), query)
	outcome := "empty"
	if res.Open {
		outcome = "results"
	}
	observability.SearchQueries.WithLabelValues(outcome).Inc()
	return res, nil
}

// Page loads a post, its author and related posts. The post and the feed
// are fetched concurrently.
func (s *PostService) Page(ctx context.Context, postSlug string) (*PostPage, error) {
	var (
		post *models.Post
		all  []models.Post
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		post, err = s.posts.GetPostBySlug(gctx, postSlug)
		return err
	})
	g.Go(func() error {
		var err error
		all, err = s.posts.GetPosts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", postSlug)
	}

	author := post.Author
	if author == nil {
		var err error
		author, err = s.users.GetUser(ctx, post.AuthorID)
		if err != nil {
			return nil, err
		}
	}
	if author == nil {
		return nil, models.NewNotFoundError("Author", post.AuthorID)
	}

	return &PostPage{
		Post:    *post,
		Author:  *author,
		Related: feed.RelatedPosts(*post, feed.SortByRecency(all), feed.DefaultRelatedLimit),
	}, nil
}

func categoryKnown(name string) bool {
	for _, c := range models.Categories {
		if strings.EqualFold(string(c), name) {
			return true
		}
	}
	return false
}
