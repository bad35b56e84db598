package server

import (
	"penloft/internal/models"
	"penloft/internal/service"
	"penloft/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts?category=
// @Summary List posts
// @Description Newest first, optionally filtered by category
// @Tags posts
// @Produce json
// @Param category query string false "Category name or All"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.List(c.UserContext(), c.Query("category"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// SearchPosts handles GET /api/posts/search?q=
// Queries shorter than two characters return an empty, closed result.
// @Summary Search posts by title
// @Tags posts
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} object{posts=[]models.Post,open=bool}
// @Failure 429 {object} models.ErrorResponse
// @Router /posts/search [get]
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	result, err := s.postService.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"posts": result.Posts,
		"open":  result.Open,
	})
}

// GetPost handles GET /api/posts/:slug
// @Summary Get post page
// @Description Post, author and related posts in the same category
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} service.PostPage
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	page, err := s.postService.Page(c.UserContext(), c.Params("slug"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

// CreatePost handles POST /api/posts
// @Summary Publish a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{title=string,content=string,category=string,tags=[]string,tag_list=string,image_url=string} true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID, _ := c.Locals(localUserID).(uint)

	var req struct {
		Title    string   `json:"title"`
		Content  string   `json:"content"`
		Category string   `json:"category"`
		Tags     []string `json:"tags"`
		// TagList is the comma separated form field.
		TagList  string `json:"tag_list"`
		ImageURL string `json:"image_url"`
	}
	if !parseBody(c, &req) {
		return nil
	}

	tags := req.Tags
	if len(tags) == 0 && req.TagList != "" {
		tags = validation.SplitTags(req.TagList)
	}

	post, err := s.postService.Publish(c.UserContext(), service.PublishInput{
		AuthorID: userID,
		Title:    req.Title,
		Content:  req.Content,
		Category: models.Category(req.Category),
		Tags:     tags,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}
