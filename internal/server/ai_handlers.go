package server

import (
	"errors"

	"penloft/internal/models"
	"penloft/internal/suggest"

	"github.com/gofiber/fiber/v2"
)

const suggestionUnavailable = "Suggestions are unavailable right now. Please try again later."

// SuggestTags handles POST /api/ai/tags
// @Summary Suggest tags
// @Description At least five tags for a draft of 50 or more characters
// @Tags ai
// @Accept json
// @Produce json
// @Param request body object{content=string} true "Draft content"
// @Success 200 {object} object{tags=[]string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} object{error=string,code=string,tags=[]string}
// @Security BearerAuth
// @Router /ai/tags [post]
func (s *Server) SuggestTags(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if !parseBody(c, &req) {
		return nil
	}

	tags, err := s.suggester.SuggestTags(c.UserContext(), req.Content)
	switch {
	case errors.Is(err, suggest.ErrContentTooShort):
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldError("content", err.Error()))
	case err != nil:
		return s.respondDegraded(c, models.NewUpstreamError(suggestionUnavailable, err), "tags", []string{})
	}
	return c.JSON(fiber.Map{"tags": tags})
}

// SuggestContent handles POST /api/ai/content
// @Summary Suggest post ideas
// @Description Three title and description ideas for a topic
// @Tags ai
// @Accept json
// @Produce json
// @Param request body object{topic=string} true "Topic"
// @Success 200 {object} object{suggestions=[]suggest.Suggestion}
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} object{error=string,code=string,suggestions=[]suggest.Suggestion}
// @Security BearerAuth
// @Router /ai/content [post]
func (s *Server) SuggestContent(c *fiber.Ctx) error {
	var req struct {
		Topic string `json:"topic"`
	}
	if !parseBody(c, &req) {
		return nil
	}

	suggestions, err := s.suggester.SuggestContent(c.UserContext(), req.Topic)
	switch {
	case errors.Is(err, suggest.ErrTopicRequired):
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldError("topic", "Please enter a topic"))
	case err != nil:
		return s.respondDegraded(c, models.NewUpstreamError(suggestionUnavailable, err), "suggestions", []suggest.Suggestion{})
	}
	return c.JSON(fiber.Map{"suggestions": suggestions})
}
