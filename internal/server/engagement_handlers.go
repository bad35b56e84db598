package server

import (
	"penloft/internal/engagement"

	"github.com/gofiber/fiber/v2"
)

// ToggleLike handles POST /api/engagement/like. The body is the card's
// current state; the response is the next one. Nothing is persisted.
// @Summary Toggle like
// @Tags engagement
// @Accept json
// @Produce json
// @Param request body engagement.State true "Current card state"
// @Success 200 {object} engagement.Outcome
// @Failure 401 {object} engagement.Outcome
// @Router /engagement/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	return s.toggle(c, (*engagement.Card).ToggleLike)
}

// ToggleBookmark handles POST /api/engagement/bookmark.
// @Summary Toggle bookmark
// @Tags engagement
// @Accept json
// @Produce json
// @Param request body engagement.State true "Current card state"
// @Success 200 {object} engagement.Outcome
// @Failure 401 {object} engagement.Outcome
// @Router /engagement/bookmark [post]
func (s *Server) ToggleBookmark(c *fiber.Ctx) error {
	return s.toggle(c, (*engagement.Card).ToggleBookmark)
}

// toggle runs one transition on a card that lives for the request.
func (s *Server) toggle(c *fiber.Ctx, transition func(*engagement.Card, bool) (engagement.Outcome, error)) error {
	var state engagement.State
	if !parseBody(c, &state) {
		return nil
	}

	card := engagement.RestoreCard(state)
	defer card.Dispose()

	out, err := transition(card, viewer(c) != nil)
	if err != nil {
		return s.respondError(c, err)
	}
	if out.Redirect != "" {
		return c.Status(fiber.StatusUnauthorized).JSON(out)
	}
	return c.JSON(out)
}
