package server

import (
	"errors"

	"penloft/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetAllUsers handles GET /api/users
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Router /users [get]
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	users, err := s.userService.ListUsers(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	if users == nil {
		users = []models.User{}
	}
	return c.JSON(users)
}

// GetMe handles GET /api/users/me. AuthRequired has already resolved (and,
// on first access, created) the caller.
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	user := viewer(c)
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:username
// @Summary User profile
// @Description User, their posts newest first and aggregate stats
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} profile.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	p, err := s.userService.Profile(c.UserContext(), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(p)
}

// UsernameAvailable handles GET /api/users/:username/available. A
// malformed name is reported as unavailable with the validation message.
// @Summary Username availability
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} object{available=bool,reason=string}
// @Router /users/{username}/available [get]
func (s *Server) UsernameAvailable(c *fiber.Ctx) error {
	username := c.Params("username")
	available, err := s.userService.UsernameAvailable(c.UserContext(), username)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "VALIDATION_ERROR" {
			return c.JSON(fiber.Map{
				"username":  username,
				"available": false,
				"reason":    appErr.Message,
			})
		}
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"username":  username,
		"available": available,
	})
}
