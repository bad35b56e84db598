package server

import (
	"errors"

	"penloft/internal/middleware"
	"penloft/internal/models"

	"github.com/gofiber/fiber/v2"
)

// respondError writes err using the status its AppError code maps to.
// Anything that is not an AppError is an infrastructure fault: it is logged
// and reported as a bare 500.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(),
			"error", err,
		)
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	if appErr.Code == "INTERNAL_ERROR" || appErr.Code == "UPSTREAM_ERROR" {
		logAppError(c, appErr)
	}
	return models.RespondWithError(c, models.StatusFor(appErr), appErr)
}

// respondDegraded answers an upstream failure with the AppError body plus an
// empty result list under key, so clients can render the empty state.
func (s *Server) respondDegraded(c *fiber.Ctx, appErr *models.AppError, key string, empty any) error {
	logAppError(c, appErr)
	return c.Status(models.StatusFor(appErr)).JSON(fiber.Map{
		"error": appErr.Message,
		"code":  appErr.Code,
		key:     empty,
	})
}

func logAppError(c *fiber.Ctx, appErr *models.AppError) {
	middleware.Logger.ErrorContext(c.UserContext(), "request failed",
		"path", c.Path(),
		"code", appErr.Code,
		"error", appErr.Err,
	)
}

// parseBody decodes the request body into dest, answering 400 on failure.
// Callers return nil when ok is false.
func parseBody(c *fiber.Ctx, dest any) (ok bool) {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return false
	}
	return true
}
