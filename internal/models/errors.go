package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors returned by the data access layer and services.
var (
	ErrUsernameTaken  = errors.New("username already taken")
	ErrAuthorNotFound = errors.New("author does not exist")
	ErrSlugTaken      = errors.New("slug already taken")
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	// Field names the offending input for inline form errors.
	Field string
	Err   error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, key interface{}) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %v not found", resource, key),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

// NewFieldError is a validation error attached to a single input field.
func NewFieldError(field, message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Field:   field,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

func NewConflictError(message string, err error) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Err:     err,
	}
}

// NewUpstreamError wraps a failure of an external collaborator (the AI model).
func NewUpstreamError(message string, err error) *AppError {
	return &AppError{
		Code:    "UPSTREAM_ERROR",
		Message: message,
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Err:     err,
	}
}

// StatusFor maps an AppError code to an HTTP status.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case "NOT_FOUND":
		return fiber.StatusNotFound
	case "VALIDATION_ERROR":
		return fiber.StatusBadRequest
	case "UNAUTHORIZED":
		return fiber.StatusUnauthorized
	case "CONFLICT":
		return fiber.StatusConflict
	case "UPSTREAM_ERROR":
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
			Field: appErr.Field,
		}
		// Internal details stay in the logs.
		if appErr.Err != nil && appErr.Code != "INTERNAL_ERROR" && appErr.Code != "UPSTREAM_ERROR" {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
