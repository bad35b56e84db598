package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtxHandler_AddsContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&ctxHandler{slog.NewTextHandler(&buf, nil)})

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, uint(7))
	logger.With("component", "test").InfoContext(ctx, "hello")

	out := buf.String()
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "user_id=7")
	assert.Contains(t, out, "component=test")
}

func TestContextMiddleware_PropagatesLocals(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "abc")
		c.Locals("userID", uint(3))
		return c.Next()
	})
	app.Use(ContextMiddleware())

	var gotRID string
	var gotUID uint
	app.Get("/", func(c *fiber.Ctx) error {
		gotRID, _ = c.UserContext().Value(RequestIDKey).(string)
		gotUID, _ = c.UserContext().Value(UserIDKey).(uint)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "abc", gotRID)
	assert.Equal(t, uint(3), gotUID)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
