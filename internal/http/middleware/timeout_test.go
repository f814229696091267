package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeout(t *testing.T) {
	t.Run("handler sees a deadline", func(t *testing.T) {
		app := fiber.New()
		app.Use(Timeout(2 * time.Second))

		var (
			deadline time.Time
			ok       bool
		)
		app.Get("/test", func(c *fiber.Ctx) error {
			deadline, ok = c.UserContext().Deadline()
			return c.SendStatus(fiber.StatusNoContent)
		})

		start := time.Now()
		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		require.True(t, ok)
		assert.WithinDuration(t, start.Add(2*time.Second), deadline, time.Second)
	})

	t.Run("blocked work is cut off", func(t *testing.T) {
		app := fiber.New()
		app.Use(Timeout(20 * time.Millisecond))

		var got error
		app.Get("/test", func(c *fiber.Ctx) error {
			select {
			case <-c.UserContext().Done():
				got = c.UserContext().Err()
			case <-time.After(time.Second):
			}
			return c.SendStatus(fiber.StatusGatewayTimeout)
		})

		_, err := app.Test(httptest.NewRequest("GET", "/test", nil), 2000)
		require.NoError(t, err)
		assert.True(t, errors.Is(got, context.DeadlineExceeded))
	})

	t.Run("zero duration passes through", func(t *testing.T) {
		app := fiber.New()
		app.Use(Timeout(0))

		ok := true
		app.Get("/test", func(c *fiber.Ctx) error {
			_, ok = c.UserContext().Deadline()
			return c.SendStatus(fiber.StatusNoContent)
		})

		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.False(t, ok)
	})
}
