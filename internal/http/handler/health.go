package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const healthTimeout = 2 * time.Second

// HealthCheck godoc
// @Summary Readiness probe
// @Description Pings every dependency (database, redis when enabled).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} errorPayload
// @Router /health [get]
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	deps := make(map[string]string, len(h.Checks))
	healthy := true
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			deps[name] = "unavailable"
			healthy = false
			continue
		}
		deps[name] = "ok"
	}
	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":     "unhealthy",
			"request_id": requestIDFromCtx(c),
			"checks":     deps,
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy", "checks": deps})
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func (h *Handler) LivenessProbe(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}
