package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docflow/internal/http/middleware"
	"docflow/internal/model"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// domainErrors maps each error sentinel onto its status and code.
var domainErrors = []struct {
	target error
	status int
	code   string
}{
	{model.ErrValidation, fiber.StatusBadRequest, "VALIDATION_FAILED"},
	{model.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{model.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{model.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{model.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{model.ErrIllegalTransition, fiber.StatusUnprocessableEntity, "ILLEGAL_TRANSITION"},
	{model.ErrStorage, fiber.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		for _, d := range domainErrors {
			if !errors.Is(err, d.target) {
				continue
			}
			msg := err.Error()
			if d.target == model.ErrStorage {
				msg = "storage temporarily unavailable, retry later"
			}
			if model.Retryable(err) {
				c.Set(fiber.HeaderRetryAfter, "1")
			}
			return writeError(c, d.status, d.code, msg)
		}

		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusUnprocessableEntity:
			return writeError(c, status, "UNPROCESSABLE_ENTITY", "request body could not be parsed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
