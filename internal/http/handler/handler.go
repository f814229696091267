package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"docflow/internal/http/middleware"
	"docflow/internal/model"
	"docflow/internal/service"
)

// AuditReader is the read side of the audit log.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error)
	ListForDocument(ctx context.Context, documentID string, limit int) ([]model.AuditEntry, error)
}

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// Handler serves the HTTP API on top of the services.
type Handler struct {
	Docs     service.DocumentService
	Workflow service.WorkflowService
	Reports  service.ReportService
	Profiles service.ProfileService
	Audit    AuditReader

	// Checks are run by the readiness endpoint, keyed by dependency name.
	Checks map[string]Check
	// Location is used for timestamps in exported reports.
	Location *time.Location
	// PresignExpiry is reported to clients next to download URLs.
	PresignExpiry time.Duration

	validate *validator.Validate
}

func New(h Handler) *Handler {
	h.validate = validator.New(validator.WithRequiredStructEnabled())
	if h.Location == nil {
		h.Location = time.UTC
	}
	if h.PresignExpiry <= 0 {
		h.PresignExpiry = 15 * time.Minute
	}
	return &h
}

// bind parses the request body into dst and validates its struct tags.
// An empty body leaves dst untouched.
func (h *Handler) bind(c *fiber.Ctx, dst any) error {
	if len(c.Body()) > 0 || strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if err := c.BodyParser(dst); err != nil {
			return model.NewValidationError("malformed request body")
		}
	}
	return h.check(dst)
}

func (h *Handler) check(dst any) error {
	err := h.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return model.NewValidationError("%s", strings.Join(msgs, "; "))
}

// fieldError converts a single validator error into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

func caller(c *fiber.Ctx) (model.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return model.Identity{}, &model.UnauthorizedError{}
	}
	return id, nil
}

// queryInt reads a non-negative integer query parameter.
func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
