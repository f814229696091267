package handler

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"docflow/internal/export"
	"docflow/internal/service"
)

type sessionRequest struct {
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// StatusSummary godoc
// @Summary Document counts per status
// @Tags reports
// @Produce json
// @Success 200 {object} model.StatusSummary
// @Security BearerAuth
// @Router /reports/summary [get]
func (h *Handler) StatusSummary(c *fiber.Ctx) error {
	out, err := h.Reports.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// UserReport godoc
// @Summary Document counts per owner
// @Tags reports
// @Produce json
// @Success 200 {array} model.UserBreakdown
// @Security BearerAuth
// @Router /reports/users [get]
func (h *Handler) UserReport(c *fiber.Ctx) error {
	out, err := h.Reports.Users(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": out})
}

// Dashboard godoc
// @Summary Headline numbers, recent documents and recent activity
// @Tags reports
// @Produce json
// @Success 200 {object} model.Dashboard
// @Security BearerAuth
// @Router /reports/dashboard [get]
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	out, err := h.Reports.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ExportReport godoc
// @Summary Download the report as a spreadsheet
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/export.xlsx [get]
func (h *Handler) ExportReport(c *fiber.Ctx) error {
	r, err := h.Reports.Report(c.UserContext())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.WriteReport(&buf, r, h.Location); err != nil {
		return err
	}
	c.Attachment(export.Filename(r.Summary.GeneratedAt.In(h.Location)))
	c.Set(fiber.HeaderContentType, export.ContentType)
	return c.Send(buf.Bytes())
}

// ListAudit godoc
// @Summary Recent activity across all documents, newest first
// @Tags audit
// @Produce json
// @Param limit query int false "entries (default 50, max 500)"
// @Success 200 {array} model.AuditEntry
// @Failure 403 {object} errorPayload
// @Security BearerAuth
// @Router /audit [get]
func (h *Handler) ListAudit(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
	}
	entries, err := h.Audit.ListRecent(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

// DocumentAudit godoc
// @Summary Activity on one document, newest first
// @Tags audit
// @Produce json
// @Param id path string true "document id"
// @Param limit query int false "entries (default 50, max 500)"
// @Success 200 {array} model.AuditEntry
// @Failure 404 {object} errorPayload
// @Security BearerAuth
// @Router /documents/{id}/audit [get]
func (h *Handler) DocumentAudit(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
	}
	doc, err := h.Docs.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	entries, err := h.Audit.ListForDocument(c.UserContext(), doc.ID, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

// CreateSession godoc
// @Summary Record a sign-in
// @Description Upserts the caller's profile from the token and appends a LOGIN entry.
// @Tags profiles
// @Accept json
// @Produce json
// @Param body body sessionRequest false "display name"
// @Success 201 {object} model.Profile
// @Failure 401 {object} errorPayload
// @Security BearerAuth
// @Router /sessions [post]
func (h *Handler) CreateSession(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req sessionRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	p, err := h.Profiles.RecordLogin(c.UserContext(), id, service.LoginInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// ListProfiles godoc
// @Summary All known users
// @Tags profiles
// @Produce json
// @Success 200 {array} model.Profile
// @Failure 403 {object} errorPayload
// @Security BearerAuth
// @Router /profiles [get]
func (h *Handler) ListProfiles(c *fiber.Ctx) error {
	out, err := h.Profiles.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": out})
}

// MyProfile godoc
// @Summary The caller's own profile
// @Tags profiles
// @Produce json
// @Success 200 {object} model.Profile
// @Failure 404 {object} errorPayload
// @Security BearerAuth
// @Router /profiles/me [get]
func (h *Handler) MyProfile(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	p, err := h.Profiles.Get(c.UserContext(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(p)
}
