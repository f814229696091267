package handler

import (
	"context"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"docflow/internal/model"
	"docflow/internal/service"
	"docflow/internal/workflow"
)

type createDocumentForm struct {
	Title        string `form:"title" validate:"required,max=255"`
	Category     string `form:"category" validate:"omitempty,oneof=Contract NDA Proposal Report Other"`
	Priority     string `form:"priority" validate:"omitempty,oneof=Normal High Urgent"`
	VersionNotes string `form:"version_notes" validate:"max=2000"`
	Draft        bool   `form:"draft"`
}

type updateMetadataRequest struct {
	Title        string `json:"title" validate:"required,max=255"`
	Category     string `json:"category" validate:"omitempty,oneof=Contract NDA Proposal Report Other"`
	Priority     string `json:"priority" validate:"omitempty,oneof=Normal High Urgent"`
	VersionNotes string `json:"version_notes" validate:"max=2000"`
}

type reviseForm struct {
	Notes string `form:"notes" validate:"max=2000"`
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

// documentResponse is a document plus what the caller may do with it next.
type documentResponse struct {
	*model.Document
	AllowedActions []workflow.Action `json:"allowed_actions"`
}

type downloadResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

func present(doc *model.Document, c *fiber.Ctx) documentResponse {
	id, _ := caller(c)
	return documentResponse{Document: doc, AllowedActions: workflow.AllowedActions(doc, id)}
}

// openUpload turns a multipart file into a service upload. The caller closes the file.
func openUpload(fh *multipart.FileHeader) (*service.FileUpload, multipart.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, model.NewValidationError("cannot open uploaded file")
	}
	ct := fh.Header.Get(fiber.HeaderContentType)
	if ct == "" {
		ct = fiber.MIMEOctetStream
	}
	return &service.FileUpload{Reader: f, Filename: fh.Filename, ContentType: ct, Size: fh.Size}, f, nil
}

// ListDocuments godoc
// @Summary List documents
// @Tags documents
// @Produce json
// @Param status query string false "draft|pending|approved|rejected"
// @Param owner query string false "owner id, or 'me'"
// @Param limit query int false "page size (default 10, max 100)"
// @Param offset query int false "offset"
// @Success 200 {object} service.DocumentListResult
// @Failure 400 {object} errorPayload
// @Security BearerAuth
// @Router /documents [get]
func (h *Handler) ListDocuments(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
	}

	f := service.ListFilter{
		Status:  model.DocumentStatus(c.Query("status")),
		OwnerID: c.Query("owner"),
		Limit:   limit,
		Offset:  offset,
	}
	if f.OwnerID == "me" {
		id, err := caller(c)
		if err != nil {
			return err
		}
		f.OwnerID = id.UserID
	}

	res, err := h.Docs.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// CreateDocument godoc
// @Summary Upload a new document
// @Description multipart/form-data with a file field. draft=true stores a draft; the file is then optional.
// @Tags documents
// @Accept mpfd
// @Produce json
// @Param file formData file false "document content"
// @Param title formData string true "title"
// @Param category formData string false "Contract|NDA|Proposal|Report|Other"
// @Param priority formData string false "Normal|High|Urgent"
// @Param version_notes formData string false "notes"
// @Param draft formData bool false "create as draft"
// @Success 201 {object} documentResponse
// @Failure 400 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Security BearerAuth
// @Router /documents [post]
func (h *Handler) CreateDocument(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var form createDocumentForm
	if err := h.bind(c, &form); err != nil {
		return err
	}
	meta := model.DocumentMeta{
		Title:        form.Title,
		Category:     model.Category(form.Category),
		Priority:     model.Priority(form.Priority),
		VersionNotes: form.VersionNotes,
	}

	var upload *service.FileUpload
	if fh, err := c.FormFile("file"); err == nil {
		u, f, err := openUpload(fh)
		if err != nil {
			return err
		}
		defer f.Close()
		upload = u
	} else if !form.Draft {
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	}

	var doc *model.Document
	if form.Draft {
		doc, err = h.Docs.CreateDraft(c.UserContext(), id, meta, upload)
	} else {
		doc, err = h.Docs.Create(c.UserContext(), id, meta, upload)
	}
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(present(doc, c))
}

// GetDocument godoc
// @Summary Get a document
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} documentResponse
// @Failure 404 {object} errorPayload
// @Security BearerAuth
// @Router /documents/{id} [get]
func (h *Handler) GetDocument(c *fiber.Ctx) error {
	doc, err := h.Docs.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(present(doc, c))
}

// UpdateDocument godoc
// @Summary Edit draft metadata
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "document id"
// @Param body body updateMetadataRequest true "metadata"
// @Success 200 {object} documentResponse
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Security BearerAuth
// @Router /documents/{id} [patch]
func (h *Handler) UpdateDocument(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req updateMetadataRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	doc, err := h.Docs.UpdateMetadata(c.UserContext(), id, c.Params("id"), model.DocumentMeta{
		Title:        req.Title,
		Category:     model.Category(req.Category),
		Priority:     model.Priority(req.Priority),
		VersionNotes: req.VersionNotes,
	})
	if err != nil {
		return err
	}
	return c.JSON(present(doc, c))
}

// ReviseDocument godoc
// @Summary Upload a new version
// @Description Stores the file as the next minor version and moves the document back to pending.
// @Tags workflow
// @Accept mpfd
// @Produce json
// @Param id path string true "document id"
// @Param file formData file true "new content"
// @Param notes formData string false "what changed"
// @Success 201 {object} documentResponse
// @Failure 403 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Security BearerAuth
// @Router /documents/{id}/revisions [post]
func (h *Handler) ReviseDocument(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var form reviseForm
	if err := h.bind(c, &form); err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	}
	upload, f, err := openUpload(fh)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := h.Docs.Revise(c.UserContext(), id, c.Params("id"), upload, form.Notes)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(present(doc, c))
}

// ListVersions godoc
// @Summary Version history, oldest first
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Success 200 {array} model.DocumentVersion
// @Security BearerAuth
// @Router /documents/{id}/versions [get]
func (h *Handler) ListVersions(c *fiber.Ctx) error {
	versions, err := h.Docs.ListVersions(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": versions})
}

// DownloadDocument godoc
// @Summary Presigned download URL of the current version
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} downloadResponse
// @Security BearerAuth
// @Router /documents/{id}/download [get]
func (h *Handler) DownloadDocument(c *fiber.Ctx) error {
	u, err := h.Docs.DownloadURL(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(downloadResponse{URL: u, ExpiresIn: int(h.PresignExpiry.Seconds())})
}

// DocumentContent godoc
// @Summary Stream the current version
// @Tags documents
// @Produce octet-stream
// @Param id path string true "document id"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /documents/{id}/content [get]
func (h *Handler) DocumentContent(c *fiber.Ctx) error {
	// the body is streamed after the handler returns and the request deadline is cancelled
	rc, info, err := h.Docs.Open(context.WithoutCancel(c.UserContext()), c.Params("id"))
	if err != nil {
		return err
	}
	ct := info.ContentType
	if ct == "" {
		ct = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, ct)
	size := int(info.Size)
	if size <= 0 {
		size = -1
	}
	// fasthttp closes rc once the body is written
	return c.SendStream(rc, size)
}

// ListComments godoc
// @Summary Comments on a document, oldest first
// @Tags comments
// @Produce json
// @Param id path string true "document id"
// @Success 200 {array} model.Comment
// @Security BearerAuth
// @Router /documents/{id}/comments [get]
func (h *Handler) ListComments(c *fiber.Ctx) error {
	comments, err := h.Docs.ListComments(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": comments})
}

// AddComment godoc
// @Summary Comment on a document
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "document id"
// @Param body body commentRequest true "comment"
// @Success 201 {object} model.Comment
// @Failure 400 {object} errorPayload
// @Security BearerAuth
// @Router /documents/{id}/comments [post]
func (h *Handler) AddComment(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req commentRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	comment, err := h.Docs.AddComment(c.UserContext(), id, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}
