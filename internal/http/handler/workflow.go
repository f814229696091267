package handler

import (
	"github.com/gofiber/fiber/v2"
)

type approveRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"max=2000"`
}

// SubmitDocument godoc
// @Summary Submit a draft for review
// @Tags workflow
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} documentResponse
// @Failure 403 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Security BearerAuth
// @Router /documents/{id}/submit [post]
func (h *Handler) SubmitDocument(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	doc, err := h.Workflow.Submit(c.UserContext(), id, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(present(doc, c))
}

// ApproveDocument godoc
// @Summary Approve a pending document
// @Tags workflow
// @Accept json
// @Produce json
// @Param id path string true "document id"
// @Param body body approveRequest false "optional note"
// @Success 200 {object} documentResponse
// @Failure 403 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Security BearerAuth
// @Router /documents/{id}/approve [post]
func (h *Handler) ApproveDocument(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req approveRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	doc, err := h.Workflow.Approve(c.UserContext(), id, c.Params("id"), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(present(doc, c))
}

// RejectDocument godoc
// @Summary Reject a pending document
// @Tags workflow
// @Accept json
// @Produce json
// @Param id path string true "document id"
// @Param body body rejectRequest false "optional reason"
// @Success 200 {object} documentResponse
// @Failure 403 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Security BearerAuth
// @Router /documents/{id}/reject [post]
func (h *Handler) RejectDocument(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req rejectRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	doc, err := h.Workflow.Reject(c.UserContext(), id, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(present(doc, c))
}
