package service

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"docflow/internal/audit"
	"docflow/internal/metrics"
	"docflow/internal/model"
	"docflow/internal/repository"
	"docflow/internal/workflow"
)

// WorkflowService applies status transitions. Each call either commits the new
// status together with exactly one audit entry, or changes nothing.
type WorkflowService interface {
	// Submit moves a draft with content to pending. Owner only.
	Submit(ctx context.Context, caller model.Identity, id string) (*model.Document, error)
	// Approve resolves a pending document. Approvers and admins only.
	Approve(ctx context.Context, caller model.Identity, id, note string) (*model.Document, error)
	// Reject resolves a pending document. Approvers and admins only.
	Reject(ctx context.Context, caller model.Identity, id, reason string) (*model.Document, error)
}

type workflowService struct {
	*Deps
}

func NewWorkflowService(d *Deps) WorkflowService {
	d.defaults()
	return &workflowService{Deps: d}
}

func (s *workflowService) Submit(ctx context.Context, caller model.Identity, id string) (*model.Document, error) {
	return s.transition(ctx, caller, id, workflow.ActionSubmit, "")
}

func (s *workflowService) Approve(ctx context.Context, caller model.Identity, id, note string) (*model.Document, error) {
	return s.transition(ctx, caller, id, workflow.ActionApprove, note)
}

func (s *workflowService) Reject(ctx context.Context, caller model.Identity, id, reason string) (*model.Document, error) {
	return s.transition(ctx, caller, id, workflow.ActionReject, reason)
}

func (s *workflowService) transition(ctx context.Context, caller model.Identity, id string, action workflow.Action, note string) (doc *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "workflow."+string(action))
	defer span.End()
	span.SetAttributes(
		attribute.String("document.id", id),
		attribute.String("workflow.action", string(action)),
		attribute.String("user.role", string(caller.Role)),
	)

	defer func() {
		s.Metrics.Transition(string(action), metrics.ResultOf(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.Log.Warn().
				Str("event", "transition_rejected").
				Str("action", string(action)).
				Str("document_id", id).
				Str("user_id", caller.UserID).
				Err(err).
				Send()
		}
	}()

	if err := validateID("document", id); err != nil {
		return nil, err
	}
	note = strings.TrimSpace(note)
	if err := validationError(validation.Validate(note, validation.RuneLength(0, maxNotesLength))); err != nil {
		return nil, err
	}

	var from model.DocumentStatus
	err = s.lockedTx(ctx, id, func(ctx context.Context) error {
		current, err := s.Docs.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		to, err := workflow.Resolve(current, action, caller)
		if err != nil {
			return err
		}
		if action == workflow.ActionSubmit && current.File.IsZero() {
			return model.NewValidationError("a draft needs a file before it can be submitted")
		}

		from = current.Status
		doc, err = s.Docs.UpdateStatus(ctx, repository.StatusTransition{
			ID:          id,
			FromStatus:  current.Status,
			FromVersion: current.Version,
			ToStatus:    to,
		})
		if err != nil {
			return err
		}

		detail := fmt.Sprintf("%s %s: %s -> %s", action, current.Version, current.Status, to)
		if note != "" {
			detail += ": " + note
		}
		_, err = s.Audit.Record(ctx, audit.Entry{
			Actor:    &caller,
			Action:   action.AuditAction(),
			Document: id,
			Detail:   detail,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.AuditEntry(action.AuditAction())
	s.Log.Info().
		Str("event", "transition_applied").
		Str("action", string(action)).
		Str("document_id", id).
		Str("from", string(from)).
		Str("to", string(doc.Status)).
		Str("user_id", caller.UserID).
		Send()
	return doc, nil
}
