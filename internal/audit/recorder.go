// Package audit appends to and reads the immutable activity log. Every
// mutating operation calls Record with the ctx of its own transaction, so the
// entry commits or rolls back together with the change it describes.
package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"docflow/internal/model"
	"docflow/internal/repository"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Entry is the caller-supplied part of an audit entry.
type Entry struct {
	Actor    *model.Identity
	Action   model.AuditAction
	Document string
	Detail   string
}

// Recorder is the only writer of audit_logs.
type Recorder struct {
	repo repository.AuditRepository
}

func NewRecorder(repo repository.AuditRepository) *Recorder {
	return &Recorder{repo: repo}
}

// Record appends one entry. Failures are returned to the triggering operation,
// which must roll back.
func (r *Recorder) Record(ctx context.Context, e Entry) (*model.AuditEntry, error) {
	if !e.Action.Valid() {
		return nil, model.NewValidationError("unknown audit action %q", e.Action)
	}

	entry := &model.AuditEntry{
		ID:     uuid.NewString(),
		Action: e.Action,
		Detail: e.Detail,
	}
	if e.Actor != nil && e.Actor.UserID != "" {
		actorID, email := e.Actor.UserID, e.Actor.Email
		entry.ActorID = &actorID
		if email != "" {
			entry.ActorEmail = &email
		}
	}
	if e.Document != "" {
		entry.TargetDocumentID = &e.Document
	}

	out, err := r.repo.Insert(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", e.Action, err)
	}
	return out, nil
}

// ListRecent returns the newest entries first. limit is clamped to (0, MaxLimit];
// zero or negative means DefaultLimit.
func (r *Recorder) ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	return r.repo.ListRecent(ctx, ClampLimit(limit))
}

// ListForDocument returns the history of one document, newest first.
func (r *Recorder) ListForDocument(ctx context.Context, documentID string, limit int) ([]model.AuditEntry, error) {
	return r.repo.ListForDocument(ctx, documentID, ClampLimit(limit))
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}
