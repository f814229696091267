// Package workflow holds the document transition table and the rules for who may walk each edge.
// It is pure: it never touches storage, so the service layer can evaluate it inside a transaction.
package workflow

import (
	"docflow/internal/model"
)

// Action is a workflow verb a caller can invoke on a document.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionRevise  Action = "revise"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionSubmit, ActionApprove, ActionReject, ActionRevise:
		return true
	}
	return false
}

// AuditAction is the audit log action recorded when a is applied.
func (a Action) AuditAction() model.AuditAction {
	switch a {
	case ActionApprove:
		return model.ActionApprove
	case ActionReject:
		return model.ActionReject
	default:
		return model.ActionUpdate
	}
}

type edge struct {
	from   model.DocumentStatus
	action Action
}

// transitions is the complete set of legal edges.
var transitions = map[edge]model.DocumentStatus{
	{model.StatusDraft, ActionSubmit}:    model.StatusPending,
	{model.StatusPending, ActionApprove}: model.StatusApproved,
	{model.StatusPending, ActionReject}:  model.StatusRejected,
	{model.StatusApproved, ActionRevise}: model.StatusPending,
	{model.StatusRejected, ActionRevise}: model.StatusPending,
	{model.StatusDraft, ActionRevise}:    model.StatusPending,
}

// ownerActions may only be invoked by the document owner; the rest need a reviewing role.
var ownerActions = map[Action]bool{
	ActionSubmit: true,
	ActionRevise: true,
}

// Authorize checks that caller may invoke action on a document owned by ownerID.
// It does not look at the document's status.
func Authorize(action Action, caller model.Identity, ownerID string) error {
	if !action.Valid() {
		return model.NewValidationError("unknown action %q", action)
	}
	if ownerActions[action] {
		if caller.UserID == "" || caller.UserID != ownerID {
			return model.NewForbiddenError("only the document owner may %s", action)
		}
		return nil
	}
	if !caller.Role.CanReview() {
		return model.NewForbiddenError("role %q may not %s documents", caller.Role, action)
	}
	return nil
}

// Next returns the status reached by applying action in status from.
func Next(from model.DocumentStatus, action Action) (model.DocumentStatus, error) {
	to, ok := transitions[edge{from, action}]
	if !ok {
		return "", &model.IllegalTransitionError{From: from, Action: string(action)}
	}
	return to, nil
}

// Resolve authorizes caller and then looks the edge up in the transition table.
// Authorization always runs first, so a caller without the role learns nothing about the document state.
func Resolve(doc *model.Document, action Action, caller model.Identity) (model.DocumentStatus, error) {
	if err := Authorize(action, caller, doc.OwnerID); err != nil {
		return "", err
	}
	return Next(doc.Status, action)
}

// AllowedActions lists the actions caller could successfully invoke on doc right now.
func AllowedActions(doc *model.Document, caller model.Identity) []Action {
	out := make([]Action, 0, 2)
	for _, a := range []Action{ActionSubmit, ActionApprove, ActionReject, ActionRevise} {
		if _, err := Resolve(doc, a, caller); err == nil {
			out = append(out, a)
		}
	}
	return out
}
