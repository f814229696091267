package model

import "time"

// AuditAction names the kind of change an audit entry records.
type AuditAction string

const (
	ActionUpload  AuditAction = "UPLOAD"
	ActionApprove AuditAction = "APPROVE"
	ActionReject  AuditAction = "REJECT"
	ActionComment AuditAction = "COMMENT"
	ActionUpdate  AuditAction = "UPDATE"
	ActionLogin   AuditAction = "LOGIN"
)

// Valid reports whether a is one of the known actions.
func (a AuditAction) Valid() bool {
	switch a {
	case ActionUpload, ActionApprove, ActionReject, ActionComment, ActionUpdate, ActionLogin:
		return true
	}
	return false
}

// AuditEntry is an append-only record of one state-changing action.
// Entries are totally ordered by CreatedAt, then Seq.
type AuditEntry struct {
	ID               string      `json:"id"`
	Seq              int64       `json:"seq"`
	ActorID          *string     `json:"actor_id"`
	ActorEmail       *string     `json:"actor_email"`
	Action           AuditAction `json:"action"`
	TargetDocumentID *string     `json:"target_document_id"`
	Detail           string      `json:"detail"`
	CreatedAt        time.Time   `json:"created_at"`
}
