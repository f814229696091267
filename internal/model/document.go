package model

import "time"

// DocumentStatus is the workflow state of a document.
type DocumentStatus string

const (
	StatusDraft    DocumentStatus = "draft"
	StatusPending  DocumentStatus = "pending"
	StatusApproved DocumentStatus = "approved"
	StatusRejected DocumentStatus = "rejected"
)

// Statuses lists every status in reporting order.
var Statuses = []DocumentStatus{StatusApproved, StatusRejected, StatusPending, StatusDraft}

// Valid reports whether s is a known status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Category classifies what kind of paperwork a document is.
type Category string

const (
	CategoryContract Category = "Contract"
	CategoryNDA      Category = "NDA"
	CategoryProposal Category = "Proposal"
	CategoryReport   Category = "Report"
	CategoryOther    Category = "Other"
)

// Priority tells reviewers how urgently a document needs a verdict.
type Priority string

const (
	PriorityNormal Priority = "Normal"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// FileRef points at blob content held by object storage. The content behind
// a FileRef is never rewritten; a new version gets a new FileRef.
type FileRef struct {
	StoragePath string `json:"storage_path"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// IsZero reports whether the reference is absent.
func (f *FileRef) IsZero() bool {
	return f == nil || f.StoragePath == ""
}

// Document represents a versioned file moving through the approval workflow.
// This is a pure domain model with no database-specific dependencies or tags.
type Document struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Filename     string         `json:"filename"`
	Category     Category       `json:"category"`
	Priority     Priority       `json:"priority"`
	VersionNotes string         `json:"version_notes"`
	File         *FileRef       `json:"file,omitempty"`
	Version      Version        `json:"version"`
	Status       DocumentStatus `json:"status"`
	OwnerID      string         `json:"owner_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// DocumentVersion is one immutable row of a document's content history.
type DocumentVersion struct {
	DocumentID string    `json:"document_id"`
	Version    Version   `json:"version"`
	File       FileRef   `json:"file"`
	Notes      string    `json:"notes"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentMeta is the caller-editable descriptive metadata of a document.
type DocumentMeta struct {
	Title        string   `json:"title"`
	Filename     string   `json:"filename"`
	Category     Category `json:"category"`
	Priority     Priority `json:"priority"`
	VersionNotes string   `json:"version_notes"`
}
