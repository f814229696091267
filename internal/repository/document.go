package repository

import (
	"context"

	"docflow/internal/model"
)

// DocumentFilter narrows List results. Zero values match everything.
type DocumentFilter struct {
	Status  model.DocumentStatus
	OwnerID string
}

// StatusTransition is a guarded status write: it only applies while the row
// still has FromStatus and FromVersion.
type StatusTransition struct {
	ID          string
	FromStatus  model.DocumentStatus
	FromVersion model.Version
	ToStatus    model.DocumentStatus
}

// Revision replaces the current content of a document and moves it back to pending.
type Revision struct {
	ID          string
	FromStatus  model.DocumentStatus
	FromVersion model.Version
	ToVersion   model.Version
	Filename    string
	File        model.FileRef
	Notes       string
}

// OwnerStatusCount is one (owner, status) cell of the per-user breakdown.
type OwnerStatusCount struct {
	OwnerID string
	Status  model.DocumentStatus
	Count   int
}

// DocumentRepository defines data access for documents and their version history.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByIDForUpdate returns a document and locks its row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*model.Document, error)

	// List returns a page of documents ordered by created_at DESC, id DESC, and the total match count.
	List(ctx context.Context, f DocumentFilter, pq PageQuery) (*PageResult[model.Document], error)

	// UpdateStatus applies t. A row that moved on in the meantime yields a ConflictError.
	UpdateStatus(ctx context.Context, t StatusTransition) (*model.Document, error)

	// UpdateRevision applies r under the same guard as UpdateStatus.
	UpdateRevision(ctx context.Context, r Revision) (*model.Document, error)

	// UpdateMetadata rewrites descriptive fields of a draft. Non-draft rows yield a ConflictError.
	UpdateMetadata(ctx context.Context, id string, meta model.DocumentMeta) (*model.Document, error)

	CreateVersion(ctx context.Context, v *model.DocumentVersion) error
	ListVersions(ctx context.Context, documentID string) ([]model.DocumentVersion, error)

	CountByStatus(ctx context.Context) (map[model.DocumentStatus]int, error)
	CountByOwnerStatus(ctx context.Context) ([]OwnerStatusCount, error)
}

// CommentRepository stores comments. Comments are never updated or deleted.
type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) (*model.Comment, error)
	// ListByDocument returns comments oldest first.
	ListByDocument(ctx context.Context, documentID string) ([]model.Comment, error)
}

// AuditRepository appends to and reads the audit log.
type AuditRepository interface {
	// Insert appends e and returns it with ID, Seq and CreatedAt assigned by the database.
	Insert(ctx context.Context, e *model.AuditEntry) (*model.AuditEntry, error)
	// ListRecent returns at most limit entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error)
	// ListForDocument returns at most limit entries targeting documentID, newest first.
	ListForDocument(ctx context.Context, documentID string, limit int) ([]model.AuditEntry, error)
}

// ProfileRepository stores user profiles.
type ProfileRepository interface {
	// Upsert creates the profile or refreshes its names and role.
	Upsert(ctx context.Context, p *model.Profile) (*model.Profile, error)
	FindByID(ctx context.Context, userID string) (*model.Profile, error)
	List(ctx context.Context) ([]model.Profile, error)
	Count(ctx context.Context) (int, error)
}
