package service

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"docflow/internal/audit"
	"docflow/internal/metrics"
	"docflow/internal/model"
	"docflow/internal/repository"
	"docflow/internal/storage"
	"docflow/internal/workflow"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxTitleLength  = 255
	maxNotesLength  = 2000
	maxCommentRunes = 5000
)

var (
	categories = []any{model.CategoryContract, model.CategoryNDA, model.CategoryProposal, model.CategoryReport, model.CategoryOther}
	priorities = []any{model.PriorityNormal, model.PriorityHigh, model.PriorityUrgent}
)

// FileUpload is file content on its way into object storage.
type FileUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// ListFilter selects a page of documents.
type ListFilter struct {
	Status  model.DocumentStatus
	OwnerID string
	Limit   int
	Offset  int
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items  []model.Document `json:"data"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// DocumentService defines the use cases for handling documents, their versions and comments.
type DocumentService interface {
	// Create uploads the content, stores the document as pending at v1.0 and records UPLOAD.
	// The blob is deleted again if the database write fails.
	Create(ctx context.Context, caller model.Identity, meta model.DocumentMeta, file *FileUpload) (*model.Document, error)

	// CreateDraft is Create without the submission: status is draft and file may be nil.
	CreateDraft(ctx context.Context, caller model.Identity, meta model.DocumentMeta, file *FileUpload) (*model.Document, error)

	// UpdateMetadata edits a draft. Only the owner may do so.
	UpdateMetadata(ctx context.Context, caller model.Identity, id string, meta model.DocumentMeta) (*model.Document, error)

	// Revise stores new content as the next minor version and moves the document back to pending.
	Revise(ctx context.Context, caller model.Identity, id string, file *FileUpload, notes string) (*model.Document, error)

	AddComment(ctx context.Context, caller model.Identity, id, content string) (*model.Comment, error)
	ListComments(ctx context.Context, id string) ([]model.Comment, error)

	// List returns documents newest first using limit/offset and a total count.
	List(ctx context.Context, f ListFilter) (*DocumentListResult, error)
	Get(ctx context.Context, id string) (*model.Document, error)
	ListVersions(ctx context.Context, id string) ([]model.DocumentVersion, error)

	// DownloadURL returns a presigned URL for the current version.
	DownloadURL(ctx context.Context, id string) (string, error)
	// Open streams the current version. The caller closes the reader.
	Open(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	*Deps
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(d *Deps) DocumentService {
	d.defaults()
	return &documentService{Deps: d}
}

func normalizeMeta(meta *model.DocumentMeta) {
	meta.Title = strings.TrimSpace(meta.Title)
	meta.VersionNotes = strings.TrimSpace(meta.VersionNotes)
	if meta.Category == "" {
		meta.Category = model.CategoryContract
	}
	if meta.Priority == "" {
		meta.Priority = model.PriorityNormal
	}
}

func validateMeta(meta *model.DocumentMeta) error {
	return validationError(validation.ValidateStruct(meta,
		validation.Field(&meta.Title, validation.Required, validation.RuneLength(1, maxTitleLength)),
		validation.Field(&meta.Category, validation.Required, validation.In(categories...)),
		validation.Field(&meta.Priority, validation.Required, validation.In(priorities...)),
		validation.Field(&meta.VersionNotes, validation.RuneLength(0, maxNotesLength)),
	))
}

func (s *documentService) validateFile(f *FileUpload) error {
	if f == nil || f.Reader == nil {
		return model.NewValidationError("file is required")
	}
	if strings.TrimSpace(f.Filename) == "" {
		return model.NewValidationError("filename is required")
	}
	if f.Size <= 0 {
		return model.NewValidationError("file is empty")
	}
	if s.Upload.MaxBytes > 0 && f.Size > s.Upload.MaxBytes {
		return model.NewValidationError("file exceeds the %d MB limit", s.Upload.MaxBytes>>20)
	}
	if len(s.Upload.AllowedTypes) > 0 && !slices.Contains(s.Upload.AllowedTypes, f.ContentType) {
		return model.NewValidationError("content type %q is not allowed", f.ContentType)
	}
	return nil
}

// put uploads f under a fresh owner-scoped key.
func (s *documentService) put(ctx context.Context, ownerID string, f *FileUpload) (model.FileRef, error) {
	key := storage.ObjectKey(ownerID, f.Filename, s.Now())
	info, err := s.Store.Put(ctx, key, f.Reader, storage.PutObjectOptions{
		Size:        f.Size,
		ContentType: f.ContentType,
		Metadata:    map[string]string{"original-filename": f.Filename},
	})
	if err != nil {
		return model.FileRef{}, &model.StorageError{Op: "upload to storage", Err: err}
	}
	ref := model.FileRef{StoragePath: info.Key, Size: info.Size, ContentType: info.ContentType}
	if ref.StoragePath == "" {
		ref.StoragePath = key
	}
	if ref.ContentType == "" {
		ref.ContentType = f.ContentType
	}
	return ref, nil
}

// discard removes a blob whose database write did not commit.
func (s *documentService) discard(ctx context.Context, ref model.FileRef, cause error) error {
	if err := s.Store.Delete(context.WithoutCancel(ctx), ref.StoragePath); err != nil {
		s.Log.Error().Err(err).Str("storage_path", ref.StoragePath).Msg("rollback delete failed")
		return fmt.Errorf("%w; rollback delete failed: %v", cause, err)
	}
	return cause
}

func (s *documentService) Create(ctx context.Context, caller model.Identity, meta model.DocumentMeta, file *FileUpload) (*model.Document, error) {
	return s.create(ctx, caller, meta, file, model.StatusPending)
}

func (s *documentService) CreateDraft(ctx context.Context, caller model.Identity, meta model.DocumentMeta, file *FileUpload) (*model.Document, error) {
	return s.create(ctx, caller, meta, file, model.StatusDraft)
}

func (s *documentService) create(ctx context.Context, caller model.Identity, meta model.DocumentMeta, file *FileUpload, status model.DocumentStatus) (*model.Document, error) {
	ctx, span := tracer.Start(ctx, "documents.create")
	defer span.End()

	if caller.UserID == "" {
		return nil, &model.UnauthorizedError{}
	}
	normalizeMeta(&meta)
	if err := validateMeta(&meta); err != nil {
		return nil, err
	}
	if status != model.StatusDraft || file != nil {
		if err := s.validateFile(file); err != nil {
			return nil, err
		}
	}

	now := s.Now()
	doc := &model.Document{
		ID:           uuid.NewString(),
		Title:        meta.Title,
		Category:     meta.Category,
		Priority:     meta.Priority,
		VersionNotes: meta.VersionNotes,
		Version:      model.InitialVersion,
		Status:       status,
		OwnerID:      caller.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if file != nil {
		ref, err := s.put(ctx, caller.UserID, file)
		if err != nil {
			return nil, err
		}
		doc.File = &ref
		doc.Filename = storage.BaseName(file.Filename)
	}
	span.SetAttributes(attribute.String("document.id", doc.ID), attribute.String("document.status", string(status)))

	var stored *model.Document
	err := s.Tx.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		if stored, err = s.Docs.Create(ctx, doc); err != nil {
			return err
		}
		if doc.File != nil {
			if err := s.Docs.CreateVersion(ctx, &model.DocumentVersion{
				DocumentID: doc.ID,
				Version:    doc.Version,
				File:       *doc.File,
				Notes:      doc.VersionNotes,
				CreatedBy:  caller.UserID,
				CreatedAt:  now,
			}); err != nil {
				return err
			}
		}
		_, err = s.Audit.Record(ctx, audit.Entry{
			Actor:    &caller,
			Action:   model.ActionUpload,
			Document: doc.ID,
			Detail:   fmt.Sprintf("created %q %s as %s", doc.Title, doc.Version, status),
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		if doc.File != nil {
			return nil, s.discard(ctx, *doc.File, err)
		}
		return nil, err
	}

	s.Metrics.DocumentCreated(stored.Category)
	s.Metrics.AuditEntry(model.ActionUpload)
	s.Log.Info().
		Str("event", "document_created").
		Str("document_id", stored.ID).
		Str("owner_id", stored.OwnerID).
		Str("status", string(stored.Status)).
		Send()
	return stored, nil
}

func (s *documentService) UpdateMetadata(ctx context.Context, caller model.Identity, id string, meta model.DocumentMeta) (*model.Document, error) {
	if err := validateID("document", id); err != nil {
		return nil, err
	}
	normalizeMeta(&meta)
	if err := validateMeta(&meta); err != nil {
		return nil, err
	}

	var updated *model.Document
	err := s.lockedTx(ctx, id, func(ctx context.Context) error {
		doc, err := s.Docs.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc.OwnerID != caller.UserID {
			return model.NewForbiddenError("only the document owner may edit it")
		}
		if doc.Status != model.StatusDraft {
			return model.NewValidationError("only draft documents can be edited, document is %s", doc.Status)
		}
		if updated, err = s.Docs.UpdateMetadata(ctx, id, meta); err != nil {
			return err
		}
		_, err = s.Audit.Record(ctx, audit.Entry{
			Actor:    &caller,
			Action:   model.ActionUpdate,
			Document: id,
			Detail:   fmt.Sprintf("edited draft %q", updated.Title),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.AuditEntry(model.ActionUpdate)
	s.Log.Info().Str("event", "document_metadata_updated").Str("document_id", id).Send()
	return updated, nil
}

func (s *documentService) Revise(ctx context.Context, caller model.Identity, id string, file *FileUpload, notes string) (*model.Document, error) {
	ctx, span := tracer.Start(ctx, "workflow.revise")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", id))

	if err := validateID("document", id); err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)
	if err := validationError(validation.Validate(notes, validation.RuneLength(0, maxNotesLength))); err != nil {
		return nil, err
	}
	if err := s.validateFile(file); err != nil {
		return nil, err
	}

	// Fail fast before uploading; the decision is repeated under the row lock.
	current, err := s.Docs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := workflow.Resolve(current, workflow.ActionRevise, caller); err != nil {
		s.Metrics.Transition(string(workflow.ActionRevise), metrics.ResultOf(err))
		s.rejected(workflow.ActionRevise, id, caller, err)
		return nil, err
	}

	ref, err := s.put(ctx, caller.UserID, file)
	if err != nil {
		return nil, err
	}

	var revised *model.Document
	err = s.lockedTx(ctx, id, func(ctx context.Context) error {
		doc, err := s.Docs.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		to, err := workflow.Resolve(doc, workflow.ActionRevise, caller)
		if err != nil {
			return err
		}
		next := doc.Version.Next()
		revised, err = s.Docs.UpdateRevision(ctx, repository.Revision{
			ID:          id,
			FromStatus:  doc.Status,
			FromVersion: doc.Version,
			ToVersion:   next,
			Filename:    storage.BaseName(file.Filename),
			File:        ref,
			Notes:       notes,
		})
		if err != nil {
			return err
		}
		if err := s.Docs.CreateVersion(ctx, &model.DocumentVersion{
			DocumentID: id,
			Version:    next,
			File:       ref,
			Notes:      notes,
			CreatedBy:  caller.UserID,
			CreatedAt:  s.Now(),
		}); err != nil {
			return err
		}
		_, err = s.Audit.Record(ctx, audit.Entry{
			Actor:    &caller,
			Action:   workflow.ActionRevise.AuditAction(),
			Document: id,
			Detail:   fmt.Sprintf("revised %s -> %s (%s -> %s)", doc.Version, next, doc.Status, to),
		})
		return err
	})
	s.Metrics.Transition(string(workflow.ActionRevise), metrics.ResultOf(err))
	if err != nil {
		span.RecordError(err)
		s.rejected(workflow.ActionRevise, id, caller, err)
		return nil, s.discard(ctx, ref, err)
	}

	s.Metrics.AuditEntry(model.ActionUpdate)
	s.Log.Info().
		Str("event", "document_revised").
		Str("document_id", id).
		Str("version", revised.Version.String()).
		Send()
	return revised, nil
}

func (s *documentService) AddComment(ctx context.Context, caller model.Identity, id, content string) (*model.Comment, error) {
	if err := validateID("document", id); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, model.NewValidationError("comment must not be blank")
	}
	if err := validationError(validation.Validate(content, validation.RuneLength(1, maxCommentRunes))); err != nil {
		return nil, err
	}

	var stored *model.Comment
	err := s.Tx.ExecTx(ctx, func(ctx context.Context) error {
		doc, err := s.Docs.FindByID(ctx, id)
		if err != nil {
			return err
		}
		stored, err = s.Comments.Create(ctx, &model.Comment{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			AuthorID:   caller.UserID,
			Content:    content,
			CreatedAt:  s.Now(),
		})
		if err != nil {
			return err
		}
		_, err = s.Audit.Record(ctx, audit.Entry{
			Actor:    &caller,
			Action:   model.ActionComment,
			Document: id,
			Detail:   fmt.Sprintf("commented on %q", doc.Title),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.AuditEntry(model.ActionComment)
	s.Log.Info().Str("event", "comment_added").Str("document_id", id).Str("comment_id", stored.ID).Send()
	return stored, nil
}

func (s *documentService) ListComments(ctx context.Context, id string) ([]model.Comment, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.Comments.ListByDocument(ctx, id)
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, f ListFilter) (*DocumentListResult, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, model.NewValidationError("unknown status %q", f.Status)
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	res, err := s.Docs.List(ctx,
		repository.DocumentFilter{Status: f.Status, OwnerID: f.OwnerID},
		repository.PageQuery{Limit: f.Limit, Offset: f.Offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total, Limit: f.Limit, Offset: f.Offset}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if err := validateID("document", id); err != nil {
		return nil, err
	}
	return s.Docs.FindByID(ctx, id)
}

func (s *documentService) ListVersions(ctx context.Context, id string) ([]model.DocumentVersion, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.Docs.ListVersions(ctx, id)
}

func (s *documentService) currentFile(ctx context.Context, id string) (*model.FileRef, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.File.IsZero() {
		return nil, &model.NotFoundError{Resource: "file of document", ID: id}
	}
	return doc.File, nil
}

func (s *documentService) DownloadURL(ctx context.Context, id string) (string, error) {
	ref, err := s.currentFile(ctx, id)
	if err != nil {
		return "", err
	}
	u, err := s.Store.PresignGet(ctx, ref.StoragePath, s.PresignExpiry)
	if err != nil {
		return "", &model.StorageError{Op: "presign download", Err: err}
	}
	return u, nil
}

func (s *documentService) Open(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	ref, err := s.currentFile(ctx, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	rc, info, err := s.Store.Get(ctx, ref.StoragePath)
	if err != nil {
		return nil, storage.ObjectInfo{}, &model.StorageError{Op: "open content", Err: err}
	}
	return rc, info, nil
}

// rejected logs a transition the workflow or the database refused.
func (s *documentService) rejected(action workflow.Action, id string, caller model.Identity, err error) {
	s.Log.Warn().
		Str("event", "transition_rejected").
		Str("action", string(action)).
		Str("document_id", id).
		Str("user_id", caller.UserID).
		Err(err).
		Send()
}
