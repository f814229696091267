package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"docflow/internal/audit"
	"docflow/internal/config"
	"docflow/internal/model"
	repoMocks "docflow/internal/repository/mocks"
	storeMocks "docflow/internal/storage/mocks"
)

var (
	fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	ownerID    = "7b0c6f38-0a7e-4c57-9a3f-2a56b9f5c001"
	strangerID = "7b0c6f38-0a7e-4c57-9a3f-2a56b9f5c002"
	docID      = "0d6f3f3a-51a8-4d6b-8a55-6e1f0f3c9a10"

	owner    = model.Identity{UserID: ownerID, Email: "owner@example.com", Role: model.RoleClient}
	stranger = model.Identity{UserID: strangerID, Email: "other@example.com", Role: model.RoleClient}
	approver = model.Identity{UserID: "7b0c6f38-0a7e-4c57-9a3f-2a56b9f5c003", Email: "boss@example.com", Role: model.RoleApprover}
)

// fixture bundles the mocks behind a Deps.
type fixture struct {
	store    *storeMocks.MockStorage
	docs     *repoMocks.MockDocumentRepository
	comments *repoMocks.MockCommentRepository
	audit    *repoMocks.MockAuditRepository
	profiles *repoMocks.MockProfileRepository
	tx       *repoMocks.MockTxManager
	deps     *Deps
}

func newFixture() *fixture {
	f := &fixture{
		store:    new(storeMocks.MockStorage),
		docs:     new(repoMocks.MockDocumentRepository),
		comments: new(repoMocks.MockCommentRepository),
		audit:    new(repoMocks.MockAuditRepository),
		profiles: new(repoMocks.MockProfileRepository),
		tx:       new(repoMocks.MockTxManager),
	}
	f.deps = &Deps{
		Store:    f.store,
		Docs:     f.docs,
		Comments: f.comments,
		Profiles: f.profiles,
		Tx:       f.tx,
		Audit:    audit.NewRecorder(f.audit),
		Log:      zerolog.Nop(),
		Upload: config.UploadConfig{
			MaxBytes:     50 << 20,
			AllowedTypes: []string{"application/pdf", "text/plain"},
		},
		Now: func() time.Time { return fixedNow },
	}
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.store.AssertExpectations(t)
	f.docs.AssertExpectations(t)
	f.comments.AssertExpectations(t)
	f.audit.AssertExpectations(t)
	f.profiles.AssertExpectations(t)
	f.tx.AssertExpectations(t)
}

// expectAudit accepts one Insert of the given action.
func (f *fixture) expectAudit(action model.AuditAction) *mock.Call {
	return f.audit.On("Insert", mock.Anything, mock.MatchedBy(func(e *model.AuditEntry) bool {
		return e.Action == action
	})).Return(&model.AuditEntry{ID: "audit-1", Seq: 1, Action: action, CreatedAt: fixedNow}, nil)
}

func pendingDoc() *model.Document {
	return &model.Document{
		ID:       docID,
		Title:    "Lease",
		Filename: "lease.pdf",
		Category: model.CategoryContract,
		Priority: model.PriorityNormal,
		File:     &model.FileRef{StoragePath: ownerID + "/1_lease.pdf", Size: 10, ContentType: "application/pdf"},
		Version:  model.InitialVersion,
		Status:   model.StatusPending,
		OwnerID:  ownerID,
	}
}

func withStatus(doc *model.Document, st model.DocumentStatus) *model.Document {
	doc.Status = st
	return doc
}
