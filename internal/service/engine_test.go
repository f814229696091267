package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docflow/internal/audit"
	"docflow/internal/config"
	"docflow/internal/model"
)

type engine struct {
	db       *memDB
	store    *memStore
	docs     DocumentService
	workflow WorkflowService
	reports  ReportService
	profiles ProfileService
}

func newEngine() *engine {
	db := newMemDB()
	store := newMemStore()
	var clockMu sync.Mutex
	now := fixedNow
	deps := &Deps{
		Store:    store,
		Docs:     memDocs{db},
		Comments: memComments{db},
		Profiles: memProfiles{db},
		Tx:       db,
		Audit:    audit.NewRecorder(memAudit{db}),
		Log:      zerolog.Nop(),
		Upload:   config.UploadConfig{MaxBytes: 1 << 20},
		Now: func() time.Time {
			clockMu.Lock()
			defer clockMu.Unlock()
			now = now.Add(time.Millisecond)
			return now
		},
	}
	return &engine{
		db:       db,
		store:    store,
		docs:     NewDocumentService(deps),
		workflow: NewWorkflowService(deps),
		reports:  NewReportService(deps),
		profiles: NewProfileService(deps),
	}
}

func TestEngine_Lifecycle(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	draft, err := e.docs.CreateDraft(ctx, owner, model.DocumentMeta{Title: "Supply agreement"}, pdfUpload("v1"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, draft.Status)

	doc, err := e.workflow.Submit(ctx, owner, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, doc.Status)

	doc, err = e.workflow.Reject(ctx, approver, draft.ID, "clause 4 is vague")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, doc.Status)

	doc, err = e.docs.Revise(ctx, owner, draft.ID, pdfUpload("v2"), "clarified clause 4")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, doc.Status)
	assert.Equal(t, model.Version{Major: 1, Minor: 1}, doc.Version)

	doc, err = e.workflow.Approve(ctx, approver, draft.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, doc.Status)

	versions, err := e.docs.ListVersions(ctx, draft.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.True(t, versions[0].Version.Less(versions[1].Version))
	assert.NotEqual(t, versions[0].File.StoragePath, versions[1].File.StoragePath)

	rc, _, err := e.docs.Open(ctx, draft.ID)
	require.NoError(t, err)
	body := make([]byte, 2)
	_, _ = rc.Read(body)
	_ = rc.Close()
	assert.Equal(t, "v2", string(body))

	assert.Equal(t, []model.AuditAction{
		model.ActionUpload, model.ActionUpdate, model.ActionReject, model.ActionUpdate, model.ActionApprove,
	}, e.db.auditActions())

	history, err := e.reports.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, history.Approved)
	require.Len(t, history.RecentActivity, 5)
	assert.Equal(t, model.ActionApprove, history.RecentActivity[0].Action)
	for i := 1; i < len(history.RecentActivity); i++ {
		assert.Greater(t, history.RecentActivity[i-1].Seq, history.RecentActivity[i].Seq)
	}
}

func TestEngine_ConcurrentApprovals(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	doc, err := e.docs.Create(ctx, owner, model.DocumentMeta{Title: "NDA", Category: model.CategoryNDA}, pdfUpload("nda"))
	require.NoError(t, err)

	const racers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		illegal int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = e.workflow.Approve(ctx, approver, doc.ID, "")
			} else {
				_, err = e.workflow.Reject(ctx, approver, doc.ID, "no")
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, model.ErrIllegalTransition), errors.Is(err, model.ErrConflict):
				illegal++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, racers-1, illegal)

	resolutions := 0
	for _, a := range e.db.auditActions() {
		if a == model.ActionApprove || a == model.ActionReject {
			resolutions++
		}
	}
	assert.Equal(t, 1, resolutions)
}

func TestEngine_AuditFailureLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	doc, err := e.docs.Create(ctx, owner, model.DocumentMeta{Title: "Quote"}, pdfUpload("q"))
	require.NoError(t, err)
	before := e.db.auditActions()

	e.db.failAudit = true
	_, err = e.workflow.Approve(ctx, approver, doc.ID, "")
	assert.ErrorIs(t, err, model.ErrStorage)

	_, err = e.docs.Revise(ctx, owner, doc.ID, pdfUpload("q2"), "")
	assert.ErrorIs(t, err, model.ErrIllegalTransition)

	_, err = e.docs.Create(ctx, owner, model.DocumentMeta{Title: "Orphan"}, pdfUpload("o"))
	assert.ErrorIs(t, err, model.ErrStorage)
	e.db.failAudit = false

	got, err := e.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, before, e.db.auditActions())
	assert.Equal(t, 1, e.store.len(), "blob of the failed create must be removed")

	list, err := e.docs.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}

func TestEngine_ReviseRollsBackBlob(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	doc, err := e.docs.Create(ctx, owner, model.DocumentMeta{Title: "Plan"}, pdfUpload("p1"))
	require.NoError(t, err)
	_, err = e.workflow.Reject(ctx, approver, doc.ID, "")
	require.NoError(t, err)

	e.db.failAudit = true
	_, err = e.docs.Revise(ctx, owner, doc.ID, pdfUpload("p2"), "")
	e.db.failAudit = false

	assert.ErrorIs(t, err, model.ErrStorage)
	assert.Equal(t, 1, e.store.len())
	got, err := e.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)
	assert.Equal(t, model.InitialVersion, got.Version)
	versions, err := e.docs.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestEngine_ReportsAndLogin(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	_, err := e.profiles.RecordLogin(ctx, owner, LoginInput{FirstName: "Ann"})
	require.NoError(t, err)
	_, err = e.profiles.RecordLogin(ctx, approver, LoginInput{FirstName: "Bo"})
	require.NoError(t, err)

	for _, title := range []string{"A", "B", "C"} {
		_, err := e.docs.Create(ctx, owner, model.DocumentMeta{Title: title}, pdfUpload(title))
		require.NoError(t, err)
	}
	first, err := e.docs.List(ctx, ListFilter{Limit: 1})
	require.NoError(t, err)
	_, err = e.workflow.Approve(ctx, approver, first.Items[0].ID, "")
	require.NoError(t, err)

	sum, err := e.reports.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Count(model.StatusApproved))
	assert.Equal(t, 2, sum.Count(model.StatusPending))
	assert.Equal(t, 33, sum.Breakdown[0].Pct)
	assert.Equal(t, 67, sum.Breakdown[2].Pct)

	users, err := e.reports.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Ann", users[0].Name)
	assert.Equal(t, 3, users[0].Total)

	dash, err := e.reports.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dash.Profiles)
	assert.Len(t, dash.RecentDocuments, 3)

	assert.Equal(t, model.ActionLogin, e.db.auditActions()[0])
}

func TestEngine_ListIsStable(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	for _, title := range []string{"Lease", "Invoice", "Memo", "Offer", "Quote"} {
		_, err := e.docs.Create(ctx, owner, model.DocumentMeta{Title: title}, pdfUpload(title))
		require.NoError(t, err)
	}
	// same creation instant for every document
	e.db.mu.Lock()
	for id, d := range e.db.docs {
		d.CreatedAt = fixedNow
		e.db.docs[id] = d
	}
	e.db.mu.Unlock()

	first, err := e.docs.List(ctx, ListFilter{Limit: 10})
	require.NoError(t, err)
	second, err := e.docs.List(ctx, ListFilter{Limit: 10})
	require.NoError(t, err)

	require.Len(t, first.Items, 5)
	assert.Equal(t, first.Items, second.Items)
	for i := 1; i < len(first.Items); i++ {
		assert.Greater(t, first.Items[i-1].ID, first.Items[i].ID)
	}

	page1, err := e.docs.List(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	page2, err := e.docs.List(ctx, ListFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, first.Items[:2], page1.Items)
	assert.Equal(t, first.Items[2:4], page2.Items)
}
