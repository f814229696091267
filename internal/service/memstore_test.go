package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"docflow/internal/model"
	"docflow/internal/repository"
	"docflow/internal/storage"
)

// memDB is an in-process stand-in for Postgres. A transaction holds mu for its
// whole duration and restores the previous state when fn fails.
type memDB struct {
	mu       sync.Mutex
	docs     map[string]model.Document
	versions []model.DocumentVersion
	comments []model.Comment
	audit    []model.AuditEntry
	profiles map[string]model.Profile
	seq      int64
	clock    time.Time

	failAudit bool
}

type memTxKey struct{}

type memState struct {
	docs     map[string]model.Document
	versions []model.DocumentVersion
	comments []model.Comment
	audit    []model.AuditEntry
	profiles map[string]model.Profile
	seq      int64
}

func newMemDB() *memDB {
	return &memDB{
		docs:     map[string]model.Document{},
		profiles: map[string]model.Profile{},
		clock:    fixedNow,
	}
}

func (m *memDB) snapshot() memState {
	return memState{
		docs:     maps.Clone(m.docs),
		versions: slices.Clone(m.versions),
		comments: slices.Clone(m.comments),
		audit:    slices.Clone(m.audit),
		profiles: maps.Clone(m.profiles),
		seq:      m.seq,
	}
}

func (m *memDB) restore(s memState) {
	m.docs, m.versions, m.comments, m.audit, m.profiles, m.seq = s.docs, s.versions, s.comments, s.audit, s.profiles, s.seq
}

// with runs fn under the lock unless ctx already belongs to a transaction.
func (m *memDB) with(ctx context.Context, fn func() error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}

func (m *memDB) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memDB) ExecTx(ctx context.Context, fn repository.TxFn) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := m.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		m.restore(saved)
		return err
	}
	return nil
}

func (m *memDB) ReadSnapshot(ctx context.Context, fn repository.TxFn) error {
	return m.ExecTx(ctx, fn)
}

func (m *memDB) auditActions() []model.AuditAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.AuditAction, 0, len(m.audit))
	for _, e := range m.audit {
		out = append(out, e.Action)
	}
	return out
}

type memDocs struct{ db *memDB }

func notFound(id string) error { return &model.NotFoundError{Resource: "document", ID: id} }

func (r memDocs) Create(ctx context.Context, doc *model.Document) (out *model.Document, err error) {
	err = r.db.with(ctx, func() error {
		if _, ok := r.db.docs[doc.ID]; ok {
			return model.NewConflictError("document %s already exists", doc.ID)
		}
		r.db.docs[doc.ID] = *doc
		cp := *doc
		out = &cp
		return nil
	})
	return out, err
}

func (r memDocs) FindByID(ctx context.Context, id string) (out *model.Document, err error) {
	err = r.db.with(ctx, func() error {
		d, ok := r.db.docs[id]
		if !ok {
			return notFound(id)
		}
		out = &d
		return nil
	})
	return out, err
}

func (r memDocs) FindByIDForUpdate(ctx context.Context, id string) (*model.Document, error) {
	return r.FindByID(ctx, id)
}

func (r memDocs) List(ctx context.Context, f repository.DocumentFilter, pq repository.PageQuery) (out *repository.PageResult[model.Document], err error) {
	err = r.db.with(ctx, func() error {
		items := make([]model.Document, 0, len(r.db.docs))
		for _, d := range r.db.docs {
			if (f.Status == "" || d.Status == f.Status) && (f.OwnerID == "" || d.OwnerID == f.OwnerID) {
				items = append(items, d)
			}
		}
		sort.Slice(items, func(i, j int) bool {
			if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
				return items[i].CreatedAt.After(items[j].CreatedAt)
			}
			return items[i].ID > items[j].ID
		})
		total := len(items)
		lo := min(pq.Offset, total)
		hi := min(lo+pq.Limit, total)
		out = &repository.PageResult[model.Document]{Items: items[lo:hi], Total: total}
		return nil
	})
	return out, err
}

func (r memDocs) guarded(ctx context.Context, id string, st model.DocumentStatus, v model.Version, apply func(*model.Document)) (out *model.Document, err error) {
	err = r.db.with(ctx, func() error {
		d, ok := r.db.docs[id]
		if !ok || d.Status != st || d.Version != v {
			return model.NewConflictError("document %s changed concurrently", id)
		}
		apply(&d)
		d.UpdatedAt = r.db.tick()
		r.db.docs[id] = d
		out = &d
		return nil
	})
	return out, err
}

func (r memDocs) UpdateStatus(ctx context.Context, t repository.StatusTransition) (*model.Document, error) {
	return r.guarded(ctx, t.ID, t.FromStatus, t.FromVersion, func(d *model.Document) {
		d.Status = t.ToStatus
	})
}

func (r memDocs) UpdateRevision(ctx context.Context, rv repository.Revision) (*model.Document, error) {
	return r.guarded(ctx, rv.ID, rv.FromStatus, rv.FromVersion, func(d *model.Document) {
		file := rv.File
		d.File = &file
		d.Filename = rv.Filename
		d.Version = rv.ToVersion
		d.VersionNotes = rv.Notes
		d.Status = model.StatusPending
	})
}

func (r memDocs) UpdateMetadata(ctx context.Context, id string, meta model.DocumentMeta) (out *model.Document, err error) {
	err = r.db.with(ctx, func() error {
		d, ok := r.db.docs[id]
		if !ok || d.Status != model.StatusDraft {
			return model.NewConflictError("document %s is not a draft", id)
		}
		d.Title, d.Category, d.Priority, d.VersionNotes = meta.Title, meta.Category, meta.Priority, meta.VersionNotes
		r.db.docs[id] = d
		out = &d
		return nil
	})
	return out, err
}

func (r memDocs) CreateVersion(ctx context.Context, v *model.DocumentVersion) error {
	return r.db.with(ctx, func() error {
		for _, e := range r.db.versions {
			if e.DocumentID == v.DocumentID && e.Version == v.Version {
				return model.NewConflictError("version %s exists", v.Version)
			}
		}
		r.db.versions = append(r.db.versions, *v)
		return nil
	})
}

func (r memDocs) ListVersions(ctx context.Context, documentID string) (out []model.DocumentVersion, err error) {
	err = r.db.with(ctx, func() error {
		for _, v := range r.db.versions {
			if v.DocumentID == documentID {
				out = append(out, v)
			}
		}
		return nil
	})
	return out, err
}

func (r memDocs) CountByStatus(ctx context.Context) (out map[model.DocumentStatus]int, err error) {
	err = r.db.with(ctx, func() error {
		out = map[model.DocumentStatus]int{}
		for _, d := range r.db.docs {
			out[d.Status]++
		}
		return nil
	})
	return out, err
}

func (r memDocs) CountByOwnerStatus(ctx context.Context) (out []repository.OwnerStatusCount, err error) {
	err = r.db.with(ctx, func() error {
		cells := map[[2]string]int{}
		for _, d := range r.db.docs {
			cells[[2]string{d.OwnerID, string(d.Status)}]++
		}
		for k, n := range cells {
			out = append(out, repository.OwnerStatusCount{OwnerID: k[0], Status: model.DocumentStatus(k[1]), Count: n})
		}
		return nil
	})
	return out, err
}

type memComments struct{ db *memDB }

func (r memComments) Create(ctx context.Context, c *model.Comment) (*model.Comment, error) {
	err := r.db.with(ctx, func() error {
		r.db.comments = append(r.db.comments, *c)
		return nil
	})
	return c, err
}

func (r memComments) ListByDocument(ctx context.Context, documentID string) (out []model.Comment, err error) {
	err = r.db.with(ctx, func() error {
		for _, c := range r.db.comments {
			if c.DocumentID == documentID {
				out = append(out, c)
			}
		}
		return nil
	})
	return out, err
}

type memAudit struct{ db *memDB }

func (r memAudit) Insert(ctx context.Context, e *model.AuditEntry) (out *model.AuditEntry, err error) {
	err = r.db.with(ctx, func() error {
		if r.db.failAudit {
			return &model.StorageError{Op: "insert audit entry", Err: errors.New("audit log unavailable")}
		}
		r.db.seq++
		cp := *e
		cp.Seq = r.db.seq
		cp.CreatedAt = r.db.tick()
		r.db.audit = append(r.db.audit, cp)
		out = &cp
		return nil
	})
	return out, err
}

func (r memAudit) ListRecent(ctx context.Context, limit int) (out []model.AuditEntry, err error) {
	return r.list(ctx, "", limit)
}

func (r memAudit) ListForDocument(ctx context.Context, documentID string, limit int) ([]model.AuditEntry, error) {
	return r.list(ctx, documentID, limit)
}

func (r memAudit) list(ctx context.Context, documentID string, limit int) (out []model.AuditEntry, err error) {
	err = r.db.with(ctx, func() error {
		for i := len(r.db.audit) - 1; i >= 0 && len(out) < limit; i-- {
			e := r.db.audit[i]
			if documentID == "" || (e.TargetDocumentID != nil && *e.TargetDocumentID == documentID) {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

type memProfiles struct{ db *memDB }

func (r memProfiles) Upsert(ctx context.Context, p *model.Profile) (out *model.Profile, err error) {
	err = r.db.with(ctx, func() error {
		cp := *p
		if prev, ok := r.db.profiles[p.UserID]; ok {
			cp.CreatedAt = prev.CreatedAt
		}
		r.db.profiles[p.UserID] = cp
		out = &cp
		return nil
	})
	return out, err
}

func (r memProfiles) FindByID(ctx context.Context, userID string) (out *model.Profile, err error) {
	err = r.db.with(ctx, func() error {
		p, ok := r.db.profiles[userID]
		if !ok {
			return &model.NotFoundError{Resource: "profile", ID: userID}
		}
		out = &p
		return nil
	})
	return out, err
}

func (r memProfiles) List(ctx context.Context) (out []model.Profile, err error) {
	err = r.db.with(ctx, func() error {
		for _, p := range r.db.profiles {
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

func (r memProfiles) Count(ctx context.Context) (n int, err error) {
	err = r.db.with(ctx, func() error {
		n = len(r.db.profiles)
		return nil
	})
	return n, err
}

// memStore keeps blobs in memory.
type memStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemStore() *memStore { return &memStore{blobs: map[string][]byte{}} }

func (s *memStore) Put(_ context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = b
	return storage.ObjectInfo{Key: key, Size: int64(len(b)), ContentType: opt.ContentType}, nil
}

func (s *memStore) Get(_ context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, storage.ObjectInfo{}, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(b)), storage.ObjectInfo{Key: key, Size: int64(len(b))}, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *memStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.test/" + key, nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
