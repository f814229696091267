package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"docflow/internal/model"
	"docflow/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, title, filename, category, priority, version_notes,
		storage_path, size, content_type, version_major, version_minor,
		status, owner_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(s rowScanner) (*model.Document, error) {
	var (
		d           model.Document
		storagePath sql.NullString
		size        sql.NullInt64
		contentType sql.NullString
	)
	if err := s.Scan(
		&d.ID,
		&d.Title,
		&d.Filename,
		&d.Category,
		&d.Priority,
		&d.VersionNotes,
		&storagePath,
		&size,
		&contentType,
		&d.Version.Major,
		&d.Version.Minor,
		&d.Status,
		&d.OwnerID,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if storagePath.Valid {
		d.File = &model.FileRef{
			StoragePath: storagePath.String,
			Size:        size.Int64,
			ContentType: contentType.String,
		}
	}
	return &d, nil
}

// fileArgs flattens an optional FileRef into nullable column values.
func fileArgs(f *model.FileRef) (sql.NullString, sql.NullInt64, sql.NullString) {
	if f.IsZero() {
		return sql.NullString{}, sql.NullInt64{}, sql.NullString{}
	}
	return sql.NullString{String: f.StoragePath, Valid: true},
		sql.NullInt64{Int64: f.Size, Valid: true},
		sql.NullString{String: f.ContentType, Valid: true}
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents (id, title, filename, category, priority, version_notes,
			storage_path, size, content_type, version_major, version_minor,
			status, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + documentColumns
	path, size, ct := fileArgs(doc.File)
	row := conn(ctx, r.db).QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Filename,
		doc.Category,
		doc.Priority,
		doc.VersionNotes,
		path,
		size,
		ct,
		doc.Version.Major,
		doc.Version.Minor,
		doc.Status,
		doc.OwnerID,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		return nil, classify("create document", err)
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(conn(ctx, r.db).QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFoundOr("find document", err, "document", id)
	}
	return d, nil
}

// FindByIDForUpdate fetches a document and holds a row lock on it. Outside a
// transaction the lock is released immediately, so callers use it inside ExecTx.
func (r *DocumentPostgres) FindByIDForUpdate(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 FOR UPDATE`
	d, err := scanDocument(conn(ctx, r.db).QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFoundOr("lock document", err, "document", id)
	}
	return d, nil
}

func documentWhere(f repository.DocumentFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, f repository.DocumentFilter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	db := conn(ctx, r.db)
	where, args := documentWhere(f)

	// Count total rows
	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, classify("count documents", err)
	}

	// Fetch page
	qList := fmt.Sprintf(`SELECT %s FROM documents%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		documentColumns, where, len(args)+1, len(args)+2)
	rows, err := db.QueryContext(ctx, qList, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, classify("list documents", err)
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, classify("list documents", err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list documents", err)
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateStatus writes the new status only if status and version are still what the caller read.
func (r *DocumentPostgres) UpdateStatus(ctx context.Context, t repository.StatusTransition) (*model.Document, error) {
	q := `
		UPDATE documents
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3 AND version_major = $4 AND version_minor = $5
		RETURNING ` + documentColumns
	d, err := scanDocument(conn(ctx, r.db).QueryRowContext(ctx, q,
		t.ToStatus, t.ID, t.FromStatus, t.FromVersion.Major, t.FromVersion.Minor))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewConflictError("document %s changed concurrently", t.ID)
	}
	if err != nil {
		return nil, classify("update document status", err)
	}
	return d, nil
}

// UpdateRevision swaps in new content, bumps the version and resets status to pending.
func (r *DocumentPostgres) UpdateRevision(ctx context.Context, rev repository.Revision) (*model.Document, error) {
	q := `
		UPDATE documents
		SET status = 'pending', filename = $1, storage_path = $2, size = $3, content_type = $4,
			version_major = $5, version_minor = $6, version_notes = $7, updated_at = now()
		WHERE id = $8 AND status = $9 AND version_major = $10 AND version_minor = $11
		RETURNING ` + documentColumns
	d, err := scanDocument(conn(ctx, r.db).QueryRowContext(ctx, q,
		rev.Filename,
		rev.File.StoragePath,
		rev.File.Size,
		rev.File.ContentType,
		rev.ToVersion.Major,
		rev.ToVersion.Minor,
		rev.Notes,
		rev.ID,
		rev.FromStatus,
		rev.FromVersion.Major,
		rev.FromVersion.Minor,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewConflictError("document %s changed concurrently", rev.ID)
	}
	if err != nil {
		return nil, classify("revise document", err)
	}
	return d, nil
}

// UpdateMetadata rewrites title, category, priority and notes of a draft.
func (r *DocumentPostgres) UpdateMetadata(ctx context.Context, id string, meta model.DocumentMeta) (*model.Document, error) {
	q := `
		UPDATE documents
		SET title = $1, category = $2, priority = $3, version_notes = $4, updated_at = now()
		WHERE id = $5 AND status = 'draft'
		RETURNING ` + documentColumns
	d, err := scanDocument(conn(ctx, r.db).QueryRowContext(ctx, q,
		meta.Title, meta.Category, meta.Priority, meta.VersionNotes, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewConflictError("document %s is no longer a draft", id)
	}
	if err != nil {
		return nil, classify("update document metadata", err)
	}
	return d, nil
}

// CreateVersion appends a row to the version history.
func (r *DocumentPostgres) CreateVersion(ctx context.Context, v *model.DocumentVersion) error {
	const q = `
		INSERT INTO document_versions (document_id, version_major, version_minor,
			storage_path, size, content_type, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, q,
		v.DocumentID,
		v.Version.Major,
		v.Version.Minor,
		v.File.StoragePath,
		v.File.Size,
		v.File.ContentType,
		v.Notes,
		v.CreatedBy,
		v.CreatedAt,
	)
	return classify("create document version", err)
}

// ListVersions returns the version history of a document, oldest first.
func (r *DocumentPostgres) ListVersions(ctx context.Context, documentID string) ([]model.DocumentVersion, error) {
	const q = `
		SELECT document_id, version_major, version_minor, storage_path, size, content_type,
			notes, created_by, created_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY created_at ASC, version_major ASC, version_minor ASC
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, classify("list document versions", err)
	}
	defer rows.Close()

	items := make([]model.DocumentVersion, 0)
	for rows.Next() {
		var v model.DocumentVersion
		if err := rows.Scan(
			&v.DocumentID,
			&v.Version.Major,
			&v.Version.Minor,
			&v.File.StoragePath,
			&v.File.Size,
			&v.File.ContentType,
			&v.Notes,
			&v.CreatedBy,
			&v.CreatedAt,
		); err != nil {
			return nil, classify("list document versions", err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list document versions", err)
	}
	return items, nil
}

// CountByStatus returns the number of documents per status. Statuses with no
// documents are absent from the map.
func (r *DocumentPostgres) CountByStatus(ctx context.Context) (map[model.DocumentStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM documents GROUP BY status`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q)
	if err != nil {
		return nil, classify("count documents by status", err)
	}
	defer rows.Close()

	counts := make(map[model.DocumentStatus]int)
	for rows.Next() {
		var (
			status model.DocumentStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, classify("count documents by status", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, classify("count documents by status", err)
	}
	return counts, nil
}

// CountByOwnerStatus returns document counts grouped by owner and status.
func (r *DocumentPostgres) CountByOwnerStatus(ctx context.Context) ([]repository.OwnerStatusCount, error) {
	const q = `
		SELECT owner_id, status, COUNT(*)
		FROM documents
		GROUP BY owner_id, status
		ORDER BY owner_id, status
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q)
	if err != nil {
		return nil, classify("count documents by owner", err)
	}
	defer rows.Close()

	out := make([]repository.OwnerStatusCount, 0)
	for rows.Next() {
		var c repository.OwnerStatusCount
		if err := rows.Scan(&c.OwnerID, &c.Status, &c.Count); err != nil {
			return nil, classify("count documents by owner", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("count documents by owner", err)
	}
	return out, nil
}
