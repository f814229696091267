package postgres

import (
	"context"
	"database/sql"

	"docflow/internal/model"
	"docflow/internal/repository"
)

// AuditPostgres is a PostgreSQL implementation of repository.AuditRepository.
// The table is append-only: there is no update or delete path.
type AuditPostgres struct {
	db *sql.DB
}

func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

const auditColumns = `seq, id, actor_id, actor_email, action, target_document_id, detail, created_at`

func scanAudit(s rowScanner) (*model.AuditEntry, error) {
	var (
		e          model.AuditEntry
		actorID    sql.NullString
		actorEmail sql.NullString
		target     sql.NullString
	)
	if err := s.Scan(&e.Seq, &e.ID, &actorID, &actorEmail, &e.Action, &target, &e.Detail, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.ActorID = nullableString(actorID)
	e.ActorEmail = nullableString(actorEmail)
	e.TargetDocumentID = nullableString(target)
	return &e, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Insert appends an entry. created_at comes from the database clock so ordering follows commit order within a transaction.
func (r *AuditPostgres) Insert(ctx context.Context, e *model.AuditEntry) (*model.AuditEntry, error) {
	q := `
		INSERT INTO audit_logs (id, actor_id, actor_email, action, target_document_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + auditColumns
	out, err := scanAudit(conn(ctx, r.db).QueryRowContext(ctx, q,
		e.ID,
		nullString(e.ActorID),
		nullString(e.ActorEmail),
		e.Action,
		nullString(e.TargetDocumentID),
		e.Detail,
	))
	if err != nil {
		return nil, classify("insert audit entry", err)
	}
	return out, nil
}

func (r *AuditPostgres) ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	q := `SELECT ` + auditColumns + ` FROM audit_logs ORDER BY created_at DESC, seq DESC LIMIT $1`
	return r.list(ctx, "list audit entries", q, limit)
}

func (r *AuditPostgres) ListForDocument(ctx context.Context, documentID string, limit int) ([]model.AuditEntry, error) {
	q := `SELECT ` + auditColumns + ` FROM audit_logs WHERE target_document_id = $1 ORDER BY created_at DESC, seq DESC LIMIT $2`
	return r.list(ctx, "list document audit entries", q, documentID, limit)
}

func (r *AuditPostgres) list(ctx context.Context, op, q string, args ...any) ([]model.AuditEntry, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	items := make([]model.AuditEntry, 0)
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return items, nil
}
