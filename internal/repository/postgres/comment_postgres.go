package postgres

import (
	"context"
	"database/sql"

	"docflow/internal/model"
	"docflow/internal/repository"
)

// CommentPostgres is a PostgreSQL implementation of repository.CommentRepository.
type CommentPostgres struct {
	db *sql.DB
}

func NewCommentPostgres(db *sql.DB) *CommentPostgres {
	return &CommentPostgres{db: db}
}

var _ repository.CommentRepository = (*CommentPostgres)(nil)

// Create inserts a comment. An unknown document surfaces as a NotFoundError through the foreign key.
func (r *CommentPostgres) Create(ctx context.Context, c *model.Comment) (*model.Comment, error) {
	const q = `
		INSERT INTO comments (id, document_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, document_id, author_id, content, created_at
	`
	var out model.Comment
	err := conn(ctx, r.db).QueryRowContext(ctx, q, c.ID, c.DocumentID, c.AuthorID, c.Content, c.CreatedAt).
		Scan(&out.ID, &out.DocumentID, &out.AuthorID, &out.Content, &out.CreatedAt)
	if err != nil {
		return nil, classify("create comment", err)
	}
	return &out, nil
}

func (r *CommentPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.Comment, error) {
	const q = `
		SELECT id, document_id, author_id, content, created_at
		FROM comments
		WHERE document_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, classify("list comments", err)
	}
	defer rows.Close()

	items := make([]model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, classify("list comments", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list comments", err)
	}
	return items, nil
}
