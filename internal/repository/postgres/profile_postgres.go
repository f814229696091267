package postgres

import (
	"context"
	"database/sql"

	"docflow/internal/model"
	"docflow/internal/repository"
)

// ProfilePostgres is a PostgreSQL implementation of repository.ProfileRepository.
type ProfilePostgres struct {
	db *sql.DB
}

func NewProfilePostgres(db *sql.DB) *ProfilePostgres {
	return &ProfilePostgres{db: db}
}

var _ repository.ProfileRepository = (*ProfilePostgres)(nil)

// Upsert inserts the profile or, on an existing user, refreshes role and any non-empty names.
func (r *ProfilePostgres) Upsert(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	const q = `
		INSERT INTO profiles (user_id, first_name, last_name, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), profiles.first_name),
			last_name  = COALESCE(NULLIF(EXCLUDED.last_name, ''), profiles.last_name),
			role       = EXCLUDED.role
		RETURNING user_id, first_name, last_name, role, created_at
	`
	var out model.Profile
	err := conn(ctx, r.db).QueryRowContext(ctx, q, p.UserID, p.FirstName, p.LastName, p.Role, p.CreatedAt).
		Scan(&out.UserID, &out.FirstName, &out.LastName, &out.Role, &out.CreatedAt)
	if err != nil {
		return nil, classify("upsert profile", err)
	}
	return &out, nil
}

func (r *ProfilePostgres) FindByID(ctx context.Context, userID string) (*model.Profile, error) {
	const q = `SELECT user_id, first_name, last_name, role, created_at FROM profiles WHERE user_id = $1`
	var p model.Profile
	err := conn(ctx, r.db).QueryRowContext(ctx, q, userID).
		Scan(&p.UserID, &p.FirstName, &p.LastName, &p.Role, &p.CreatedAt)
	if err != nil {
		return nil, notFoundOr("find profile", err, "profile", userID)
	}
	return &p, nil
}

func (r *ProfilePostgres) List(ctx context.Context) ([]model.Profile, error) {
	const q = `SELECT user_id, first_name, last_name, role, created_at FROM profiles ORDER BY created_at DESC, user_id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q)
	if err != nil {
		return nil, classify("list profiles", err)
	}
	defer rows.Close()

	items := make([]model.Profile, 0)
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.UserID, &p.FirstName, &p.LastName, &p.Role, &p.CreatedAt); err != nil {
			return nil, classify("list profiles", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list profiles", err)
	}
	return items, nil
}

func (r *ProfilePostgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, classify("count profiles", err)
	}
	return n, nil
}
