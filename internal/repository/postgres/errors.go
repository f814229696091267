package postgres

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"docflow/internal/model"
)

// Postgres SQLSTATE codes the repositories translate into domain errors.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgInvalidText          = "22P02"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// classify converts a driver error into the domain taxonomy. Anything it does
// not recognise becomes a StorageError.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return model.NewConflictError("%s: duplicate %s", op, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return &model.NotFoundError{Resource: "referenced row"}
		case pgSerializationFailure, pgDeadlockDetected:
			return model.NewConflictError("%s: concurrent update, retry", op)
		case pgCheckViolation:
			return model.NewValidationError("%s: violates %s", op, pgErr.ConstraintName)
		case pgInvalidText:
			return model.NewValidationError("%s: malformed value", op)
		}
	}
	return &model.StorageError{Op: op, Err: err}
}

// notFoundOr maps sql.ErrNoRows to a NotFoundError for resource/id and classifies everything else.
func notFoundOr(op string, err error, resource, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &model.NotFoundError{Resource: resource, ID: id}
	}
	return classify(op, err)
}
