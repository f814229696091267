// Package service implements the document workflow use cases on top of the
// repositories, object storage and the transition table in package workflow.
package service

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"docflow/internal/audit"
	"docflow/internal/config"
	"docflow/internal/lock"
	"docflow/internal/metrics"
	"docflow/internal/model"
	"docflow/internal/repository"
	"docflow/internal/storage"
)

const defaultPresign = 15 * time.Minute

var tracer = otel.Tracer("docflow/internal/service")

// Deps wires the services. Locker and Metrics may be left nil.
type Deps struct {
	Store    storage.Storage
	Docs     repository.DocumentRepository
	Comments repository.CommentRepository
	Profiles repository.ProfileRepository
	Tx       repository.TxManager
	Audit    *audit.Recorder
	Locker   lock.Locker
	Metrics  *metrics.Recorder
	Log      zerolog.Logger

	Upload        config.UploadConfig
	PresignExpiry time.Duration
	Now           func() time.Time
}

func (d *Deps) defaults() {
	if d.Locker == nil {
		d.Locker = lock.Nop{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.PresignExpiry <= 0 {
		d.PresignExpiry = defaultPresign
	}
}

// validateID rejects empty ids and turns malformed ones into NotFound, since
// no row can carry them.
func validateID(resource, id string) error {
	if id == "" {
		return model.NewValidationError("%s id is required", resource)
	}
	if _, err := uuid.Parse(id); err != nil {
		return &model.NotFoundError{Resource: resource, ID: id}
	}
	return nil
}

// validationError converts ozzo errors into the domain ValidationError.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		return model.NewValidationError("%s", errs.Error())
	}
	var ie validation.InternalError
	if errors.As(err, &ie) {
		return ie.InternalError()
	}
	return model.NewValidationError("%s", err.Error())
}

// lockedTx serializes work on one document: the optional distributed lock is
// taken first, then fn runs inside a database transaction.
func (d *Deps) lockedTx(ctx context.Context, documentID string, fn repository.TxFn) error {
	release, err := d.Locker.Acquire(ctx, lock.DocumentKey(documentID))
	if err != nil {
		return err
	}
	defer func() {
		// the request ctx may already be done
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := release(rctx); err != nil {
			d.Log.Warn().Err(err).Str("document_id", documentID).Msg("release lock failed")
		}
	}()
	return d.Tx.ExecTx(ctx, fn)
}
